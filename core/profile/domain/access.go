// Copyright 2025 Nguyen Nhat Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package domain

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofrs/uuid/v5"
)

type (
	AccessLevel string
	DenyReason  string
)

const (
	AccessOwner AccessLevel = "OWNER"
	// AccessPublic: anonymous caller on a public profile.
	AccessPublic AccessLevel = "PUBLIC"
	// AccessPrivate: authenticated non-owner on a public profile. Allowed.
	AccessPrivate AccessLevel = "PRIVATE"
	AccessNone    AccessLevel = "NONE"
)

const (
	ReasonProfileNotFound DenyReason = "PROFILE_NOT_FOUND"
	ReasonPrivateProfile  DenyReason = "PRIVATE_PROFILE"
	ReasonValidationError DenyReason = "VALIDATION_ERROR"
)

// AccessResult is the decision of ValidateAccess. Profile is the resolved
// target and is only set when CanAccess is true.
type AccessResult struct {
	CanAccess bool
	Level     AccessLevel
	Reason    DenyReason
	TargetID  uuid.UUID
	Profile   *Profile
}

func deny(reason DenyReason) AccessResult {
	return AccessResult{Level: AccessNone, Reason: reason}
}

// ValidateAccess decides whether caller may view the profile identified by
// target, which is either a profile code or a profile id. A nil caller is
// anonymous. Lookup failures deny with ReasonValidationError.
func (app *Application) ValidateAccess(ctx context.Context, target string, caller *uuid.UUID) AccessResult {
	prof, err := app.lookup(ctx, target)
	switch {
	case errors.Is(err, ErrProfileNotFound):
		return deny(ReasonProfileNotFound)
	case err != nil:
		slog.ErrorContext(ctx, "access validation lookup failed",
			slog.String("target", target),
			slog.Any("error", err),
		)
		return deny(ReasonValidationError)
	case prof == nil:
		return deny(ReasonProfileNotFound)
	}

	granted := func(level AccessLevel) AccessResult {
		return AccessResult{CanAccess: true, Level: level, TargetID: prof.ID, Profile: prof}
	}

	if caller != nil && *caller == prof.ID {
		return granted(AccessOwner)
	}
	if !prof.IsPublic {
		r := deny(ReasonPrivateProfile)
		r.TargetID = prof.ID
		return r
	}
	if caller == nil {
		return granted(AccessPublic)
	}
	return granted(AccessPrivate)
}

// Shape drops the fields level may not see. Owners see everything,
// authenticated viewers lose the phone, anonymous viewers also lose the location.
func Shape(p Profile, level AccessLevel) Profile {
	switch level {
	case AccessOwner:
	case AccessPrivate:
		p.Phone = nil
	default:
		p.Phone = nil
		p.Location = nil
	}
	return p
}
