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
	"net/url"
	"strings"
	"unicode/utf8"

	"foodlog/modules/cache"

	"github.com/gofrs/uuid/v5"
	"github.com/oapi-codegen/nullable"
)

const (
	maxDisplayNameLen = 100
	maxBioLen         = 500
	maxShortFieldLen  = 200
)

func (p ModifyProfileParams) Empty() bool {
	return !p.DisplayName.IsSpecified() &&
		!p.AvatarURL.IsSpecified() &&
		!p.Bio.IsSpecified() &&
		!p.Location.IsSpecified() &&
		!p.Website.IsSpecified() &&
		!p.Phone.IsSpecified() &&
		!p.IsPublic.IsSpecified()
}

// Validate returns a *ValidationError for the first offending field.
func (p ModifyProfileParams) Validate() error {
	if p.Empty() {
		return invalid("", "No fields to update")
	}

	if p.DisplayName.IsSpecified() {
		if p.DisplayName.IsNull() {
			return invalid("displayName", "Display name is required")
		}
		name := strings.TrimSpace(p.DisplayName.MustGet())
		if name == "" {
			return invalid("displayName", "Display name is required")
		}
		if utf8.RuneCountInString(name) > maxDisplayNameLen {
			return invalid("displayName", "Display name must be at most 100 characters")
		}
	}
	if p.IsPublic.IsSpecified() && p.IsPublic.IsNull() {
		return invalid("isPublic", "Visibility must be true or false")
	}
	if tooLong(p.Bio, maxBioLen) {
		return invalid("bio", "Bio must be at most 500 characters")
	}
	for _, f := range []struct {
		name  string
		label string
		value nullable.Nullable[string]
	}{
		{"location", "Location", p.Location},
		{"phone", "Phone", p.Phone},
		{"avatarUrl", "Avatar URL", p.AvatarURL},
		{"website", "Website", p.Website},
	} {
		if tooLong(f.value, maxShortFieldLen) {
			return invalid(f.name, f.label+" must be at most 200 characters")
		}
	}
	for _, f := range []struct {
		name  string
		label string
		value nullable.Nullable[string]
	}{
		{"avatarUrl", "Avatar URL", p.AvatarURL},
		{"website", "Website", p.Website},
	} {
		if v, ok := present(f.value); ok && v != "" && !isHTTPURL(v) {
			return invalid(f.name, f.label+" must be an http(s) URL")
		}
	}
	return nil
}

func present(n nullable.Nullable[string]) (string, bool) {
	if !n.IsSpecified() || n.IsNull() {
		return "", false
	}
	return n.MustGet(), true
}

func tooLong(n nullable.Nullable[string], limit int) bool {
	v, ok := present(n)
	return ok && utf8.RuneCountInString(v) > limit
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ModifyProfile applies a partial update to the caller's own profile.
func (app *Application) ModifyProfile(ctx context.Context, id uuid.UUID, params ModifyProfileParams) (*Profile, error) {
	if id.IsNil() {
		return nil, ErrInvalidData
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.DisplayName.IsSpecified() {
		params.DisplayName.Set(strings.TrimSpace(params.DisplayName.MustGet()))
	}

	var updated *Profile
	err := app.writer.WithTimeoutTx(ctx, txTimeout, func(ctx context.Context, tx ProfileWriteTx) error {
		p, err := tx.ModifyProfile(ctx, id, params)
		if err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err == nil {
		if params.DisplayName.IsSpecified() {
			app.cache.Bump(ctx, cache.UserScope(id.String()), cache.ScopeReviewAuthors)
		}
		return updated, nil
	}
	if errors.Is(err, ErrProfileNotFound) {
		return nil, ErrProfileNotFound
	}
	if errors.Is(err, ErrInvalidData) {
		return nil, ErrInvalidData
	}
	slog.ErrorContext(ctx, "unexpected error", slog.Any("error", err))
	return nil, ErrUnhandled
}
