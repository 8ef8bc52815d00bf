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
	"fmt"
	"log/slog"
	"strings"

	"foodlog/modules/telemetry"

	"github.com/gofrs/uuid/v5"
)

const (
	CodePrefix         = "FL"
	DefaultDisplayName = "Foodie"

	maxCodeNumber     = 999999
	provisionAttempts = 3
)

// FormatCode renders the n-th profile code, e.g. 42 -> FL000042.
func FormatCode(n int64) (string, error) {
	if n < 1 || n > maxCodeNumber {
		return "", fmt.Errorf("%w: %d", ErrCodeExhausted, n)
	}
	return fmt.Sprintf("%s%06d", CodePrefix, n), nil
}

// DisplayNameFromEmail returns the local part of email, or DefaultDisplayName.
func DisplayNameFromEmail(email string) string {
	local, _, ok := strings.Cut(strings.TrimSpace(email), "@")
	if !ok || local == "" {
		return DefaultDisplayName
	}
	return local
}

// EnsureProfileExists makes sure userID owns a profile, creating a public one
// with a freshly allocated code when absent. It reports whether the profile
// exists afterwards; errors are logged, never returned.
func (app *Application) EnsureProfileExists(ctx context.Context, userID uuid.UUID, email string) bool {
	if userID.IsNil() {
		return false
	}

	_, err := app.reader.GetProfileByID(ctx, userID)
	if err == nil {
		app.metrics.RecordProvision(ctx, telemetry.OutcomeExisting)
		return true
	}
	if !errors.Is(err, ErrProfileNotFound) {
		app.provisionFailed(ctx, userID, err)
		return false
	}

	for attempt := 1; attempt <= provisionAttempts; attempt++ {
		var created bool
		err = app.writer.WithTimeoutTx(ctx, txTimeout, func(ctx context.Context, tx ProfileWriteTx) error {
			n, err := tx.NextCodeNumber(ctx)
			if err != nil {
				return err
			}
			code, err := FormatCode(n)
			if err != nil {
				return err
			}
			created, err = tx.InsertProfile(ctx, NewProfile{
				ID:          userID,
				Code:        code,
				DisplayName: DisplayNameFromEmail(email),
				IsPublic:    true,
			})
			return err
		})
		if err == nil {
			outcome := telemetry.OutcomeSuccess
			if !created {
				outcome = telemetry.OutcomeExisting
			}
			app.metrics.RecordProvision(ctx, outcome)
			return true
		}
		if !errors.Is(err, ErrDuplicateCode) {
			break
		}
		slog.WarnContext(ctx, "profile code collision, retrying",
			slog.String("user_id", userID.String()),
			slog.Int("attempt", attempt),
		)
	}

	app.provisionFailed(ctx, userID, err)
	return false
}

func (app *Application) provisionFailed(ctx context.Context, userID uuid.UUID, err error) {
	app.metrics.RecordProvision(ctx, telemetry.OutcomeFailure)
	slog.ErrorContext(ctx, "profile provisioning failed",
		slog.String("user_id", userID.String()),
		slog.Any("error", err),
	)
}
