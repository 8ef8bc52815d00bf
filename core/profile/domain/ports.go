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
	"time"

	"foodlog/modules/pagination"

	"github.com/gofrs/uuid/v5"
)

// ProfileReadStore defines the port for read operations on profiles.
//
// Implementations should be bound to a read-replica connection. Every
// returned Profile carries its derived Stats.
type ProfileReadStore interface {
	// GetProfileByID returns ErrProfileNotFound when no row matches.
	GetProfileByID(ctx context.Context, id uuid.UUID) (*Profile, error)

	// GetProfileByCode returns ErrProfileNotFound when no row matches.
	GetProfileByCode(ctx context.Context, code string) (*Profile, error)

	// SearchPublicProfiles returns the window b of public profiles whose
	// display name contains q (case-insensitive) or whose code equals q,
	// ordered by (created_at DESC, id DESC), and the total match count.
	// An empty q matches every public profile.
	SearchPublicProfiles(ctx context.Context, q string, b pagination.Bounds) ([]Profile, int, error)
}

// ProfileWriteStore defines the port for write operations on profiles.
//
// Methods run without an implicit transaction; WithTx groups them.
type ProfileWriteStore interface {
	ProfileWriteTx

	WithTx(ctx context.Context, fn func(ctx context.Context, tx ProfileWriteTx) error) error
	// WithTimeoutTx is the same as WithTx but applies a context timeout before starting the transaction.
	WithTimeoutTx(ctx context.Context, timeout time.Duration, fn func(ctx context.Context, tx ProfileWriteTx) error) error
}

// ProfileWriteTx is a transaction-scoped version of ProfileWriteStore.
// It is not safe for concurrent use.
type ProfileWriteTx interface {
	// NextCodeNumber draws the next value of the profile code sequence.
	NextCodeNumber(ctx context.Context) (int64, error)

	// InsertProfile creates p unless a profile with the same id exists.
	// created is false when the row was already there.
	// Returns ErrDuplicateCode when p.Code is taken by another profile.
	InsertProfile(ctx context.Context, p NewProfile) (created bool, err error)

	// ModifyProfile applies params and returns the updated profile.
	// Returns ErrProfileNotFound when no row matches id.
	ModifyProfile(ctx context.Context, id uuid.UUID, params ModifyProfileParams) (*Profile, error)
}

// Metrics records provisioning outcomes, see telemetry.DomainMetrics.
type Metrics interface {
	RecordProvision(ctx context.Context, outcome string)
}
