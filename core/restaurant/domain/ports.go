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

// RestaurantReadStore defines the port for read operations on restaurants,
// reviews and lists. Listings return the window b ordered by
// (created_at DESC, id DESC) and the total count of the filter.
type RestaurantReadStore interface {
	// GetRestaurant loads a restaurant with its tags.
	// Returns ErrRestaurantNotFound when no row matches.
	GetRestaurant(ctx context.Context, id uuid.UUID) (*Restaurant, error)
	ListRestaurants(ctx context.Context, f RestaurantFilter, b pagination.Bounds) ([]Restaurant, int, error)

	// GetReview returns ErrReviewNotFound when no row matches.
	GetReview(ctx context.Context, id uuid.UUID) (*Review, error)
	ListReviews(ctx context.Context, f ReviewFilter, b pagination.Bounds) ([]Review, int, error)

	ListLists(ctx context.Context, f ListFilter, b pagination.Bounds) ([]List, int, error)

	// RestaurantIDs returns every restaurant id.
	RestaurantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// RestaurantWriteStore defines the port for write operations. Methods run
// without an implicit transaction; WithTx groups them.
type RestaurantWriteStore interface {
	RestaurantWriteTx

	WithTx(ctx context.Context, fn func(ctx context.Context, tx RestaurantWriteTx) error) error
	WithTimeoutTx(ctx context.Context, timeout time.Duration, fn func(ctx context.Context, tx RestaurantWriteTx) error) error
}

// RestaurantWriteTx is a transaction-scoped version of RestaurantWriteStore.
// It is not safe for concurrent use.
type RestaurantWriteTx interface {
	// CreateRestaurant inserts r and links the existing tags named in r.Tags.
	// Unknown tag names are ignored.
	CreateRestaurant(ctx context.Context, r NewRestaurant) (*Restaurant, error)

	// InsertReview returns ErrDuplicateReview when userID already reviewed the
	// restaurant and ErrRestaurantNotFound when the restaurant does not exist.
	InsertReview(ctx context.Context, restaurantID, userID uuid.UUID, in ReviewInput) (*Review, error)

	// UpdateReview and DeleteReview only touch reviews authored by userID and
	// return ErrReviewNotFound otherwise.
	UpdateReview(ctx context.Context, id, userID uuid.UUID, in ReviewInput) (*Review, error)
	DeleteReview(ctx context.Context, id, userID uuid.UUID) (restaurantID uuid.UUID, err error)

	// ReviewRatings locks the restaurant row for the rest of the transaction
	// and returns the ratings of all its reviews.
	ReviewRatings(ctx context.Context, restaurantID uuid.UUID) ([]int, error)
	// SetRating returns ErrRestaurantNotFound when no row matches.
	SetRating(ctx context.Context, restaurantID uuid.UUID, rating float64) error

	// WithSavepoint runs fn so that its failure does not abort the
	// surrounding transaction.
	WithSavepoint(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

// Metrics records aggregator outcomes, see telemetry.DomainMetrics.
type Metrics interface {
	RecordRecompute(ctx context.Context, outcome string)
	RecordReconcile(ctx context.Context, outcome string)
}
