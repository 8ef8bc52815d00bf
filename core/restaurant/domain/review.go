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

	"foodlog/modules/cache"

	"github.com/gofrs/uuid/v5"
)

func (app *Application) GetReview(ctx context.Context, id uuid.UUID) (*Review, error) {
	if id.IsNil() {
		return nil, ErrReviewNotFound
	}
	r, err := app.reader.GetReview(ctx, id)
	if err != nil {
		return nil, unhandled(ctx, err)
	}
	return r, nil
}

// CreateReview records userID's review of the restaurant and refreshes its rating.
func (app *Application) CreateReview(ctx context.Context, restaurantID, userID uuid.UUID, in ReviewInput) (*Review, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if restaurantID.IsNil() {
		return nil, ErrRestaurantNotFound
	}

	var review *Review
	err := app.writer.WithTimeoutTx(ctx, txTimeout, func(ctx context.Context, tx RestaurantWriteTx) error {
		r, err := tx.InsertReview(ctx, restaurantID, userID, in)
		if err != nil {
			return err
		}
		app.recomputeInTx(ctx, tx, restaurantID)
		review = r
		return nil
	})
	if err != nil {
		return nil, unhandled(ctx, err)
	}

	app.reviewChanged(ctx, restaurantID, userID)
	return review, nil
}

// UpdateReview replaces the author controlled fields of a review owned by userID.
func (app *Application) UpdateReview(ctx context.Context, id, userID uuid.UUID, in ReviewInput) (*Review, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if id.IsNil() {
		return nil, ErrReviewNotFound
	}

	var review *Review
	err := app.writer.WithTimeoutTx(ctx, txTimeout, func(ctx context.Context, tx RestaurantWriteTx) error {
		r, err := tx.UpdateReview(ctx, id, userID, in)
		if err != nil {
			return err
		}
		app.recomputeInTx(ctx, tx, r.RestaurantID)
		review = r
		return nil
	})
	if err != nil {
		return nil, unhandled(ctx, err)
	}

	app.reviewChanged(ctx, review.RestaurantID, userID)
	return review, nil
}

// DeleteReview removes a review owned by userID.
func (app *Application) DeleteReview(ctx context.Context, id, userID uuid.UUID) error {
	if id.IsNil() {
		return ErrReviewNotFound
	}

	var restaurantID uuid.UUID
	err := app.writer.WithTimeoutTx(ctx, txTimeout, func(ctx context.Context, tx RestaurantWriteTx) error {
		rid, err := tx.DeleteReview(ctx, id, userID)
		if err != nil {
			return err
		}
		app.recomputeInTx(ctx, tx, rid)
		restaurantID = rid
		return nil
	})
	if err != nil {
		return unhandled(ctx, err)
	}

	app.reviewChanged(ctx, restaurantID, userID)
	return nil
}

func (app *Application) reviewChanged(ctx context.Context, restaurantID, userID uuid.UUID) {
	app.cache.Bump(ctx,
		cache.ScopeRestaurants,
		cache.RestaurantScope(restaurantID.String()),
		cache.UserScope(userID.String()),
	)
}

// unhandled passes domain errors through and hides everything else behind ErrUnhandled.
func unhandled(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ErrRestaurantNotFound),
		errors.Is(err, ErrReviewNotFound),
		errors.Is(err, ErrDuplicateReview),
		errors.Is(err, ErrInvalidData):
		return err
	}
	slog.ErrorContext(ctx, "unexpected error", slog.Any("error", err))
	return ErrUnhandled
}
