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
	"log/slog"

	"foodlog/modules/telemetry"

	"github.com/gofrs/uuid/v5"
)

const recomputeSavepoint = "rating_recompute"

// AverageRating is the arithmetic mean of ratings, 0 when there are none.
func AverageRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return float64(sum) / float64(len(ratings))
}

// RecomputeRating stores the mean rating of the restaurant in its own transaction.
func (app *Application) RecomputeRating(ctx context.Context, restaurantID uuid.UUID) error {
	err := app.writer.WithTimeoutTx(ctx, txTimeout, func(ctx context.Context, tx RestaurantWriteTx) error {
		return recompute(ctx, tx, restaurantID)
	})
	if err != nil {
		app.metrics.RecordRecompute(ctx, telemetry.OutcomeFailure)
		return err
	}
	app.metrics.RecordRecompute(ctx, telemetry.OutcomeSuccess)
	return nil
}

// recomputeInTx refreshes the rating inside tx. A failure rolls back to the
// savepoint only, so the caller's review mutation still commits.
func (app *Application) recomputeInTx(ctx context.Context, tx RestaurantWriteTx, restaurantID uuid.UUID) {
	err := tx.WithSavepoint(ctx, recomputeSavepoint, func(ctx context.Context) error {
		return recompute(ctx, tx, restaurantID)
	})
	if err != nil {
		app.metrics.RecordRecompute(ctx, telemetry.OutcomeFailure)
		slog.ErrorContext(ctx, "rating recompute failed",
			slog.String("restaurant_id", restaurantID.String()),
			slog.Any("error", err),
		)
		return
	}
	app.metrics.RecordRecompute(ctx, telemetry.OutcomeSuccess)
}

func recompute(ctx context.Context, tx RestaurantWriteTx, restaurantID uuid.UUID) error {
	ratings, err := tx.ReviewRatings(ctx, restaurantID)
	if err != nil {
		return err
	}
	return tx.SetRating(ctx, restaurantID, AverageRating(ratings))
}
