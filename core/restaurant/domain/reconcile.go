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
	"sync/atomic"
	"time"

	"foodlog/modules/cache"
	"foodlog/modules/telemetry"
	"foodlog/worker"

	"github.com/gofrs/uuid/v5"
)

// ReconcileRatings recomputes the rating of every restaurant with up to
// workers concurrent transactions. Restaurants deleted meanwhile are skipped.
func (app *Application) ReconcileRatings(ctx context.Context, workers int) (ReconcileReport, error) {
	start := time.Now()

	ids, err := app.reader.RestaurantIDs(ctx)
	if err != nil {
		app.metrics.RecordReconcile(ctx, telemetry.OutcomeFailure)
		return ReconcileReport{}, fmt.Errorf("list restaurants: %w", err)
	}

	var failed atomic.Int64
	worker.BlockingPool(ctx, workers, worker.Feed(ctx, ids), func(ctx context.Context, id uuid.UUID) {
		err := app.RecomputeRating(ctx, id)
		if err == nil || errors.Is(err, ErrRestaurantNotFound) {
			return
		}
		failed.Add(1)
		slog.WarnContext(ctx, "reconcile: recompute failed",
			slog.String("restaurant_id", id.String()),
			slog.Any("error", err),
		)
	})

	report := ReconcileReport{Restaurants: len(ids), Failed: int(failed.Load())}
	if report.Restaurants > 0 {
		app.cache.Bump(ctx, cache.ScopeRestaurants)
	}

	switch {
	case ctx.Err() != nil:
		err = ctx.Err()
	case report.Failed > 0:
		err = fmt.Errorf("reconcile: %d of %d restaurants failed", report.Failed, report.Restaurants)
	}
	if err != nil {
		app.metrics.RecordReconcile(ctx, telemetry.OutcomeFailure)
		return report, err
	}

	app.metrics.RecordReconcile(ctx, telemetry.OutcomeSuccess)
	slog.InfoContext(ctx, "ratings reconciled",
		slog.Int("restaurants", report.Restaurants),
		slog.Duration("took", time.Since(start)),
	)
	return report, nil
}
