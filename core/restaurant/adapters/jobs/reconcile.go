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

// Package jobs schedules the background work of the restaurant context.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"foodlog/core/restaurant/domain"
	"foodlog/modules/db/redis/locking"
	"foodlog/worker"
)

const ReconcileLockName = "ratings.reconcile"

type (
	// Reconciler is satisfied by *domain.Application.
	Reconciler interface {
		ReconcileRatings(ctx context.Context, workers int) (domain.ReconcileReport, error)
	}

	// Executor runs a task while holding a cluster wide lock,
	// e.g. *locking.LockingTaskExecutor.
	Executor interface {
		Execute(ctx context.Context, cfg locking.LockConfiguration, task locking.TaskFunc) error
	}

	ReconcileConfig struct {
		Interval       time.Duration
		Workers        int
		LockAtMostFor  time.Duration
		LockAtLeastFor time.Duration
	}

	// ReconcileJob periodically recomputes every restaurant rating. Only the
	// node holding the lock runs a given round.
	ReconcileJob struct {
		app  Reconciler
		exec Executor
		cfg  ReconcileConfig
	}
)

func NewReconcileJob(app Reconciler, exec Executor, cfg ReconcileConfig) *ReconcileJob {
	return &ReconcileJob{app: app, exec: exec, cfg: cfg}
}

// Run blocks until ctx is cancelled.
func (j *ReconcileJob) Run(ctx context.Context) {
	slog.InfoContext(ctx, "reconcile job started", slog.Duration("interval", j.cfg.Interval))
	worker.Every(ctx, j.cfg.Interval, func(ctx context.Context) {
		if err := j.RunOnce(ctx); err != nil && ctx.Err() == nil {
			slog.ErrorContext(ctx, "reconcile round failed", slog.Any("error", err))
		}
	})
	slog.InfoContext(ctx, "reconcile job stopped")
}

// RunOnce runs a single round. Losing the lock race is not an error.
func (j *ReconcileJob) RunOnce(ctx context.Context) error {
	lock := locking.LockConfiguration{
		Name:           ReconcileLockName,
		LockAtMostFor:  j.cfg.LockAtMostFor,
		LockAtLeastFor: j.cfg.LockAtLeastFor,
	}
	err := j.exec.Execute(ctx, lock, func(ctx context.Context) error {
		_, err := j.app.ReconcileRatings(ctx, j.cfg.Workers)
		return err
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, locking.ErrLockNotAcquired):
		slog.DebugContext(ctx, "reconcile skipped, lock held elsewhere")
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		return err
	}
}
