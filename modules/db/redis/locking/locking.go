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

package locking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"foodlog/modules/clock"

	"github.com/redis/rueidis/rueidislock"
)

var (
	// ErrLockNotAcquired: try-once mode and another node holds the lock.
	ErrLockNotAcquired = errors.New("locking: lock not acquired")

	ErrInvalidConfiguration = errors.New("locking: invalid lock configuration")
)

type (
	TaskFunc func(ctx context.Context) error

	// Locker is the subset of rueidislock.Locker the executor needs.
	Locker interface {
		WithContext(ctx context.Context, name string) (context.Context, context.CancelFunc, error)
		TryWithContext(ctx context.Context, name string) (context.Context, context.CancelFunc, error)
	}

	// LockConfiguration describes one scheduled job.
	//
	//   - Name: lock name, e.g. "ratings.reconcile"
	//   - LockAtMostFor: deadline put on the task context
	//   - LockAtLeastFor: minimum hold time once acquired, so fast runs on
	//     several nodes do not repeat the job back to back
	LockConfiguration struct {
		Name           string
		LockAtMostFor  time.Duration
		LockAtLeastFor time.Duration
	}

	// LockingTaskExecutor runs a task on at most one node at a time.
	LockingTaskExecutor struct {
		locker Locker
		logger *slog.Logger
		clock  clock.Clock

		// block on WithContext instead of a single TryWithContext
		waitForLock    bool
		acquireTimeout time.Duration

		namePrefix string
	}

	Option func(*LockingTaskExecutor)
)

var _ Locker = (rueidislock.Locker)(nil)

func WithLogger(l *slog.Logger) Option {
	return func(e *LockingTaskExecutor) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithWaitForLock(wait bool) Option {
	return func(e *LockingTaskExecutor) {
		e.waitForLock = wait
	}
}

// WithAcquireTimeout bounds the wait in blocking mode.
func WithAcquireTimeout(d time.Duration) Option {
	return func(e *LockingTaskExecutor) {
		e.acquireTimeout = d
	}
}

// WithNamePrefix: "jobs:" + "ratings.reconcile" => "jobs:ratings.reconcile".
func WithNamePrefix(prefix string) Option {
	return func(e *LockingTaskExecutor) {
		e.namePrefix = prefix
	}
}

func WithClock(c clock.Clock) Option {
	return func(e *LockingTaskExecutor) {
		if c != nil {
			e.clock = c
		}
	}
}

func NewLockingTaskExecutor(locker Locker, opts ...Option) *LockingTaskExecutor {
	e := &LockingTaskExecutor{
		locker: locker,
		logger: slog.Default(),
		clock:  clock.RealClock{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Execute acquires cfg.Name and runs task under it. The lock is released when
// Execute returns, but not before LockAtLeastFor has elapsed since the task started.
func (e *LockingTaskExecutor) Execute(ctx context.Context, cfg LockConfiguration, task TaskFunc) error {
	if task == nil {
		return errors.New("locking: task must not be nil")
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	lockName := e.namePrefix + cfg.Name
	log := e.logger.With(slog.String("lock.name", lockName))

	lockCtx, release, err := e.acquire(ctx, lockName)
	if err != nil {
		if errors.Is(err, ErrLockNotAcquired) {
			log.DebugContext(ctx, "locking: lock held by another node")
		}
		return err
	}
	defer release()

	taskCtx, cancel := context.WithCancel(lockCtx)
	if cfg.LockAtMostFor > 0 {
		cancel()
		taskCtx, cancel = context.WithTimeout(lockCtx, cfg.LockAtMostFor)
	}
	defer cancel()

	start := e.clock.Now()
	err = task(taskCtx)
	log.InfoContext(ctx, "locking: task finished",
		slog.Duration("task.duration", e.clock.Now().Sub(start)),
		slog.Any("task.error", err),
	)

	if hold := start.Add(cfg.LockAtLeastFor).Sub(e.clock.Now()); cfg.LockAtLeastFor > 0 && hold > 0 {
		timer := time.NewTimer(hold)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
		case <-lockCtx.Done():
			// lost the lock externally
		}
	}

	return err
}

func (e *LockingTaskExecutor) acquire(ctx context.Context, name string) (context.Context, context.CancelFunc, error) {
	if !e.waitForLock {
		lockCtx, release, err := e.locker.TryWithContext(ctx, name)
		switch {
		case err == nil:
			return lockCtx, release, nil
		case errors.Is(err, rueidislock.ErrNotLocked):
			return nil, nil, ErrLockNotAcquired
		default:
			return nil, nil, fmt.Errorf("locking: try-acquire %q: %w", name, err)
		}
	}

	acquireCtx := ctx
	if e.acquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, e.acquireTimeout)
		defer cancel()
	}

	lockCtx, release, err := e.locker.WithContext(acquireCtx, name)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("locking: acquire %q: %w", name, err)
	}
	return lockCtx, release, nil
}

func validateConfig(cfg LockConfiguration) error {
	switch {
	case cfg.Name == "":
		return fmt.Errorf("%w: lock name must not be empty", ErrInvalidConfiguration)
	case cfg.LockAtMostFor < 0 || cfg.LockAtLeastFor < 0:
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidConfiguration)
	case cfg.LockAtMostFor > 0 && cfg.LockAtLeastFor > cfg.LockAtMostFor:
		return fmt.Errorf("%w: lockAtLeastFor (%s) > lockAtMostFor (%s)",
			ErrInvalidConfiguration, cfg.LockAtLeastFor, cfg.LockAtMostFor)
	}
	return nil
}
