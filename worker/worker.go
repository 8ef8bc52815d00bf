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

// Package worker runs background work: bounded pools for batches and
// periodic loops for scheduled jobs.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

type Worker[Job any] func(context.Context, Job)

// BlockingPool runs worker over jobs with at most size goroutines and blocks
// until jobs is closed and drained, or ctx is cancelled.
//
// The caller must ensure that jobs eventually gets closed or ctx gets cancelled.
// A panicking job is logged and skipped; its goroutine keeps pulling jobs.
func BlockingPool[Job any](ctx context.Context, size int, jobs <-chan Job, worker Worker[Job]) {
	if size <= 0 {
		size = 1
	}
	wg := sync.WaitGroup{}
	for range size {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case job, ok := <-jobs:
					if !ok {
						return
					}
					runJob(ctx, worker, job)
				}
			}
		})
	}

	wg.Wait()
}

func runJob[Job any](ctx context.Context, worker Worker[Job], job Job) {
	// wg.Go requires that func does not panic
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "worker: job panicked", slog.String("panic", fmt.Sprint(r)))
		}
	}()
	worker(ctx, job)
}

// Feed sends items on the returned channel and closes it once all are sent
// or ctx is cancelled.
func Feed[Job any](ctx context.Context, items []Job) <-chan Job {
	jobs := make(chan Job)
	go func() {
		defer close(jobs)
		for _, item := range items {
			select {
			case jobs <- item:
			case <-ctx.Done():
				return
			}
		}
	}()
	return jobs
}
