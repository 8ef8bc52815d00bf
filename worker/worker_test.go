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

package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestBlockingPool_RunsEveryJob(t *testing.T) {
	ctx := context.Background()
	items := make([]int, 100)
	for i := range items {
		items[i] = i + 1
	}

	var sum atomic.Int64
	BlockingPool(ctx, 4, Feed(ctx, items), func(_ context.Context, n int) {
		sum.Add(int64(n))
	})

	if got := sum.Load(); got != 5050 {
		t.Fatalf("sum = %d, want 5050", got)
	}
}

func TestBlockingPool_SurvivesPanics(t *testing.T) {
	ctx := context.Background()

	var done atomic.Int64
	BlockingPool(ctx, 1, Feed(ctx, []int{1, 2, 3, 4}), func(_ context.Context, n int) {
		if n%2 == 0 {
			panic("even")
		}
		done.Add(1)
	})

	if got := done.Load(); got != 2 {
		t.Fatalf("completed = %d, want 2", got)
	}
}

func TestBlockingPool_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	jobs := make(chan int)

	finished := make(chan struct{})
	go func() {
		BlockingPool(ctx, 3, jobs, func(context.Context, int) {})
		close(finished)
	}()

	cancel()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("pool did not stop after cancel")
	}
}

func TestFeed_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	jobs := Feed(ctx, []int{1, 2, 3})

	<-jobs
	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-jobs:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("feed channel not closed after cancel")
		}
	}
}

func TestEvery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var (
		mu    sync.Mutex
		calls int
	)
	finished := make(chan struct{})
	go func() {
		Every(ctx, 5*time.Millisecond, func(context.Context) {
			mu.Lock()
			calls++
			n := calls
			mu.Unlock()
			if n == 3 {
				cancel()
			}
		})
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Every did not return after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestEvery_NonPositiveInterval(t *testing.T) {
	called := false
	Every(context.Background(), 0, func(context.Context) { called = true })
	if called {
		t.Fatal("fn called with zero interval")
	}
}
