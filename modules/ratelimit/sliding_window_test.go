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

package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"foodlog/modules/clock"
)

type memCounter struct {
	mu sync.Mutex
	n  map[string]int64
}

func (c *memCounter) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n[key]++
	return c.n[key], nil
}

func (c *memCounter) Get(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n[key], nil
}

func TestSlidingWindow_LimitWithinWindow(t *testing.T) {
	clk := &clock.Fixed{T: time.Unix(600, 0)}
	limiter := SlidingWindowFactory(clk, &memCounter{n: map[string]int64{}}, "rl")(DefaultScope, 2, time.Minute)
	ctx := context.Background()

	want := []struct {
		allowed   bool
		remaining int64
	}{
		{true, 1},
		{true, 0},
		{false, 0},
	}
	for i, w := range want {
		res, err := limiter.Allow(ctx, "ip:192.0.2.1")
		if err != nil {
			t.Fatalf("Allow #%d: %v", i, err)
		}
		if res.Allowed != w.allowed || res.Remaining != w.remaining {
			t.Fatalf("Allow #%d = %+v, want allowed=%v remaining=%d", i, res, w.allowed, w.remaining)
		}
	}

	res, _ := limiter.Allow(ctx, "ip:192.0.2.2")
	if !res.Allowed {
		t.Fatal("other keys must not share the budget")
	}
}

func TestSlidingWindow_RetryAfterWhenDenied(t *testing.T) {
	clk := &clock.Fixed{T: time.Unix(600, 0).Add(20 * time.Second)}
	limiter := SlidingWindowFactory(clk, &memCounter{n: map[string]int64{}}, "rl")(DefaultScope, 1, time.Minute)

	_, _ = limiter.Allow(context.Background(), "k")
	res, err := limiter.Allow(context.Background(), "k")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if res.Allowed {
		t.Fatal("second request allowed")
	}
	if res.RetryAfter != 40*time.Second {
		t.Fatalf("RetryAfter = %v, want 40s", res.RetryAfter)
	}
}

func TestSlidingWindow_PreviousWindowDecays(t *testing.T) {
	clk := &clock.Fixed{T: time.Unix(600, 0)}
	limiter := SlidingWindowFactory(clk, &memCounter{n: map[string]int64{}}, "rl")(DefaultScope, 2, time.Minute)
	ctx := context.Background()

	for range 3 {
		_, _ = limiter.Allow(ctx, "k")
	}

	// 45s into the next window the previous 3 hits weigh 3/4
	clk.Advance(time.Minute + 45*time.Second)
	res, err := limiter.Allow(ctx, "k")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !res.Allowed || res.Remaining != 0 {
		t.Fatalf("got %+v, want allowed with 0 remaining", res)
	}

	clk.Advance(2 * time.Minute)
	res, _ = limiter.Allow(ctx, "k")
	if !res.Allowed || res.Remaining != 1 {
		t.Fatalf("after idle windows got %+v", res)
	}
}

func TestSlidingWindow_ScopesKeepSeparateBudgets(t *testing.T) {
	clk := &clock.Fixed{T: time.Unix(600, 0)}
	factory := SlidingWindowFactory(clk, &memCounter{n: map[string]int64{}}, "rl")
	writes := factory(RouteScope("POST", "/api/restaurants/{id}/reviews"), 1, time.Minute)
	reads := factory(DefaultScope, 1, time.Minute)
	ctx := context.Background()

	if res, _ := writes.Allow(ctx, "user:a"); !res.Allowed {
		t.Fatal("first write denied")
	}
	if res, _ := reads.Allow(ctx, "user:a"); !res.Allowed {
		t.Fatal("read budget was spent by a write")
	}
	if res, _ := writes.Allow(ctx, "user:a"); res.Allowed {
		t.Fatal("second write allowed")
	}
}

type decisions struct {
	allowed, denied map[string]int
}

func (d *decisions) RecordRateLimit(_ context.Context, scope string, allowed bool) {
	if allowed {
		d.allowed[scope]++
	} else {
		d.denied[scope]++
	}
}

func TestSlidingWindow_RecordsDecisions(t *testing.T) {
	rec := &decisions{allowed: map[string]int{}, denied: map[string]int{}}
	scope := RouteScope("PUT", "/api/reviews/{id}")
	limiter := SlidingWindowFactory(&clock.Fixed{T: time.Unix(600, 0)}, &memCounter{n: map[string]int64{}}, "rl",
		WithRecorder(rec))(scope, 1, time.Minute)

	for range 3 {
		_, _ = limiter.Allow(context.Background(), "user:a")
	}
	if rec.allowed[string(scope)] != 1 || rec.denied[string(scope)] != 2 {
		t.Fatalf("allowed=%v denied=%v", rec.allowed, rec.denied)
	}
}

type downCounter struct{}

func (downCounter) Incr(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("connection refused")
}

func (downCounter) Get(context.Context, string) (int64, error) { return 0, nil }

func TestSlidingWindow_CounterError(t *testing.T) {
	limiter := SlidingWindowFactory(&clock.Fixed{T: time.Unix(600, 0)}, downCounter{}, "rl")(DefaultScope, 1, time.Minute)
	if _, err := limiter.Allow(context.Background(), "k"); err == nil {
		t.Fatal("expected the counter error")
	}
}

func TestResult_RetryAfterSeconds(t *testing.T) {
	tests := []struct {
		res  Result
		want int64
	}{
		{Result{Allowed: true, RetryAfter: time.Second}, 0},
		{Result{RetryAfter: 40 * time.Second}, 40},
		{Result{RetryAfter: 1500 * time.Millisecond}, 2},
		{Result{}, 0},
	}
	for _, tt := range tests {
		if got := tt.res.RetryAfterSeconds(); got != tt.want {
			t.Errorf("%+v: got %d, want %d", tt.res, got, tt.want)
		}
	}
}
