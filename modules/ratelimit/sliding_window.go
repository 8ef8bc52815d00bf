// Copyright 2025 Nhat-Nguyen Nguyen
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
	"fmt"
	"math"
	"math/bits"
	"time"

	"foodlog/modules/clock"
)

var _ RateLimiter = (*SlidingWindowRateLimiter)(nil)

// SlidingWindowRateLimiter approximates a rolling window with two fixed
// buckets: the current one counts fully, the previous one by how much of it
// still overlaps the rolling window.
type SlidingWindowRateLimiter struct {
	clock     clock.Clock
	counter   CounterStore
	keyPrefix string
	scope     Scope
	recorder  Recorder

	limit  uint64
	window time.Duration
}

type Option func(*SlidingWindowRateLimiter)

func WithRecorder(r Recorder) Option {
	return func(s *SlidingWindowRateLimiter) {
		s.recorder = r
	}
}

func SlidingWindowFactory(clk clock.Clock, counter CounterStore, keyPrefix string, opts ...Option) LimiterFactory {
	return func(scope Scope, limit int64, window time.Duration) RateLimiter {
		s := &SlidingWindowRateLimiter{
			clock:     clk,
			counter:   counter,
			keyPrefix: keyPrefix,
			scope:     scope,
			limit:     uint64(max(limit, 0)),
			window:    window,
		}
		for _, opt := range opts {
			opt(s)
		}
		return s
	}
}

// Allow counts the request against key and reports whether it fits the budget.
// A denied request is still counted.
func (s *SlidingWindowRateLimiter) Allow(ctx context.Context, key Key) (Result, error) {
	now := s.clock.Now().UnixNano()
	window := s.window.Nanoseconds()
	idx := now / window

	cur, err := s.counter.Incr(ctx, s.bucket(key, idx), 2*s.window)
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit %s: %w", s.scope, err)
	}
	prev, err := s.counter.Get(ctx, s.bucket(key, idx-1))
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit %s: %w", s.scope, err)
	}

	elapsed := min(max(now-idx*window, 0), window)
	w := uint64(window)
	usage := mul(uint64(max(cur, 0)), w).add(mul(uint64(max(prev, 0)), uint64(window-elapsed)))

	res := Result{
		Allowed:       usage.atMost(mul(s.limit, w)),
		Limit:         int64(s.limit),
		Window:        s.window,
		WindowResetIn: time.Duration(window - elapsed),
	}
	if used := usage.ceilDiv(w); used < s.limit {
		res.Remaining = int64(s.limit - used)
	}
	if !res.Allowed {
		res.RetryAfter = res.WindowResetIn
	}

	if s.recorder != nil {
		s.recorder.RecordRateLimit(ctx, string(s.scope), res.Allowed)
	}
	return res, nil
}

func (s *SlidingWindowRateLimiter) bucket(key Key, idx int64) string {
	return fmt.Sprintf("%s:%s:%s:%d", s.keyPrefix, s.scope, key, idx)
}

// u128 holds request counts scaled by nanoseconds. Integer math keeps two
// consecutive requests from rounding to the same remaining budget.
type u128 struct{ hi, lo uint64 }

func mul(a, b uint64) u128 {
	hi, lo := bits.Mul64(a, b)
	return u128{hi, lo}
}

func (x u128) add(y u128) u128 {
	lo, carry := bits.Add64(x.lo, y.lo, 0)
	hi, _ := bits.Add64(x.hi, y.hi, carry)
	return u128{hi, lo}
}

func (x u128) atMost(y u128) bool {
	return x.hi < y.hi || (x.hi == y.hi && x.lo <= y.lo)
}

// ceilDiv saturates when the quotient does not fit in 64 bits.
func (x u128) ceilDiv(d uint64) uint64 {
	if x.hi >= d {
		return math.MaxUint64
	}
	q, r := bits.Div64(x.hi, x.lo, d)
	if r != 0 && q != math.MaxUint64 {
		q++
	}
	return q
}
