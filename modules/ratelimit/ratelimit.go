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


// Package ratelimit keeps per-caller request budgets for the API. Budgets are
// counted per Scope so a caller spending their review-writing allowance does
// not eat into their browsing allowance.
package ratelimit

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
)

type (
	// Scope names the budget a key is counted against, e.g.
	// "POST /api/restaurants/{id}/reviews" or "default".
	Scope string

	LimiterFactory func(scope Scope, limit int64, window time.Duration) RateLimiter

	// RateLimiter enforces time-based limits such as "10 reviews per minute".
	RateLimiter interface {
		Allow(ctx context.Context, key Key) (Result, error)
	}

	// Key identifies who is being limited, see CallerKey and AddrKey.
	Key string

	Result struct {
		Allowed       bool
		Remaining     int64
		RetryAfter    time.Duration // zero when allowed
		Limit         int64
		Window        time.Duration
		WindowResetIn time.Duration
	}

	// Recorder observes decisions per scope.
	Recorder interface {
		RecordRateLimit(ctx context.Context, scope string, allowed bool)
	}
)

const DefaultScope Scope = "default"

// RouteScope is the scope of an explicit policy on a ServeMux pattern.
func RouteScope(method, pattern string) Scope {
	return Scope(method + " " + pattern)
}

// CallerKey keys an authenticated user.
func CallerKey(id uuid.UUID) Key {
	return Key("user:" + id.String())
}

// AddrKey keys an anonymous client by its network address.
func AddrKey(host string) Key {
	return Key("ip:" + host)
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds for the Retry-After header.
func (r Result) RetryAfterSeconds() int64 {
	if r.Allowed || r.RetryAfter <= 0 {
		return 0
	}
	return int64((r.RetryAfter + time.Second - 1) / time.Second)
}
