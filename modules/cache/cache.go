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

// Package cache keeps rendered listing pages in a key-value store.
//
// Entries are never deleted. Every key embeds the current generation of the
// scopes it depends on; Bump moves a scope to a new generation so older
// entries stop being addressed and expire on their own TTL.
package cache

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"foodlog/modules/db"
)

const (
	OutcomeHit   = "hit"
	OutcomeMiss  = "miss"
	OutcomeError = "error"

	// ScopeRestaurants covers every restaurant listing and search.
	ScopeRestaurants = "restaurants"
	// ScopeReviewAuthors covers listings that embed an author's display name.
	ScopeReviewAuthors = "review-authors"
)

type (
	Config struct {
		Enabled bool          `env:"ENABLED" envDefault:"true"`
		TTL     time.Duration `env:"TTL"     envDefault:"5m"`
		Prefix  string        `env:"PREFIX"  envDefault:"foodlog:listing"`
	}

	// Generations is a counter store, see counter.RedisCounter.
	Generations interface {
		Get(ctx context.Context, key string) (int64, error)
		Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	}

	Recorder interface {
		RecordCache(ctx context.Context, outcome string)
	}

	// ListingCache is safe for concurrent use. A nil *ListingCache disables caching.
	ListingCache struct {
		kv       db.KV
		gens     Generations
		recorder Recorder
	}

	Option func(*ListingCache)

	noopRecorder struct{}
)

func (noopRecorder) RecordCache(context.Context, string) {}

func WithRecorder(r Recorder) Option {
	return func(c *ListingCache) {
		if r != nil {
			c.recorder = r
		}
	}
}

func New(kv db.KV, gens Generations, opts ...Option) *ListingCache {
	c := &ListingCache{
		kv:       kv,
		gens:     gens,
		recorder: noopRecorder{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func RestaurantScope(id string) string { return "restaurant:" + id }

func UserScope(id string) string { return "user:" + id }

// Load returns the entry stored for key under scopes, or calls load and stores
// its result. Store failures fall through to load.
func Load[T any](ctx context.Context, c *ListingCache, scopes []string, key string, load func(ctx context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}

	store := db.NewJSONKV[T](c.kv)

	fullKey, err := c.versionedKey(ctx, scopes, key)
	if err != nil {
		c.fail(ctx, "cache: read generations", err)
		return load(ctx)
	}

	cached, err := store.Get(ctx, fullKey)
	switch {
	case err != nil:
		c.fail(ctx, "cache: get", err)
	case cached != nil:
		c.recorder.RecordCache(ctx, OutcomeHit)
		return *cached, nil
	default:
		c.recorder.RecordCache(ctx, OutcomeMiss)
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if _, err := store.Set(ctx, fullKey, v); err != nil {
		c.fail(ctx, "cache: set", err)
	}
	return v, nil
}

// Bump invalidates every entry that depends on one of scopes.
func (c *ListingCache) Bump(ctx context.Context, scopes ...string) {
	if c == nil {
		return
	}
	for _, s := range scopes {
		if _, err := c.gens.Incr(ctx, generationKey(s), 0); err != nil {
			c.fail(ctx, "cache: bump generation", err, slog.String("scope", s))
		}
	}
}

func (c *ListingCache) versionedKey(ctx context.Context, scopes []string, key string) (string, error) {
	var b strings.Builder
	for _, s := range scopes {
		gen, err := c.gens.Get(ctx, generationKey(s))
		if err != nil {
			return "", err
		}
		b.WriteString(s)
		b.WriteByte('@')
		b.WriteString(strconv.FormatInt(gen, 10))
		b.WriteByte('|')
	}
	b.WriteString(key)
	return b.String(), nil
}

func (c *ListingCache) fail(ctx context.Context, msg string, err error, attrs ...any) {
	c.recorder.RecordCache(ctx, OutcomeError)
	slog.WarnContext(ctx, msg, append(attrs, slog.Any("error", err))...)
}

func generationKey(scope string) string {
	return "gen:" + scope
}
