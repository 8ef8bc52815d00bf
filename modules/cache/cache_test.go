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

package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
	fail error
}

func (m *memKV) AtomicGet(_ context.Context, key string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (m *memKV) AtomicSet(_ context.Context, key string, value any) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	prev, ok := m.data[key]
	m.data[key] = value.([]byte)
	if !ok {
		return nil, nil
	}
	return prev, nil
}

type memCounter struct {
	mu sync.Mutex
	n  map[string]int64
}

func (c *memCounter) Get(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n[key], nil
}

func (c *memCounter) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n[key]++
	return c.n[key], nil
}

type countingRecorder map[string]int

func (r countingRecorder) RecordCache(_ context.Context, outcome string) { r[outcome]++ }

type page struct {
	Names []string `json:"names"`
}

func newTestCache(t *testing.T) (*ListingCache, *memKV, countingRecorder) {
	t.Helper()
	kv := &memKV{data: map[string][]byte{}}
	rec := countingRecorder{}
	return New(kv, &memCounter{n: map[string]int64{}}, WithRecorder(rec)), kv, rec
}

func TestLoad_HitAfterMiss(t *testing.T) {
	c, _, rec := newTestCache(t)
	ctx := context.Background()
	calls := 0
	load := func(context.Context) (page, error) {
		calls++
		return page{Names: []string{"Pho 24"}}, nil
	}

	for range 2 {
		got, err := Load(ctx, c, []string{ScopeRestaurants}, "o:12:1", load)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if len(got.Names) != 1 || got.Names[0] != "Pho 24" {
			t.Fatalf("got %+v", got)
		}
	}
	if calls != 1 {
		t.Fatalf("loader calls = %d, want 1", calls)
	}
	if rec[OutcomeMiss] != 1 || rec[OutcomeHit] != 1 {
		t.Fatalf("recorder = %v", rec)
	}
}

func TestLoad_BumpInvalidatesScope(t *testing.T) {
	c, _, _ := newTestCache(t)
	ctx := context.Background()
	calls := 0
	load := func(context.Context) (page, error) {
		calls++
		return page{}, nil
	}
	scopes := []string{ScopeRestaurants, RestaurantScope("r1")}

	_, _ = Load(ctx, c, scopes, "k", load)
	c.Bump(ctx, UserScope("u1"))
	_, _ = Load(ctx, c, scopes, "k", load)
	if calls != 1 {
		t.Fatalf("unrelated bump reloaded: calls = %d", calls)
	}

	c.Bump(ctx, RestaurantScope("r1"))
	_, _ = Load(ctx, c, scopes, "k", load)
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestLoad_StoreFailureFallsThrough(t *testing.T) {
	c, kv, rec := newTestCache(t)
	kv.fail = errors.New("connection refused")

	got, err := Load(context.Background(), c, nil, "k", func(context.Context) (page, error) {
		return page{Names: []string{"a"}}, nil
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Names) != 1 {
		t.Fatalf("got %+v", got)
	}
	if rec[OutcomeError] != 2 {
		t.Fatalf("errors recorded = %d, want 2 (get and set)", rec[OutcomeError])
	}
}

func TestLoad_LoaderErrorNotCached(t *testing.T) {
	c, kv, _ := newTestCache(t)
	boom := errors.New("boom")

	_, err := Load(context.Background(), c, nil, "k", func(context.Context) (page, error) {
		return page{}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if len(kv.data) != 0 {
		t.Fatalf("stored %d entries after failure", len(kv.data))
	}
}

func TestLoad_NilCacheCallsLoader(t *testing.T) {
	var c *ListingCache
	got, err := Load(context.Background(), c, nil, "k", func(context.Context) (int, error) {
		return 7, nil
	})
	if err != nil || got != 7 {
		t.Fatalf("got %d, %v", got, err)
	}
	c.Bump(context.Background(), ScopeRestaurants)
}
