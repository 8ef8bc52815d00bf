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

package counter

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"time"

	"foodlog/modules/ratelimit"

	"github.com/redis/rueidis"
)

var (
	_ ratelimit.CounterStore = (*RedisCounter)(nil)

	// KEYS[1] full key, ARGV[1] TTL in milliseconds applied when the counter is created.
	//go:embed incr_expr.lua
	atomicIncrLua string

	luaAtomicIncrWithTTL = rueidis.NewLuaScript(atomicIncrLua)
)

// RedisCounter stores integer counters. Rate limit windows and cache generations
// both live here.
type RedisCounter struct {
	client rueidis.Client
	prefix string
}

// NewRedisCounterStore namespaces keys as prefix + ":" + key when prefix is set.
func NewRedisCounterStore(client rueidis.Client, prefix string) *RedisCounter {
	if prefix != "" && prefix[len(prefix)-1] != ':' {
		prefix += ":"
	}
	return &RedisCounter{
		client: client,
		prefix: prefix,
	}
}

func (r *RedisCounter) buildKey(key string) string {
	return r.prefix + key
}

// Get returns 0 for a missing counter.
func (r *RedisCounter) Get(ctx context.Context, key string) (int64, error) {
	rr := r.client.Do(ctx, r.client.B().Get().Key(r.buildKey(key)).Build())
	bs, err := rr.AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis counter get: %w", err)
	}

	n, err := strconv.ParseInt(string(bs), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis counter get %q: %w", key, err)
	}
	return n, nil
}

// Incr bumps the counter. ttl only applies to a counter created by this call,
// ttl <= 0 keeps it forever.
func (r *RedisCounter) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	ms := max(ttl.Milliseconds(), 0)
	rr := luaAtomicIncrWithTTL.Exec(ctx, r.client, []string{r.buildKey(key)}, []string{strconv.FormatInt(ms, 10)})
	val, err := rr.AsInt64()
	if err != nil {
		return 0, fmt.Errorf("redis counter incr: %w", err)
	}
	return val, nil
}
