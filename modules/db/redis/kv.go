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

package redis

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"foodlog/modules/db"

	"github.com/redis/rueidis"
)

var (
	_ db.KV = (*RedisKV)(nil)

	// KEYS[1] full key, ARGV[1] value, ARGV[2] TTL seconds ("" or 0 keeps the key forever).
	// Returns the previous value or nil.
	//go:embed atomic_set.lua
	atomicSetLua string

	luaAtomicSet = rueidis.NewLuaScript(atomicSetLua)
)

// RedisKV is a rueidis-backed db.KV. Keys are namespaced by an optional prefix and
// every write may carry a default TTL.
type RedisKV struct {
	client rueidis.Client
	prefix string

	defaultTTL time.Duration

	// serve AtomicGet from the client-side cache, bounded by defaultTTL
	enableClientCache bool
}

type RedisKVOption func(*RedisKV)

// WithKeyPrefix scopes all keys, "foodlog:listing" stores "x" as "foodlog:listing:x".
func WithKeyPrefix(prefix string) RedisKVOption {
	return func(k *RedisKV) {
		prefix = strings.TrimSpace(prefix)
		if prefix != "" && !strings.HasSuffix(prefix, ":") {
			prefix += ":"
		}
		k.prefix = prefix
	}
}

// WithDefaultTTL expires every written key after ttl. ttl <= 0 disables expiry.
func WithDefaultTTL(ttl time.Duration) RedisKVOption {
	return func(k *RedisKV) {
		k.defaultTTL = ttl
	}
}

// WithClientSideCache serves reads through DoCache. The client must track the prefix
// (RedisConfig.ClientTrackingPrefixes).
func WithClientSideCache() RedisKVOption {
	return func(k *RedisKV) {
		k.enableClientCache = true
	}
}

func NewRedisKV(client rueidis.Client, opts ...RedisKVOption) *RedisKV {
	kv := &RedisKV{
		client: client,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(kv)
		}
	}
	return kv
}

func (k *RedisKV) key(raw string) string {
	return k.prefix + raw
}

// AtomicGet returns the stored bytes, or nil, nil when the key is missing.
func (k *RedisKV) AtomicGet(ctx context.Context, key string) (any, error) {
	fullKey := k.key(key)

	var res rueidis.RedisResult
	if k.enableClientCache && k.defaultTTL > 0 {
		res = k.client.DoCache(ctx, k.client.B().Get().Key(fullKey).Cache(), k.defaultTTL)
	} else {
		res = k.client.Do(ctx, k.client.B().Get().Key(fullKey).Build())
	}

	bs, err := res.AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis kv: get %q: %w", key, err)
	}
	return bs, nil
}

// AtomicSet writes value and returns the previous bytes in one script round-trip.
func (k *RedisKV) AtomicSet(ctx context.Context, key string, value any) (any, error) {
	serialized, err := encodeValue(value)
	if err != nil {
		return nil, fmt.Errorf("redis kv: encode value for key %q: %w", key, err)
	}

	ttlArg := ""
	if k.defaultTTL > 0 {
		ttlArg = strconv.FormatInt(max(int64(k.defaultTTL/time.Second), 1), 10)
	}

	res := luaAtomicSet.Exec(ctx, k.client, []string{k.key(key)}, []string{serialized, ttlArg})
	bs, err := res.AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis kv: set %q: %w", key, err)
	}
	return bs, nil
}

// HealthCheck pings the server.
func (k *RedisKV) HealthCheck(ctx context.Context) error {
	return k.client.Do(ctx, k.client.B().Ping().Build()).Error()
}

// encodeValue: strings and bytes as-is, Stringers via String(), anything else as JSON.
func encodeValue(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", errors.New("redis kv: nil values are not allowed")
	case string:
		return x, nil
	case []byte:
		return rueidis.BinaryString(x), nil
	case fmt.Stringer:
		return x.String(), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return rueidis.BinaryString(b), nil
	}
}
