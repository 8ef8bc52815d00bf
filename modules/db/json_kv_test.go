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

package db

import (
	"context"
	"errors"
	"testing"
)

type memKV map[string][]byte

func (m memKV) AtomicGet(_ context.Context, k string) (any, error) {
	v, ok := m[k]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (m memKV) AtomicSet(_ context.Context, k string, v any) (any, error) {
	prev, had := m[k]
	m[k] = v.([]byte)
	if !had {
		return nil, nil
	}
	return prev, nil
}

type entry struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

func TestJSONKV_SetGet(t *testing.T) {
	kv := NewJSONKV[entry](memKV{})
	ctx := context.Background()

	got, err := kv.Get(ctx, "missing")
	if err != nil || got != nil {
		t.Fatalf("missing key: %v, %v", got, err)
	}

	prev, err := kv.Set(ctx, "k", entry{Name: "a", Score: 4.5})
	if err != nil || prev != nil {
		t.Fatalf("first set: %v, %v", prev, err)
	}
	prev, err = kv.Set(ctx, "k", entry{Name: "b", Score: 3})
	if err != nil || prev == nil || prev.Name != "a" {
		t.Fatalf("second set prev = %+v, %v", prev, err)
	}
	got, err = kv.Get(ctx, "k")
	if err != nil || got == nil || *got != (entry{Name: "b", Score: 3}) {
		t.Fatalf("get = %+v, %v", got, err)
	}
}

type oddKV struct{}

func (oddKV) AtomicGet(context.Context, string) (any, error)      { return 42, nil }
func (oddKV) AtomicSet(context.Context, string, any) (any, error) { return nil, errors.New("down") }

func TestJSONKV_Errors(t *testing.T) {
	kv := NewJSONKV[entry](oddKV{})
	if _, err := kv.Get(context.Background(), "k"); err == nil {
		t.Fatal("expected type error")
	}
	if _, err := kv.Set(context.Background(), "k", entry{}); err == nil {
		t.Fatal("expected store error")
	}
}
