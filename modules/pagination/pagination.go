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

// Package pagination turns page/limit or cursor/limit query parameters into
// store bounds, and store results into a uniform page envelope.
package pagination

import (
	"bytes"
	"context"
	"errors"
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/gofrs/uuid/v5"
)

const (
	DefaultLimit = 12
	MaxLimit     = 50

	// MaxPage keeps page*MaxLimit inside int.
	MaxPage = math.MaxInt / MaxLimit
)

var (
	ErrInvalidParams = errors.New("pagination: invalid parameters")
	ErrInvalidCursor = errors.New("pagination: invalid cursor")
)

type Mode string

const (
	ModeOffset Mode = "offset"
	ModeCursor Mode = "cursor"
)

type (
	// Request is a normalized paging request. Cursor is only meaningful in
	// ModeCursor, where an empty value asks for the first page.
	Request struct {
		Mode   Mode
		Page   int
		Limit  int
		Cursor string
	}

	// Pivot is the keyset position of a row under ORDER BY created_at DESC, id DESC.
	Pivot struct {
		CreatedAt time.Time `json:"created_at"`
		ID        uuid.UUID `json:"id"`
	}

	// Bounds is the window handed to a store. After is set only for cursor
	// requests past the first page; Offset only for offset requests.
	Bounds struct {
		After  *Pivot
		Offset int
		Limit  int
	}

	// Keyed rows expose their keyset position.
	Keyed interface {
		PagePivot() Pivot
	}

	// Fetcher loads one window of rows plus the total count of the filter.
	Fetcher[T any] func(ctx context.Context, b Bounds) ([]T, int, error)

	Envelope[T any] struct {
		Data       []T       `json:"data"`
		Total      int       `json:"total"`
		Page       int       `json:"page"`
		Limit      int       `json:"limit"`
		HasMore    bool      `json:"hasMore"`
		NextPage   *int      `json:"nextPage"`
		NextCursor *string   `json:"nextCursor"`
		Timestamp  time.Time `json:"timestamp"`
	}
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}

func NewOffsetRequest(page, limit int) Request {
	return Request{Mode: ModeOffset, Page: min(max(page, 1), MaxPage), Limit: clampLimit(limit)}
}

func NewCursorRequest(cursor string, limit int) Request {
	return Request{Mode: ModeCursor, Cursor: cursor, Limit: clampLimit(limit)}
}

// ParseRequest reads page, limit and cursor from a query string. The presence
// of the cursor key selects cursor mode even when its value is empty.
func ParseRequest(q url.Values) (Request, error) {
	limit, err := intParam(q, "limit")
	if err != nil {
		return Request{}, err
	}
	if q.Has("cursor") {
		return NewCursorRequest(q.Get("cursor"), limit), nil
	}
	page, err := intParam(q, "page")
	if err != nil {
		return Request{}, err
	}
	if page > MaxPage {
		return Request{}, ErrInvalidParams
	}
	return NewOffsetRequest(page, limit), nil
}

func intParam(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, ErrInvalidParams
	}
	return n, nil
}

func (r Request) Offset() int {
	return (r.Page - 1) * r.Limit
}

// CacheKey identifies the window for response caching.
func (r Request) CacheKey() string {
	if r.Mode == ModeCursor {
		return "c:" + strconv.Itoa(r.Limit) + ":" + r.Cursor
	}
	return "o:" + strconv.Itoa(r.Limit) + ":" + strconv.Itoa(r.Page)
}

// Less reports whether a sorts before b under ORDER BY created_at DESC, id DESC.
func Less(a, b Pivot) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return bytes.Compare(a.ID.Bytes(), b.ID.Bytes()) > 0
}

// Paginate runs fetch for the window described by req and assembles the envelope.
//
// Cursor mode asks the store for one extra row so HasMore is exact; the extra
// row is dropped and NextCursor points at the last row returned.
func Paginate[T Keyed](ctx context.Context, p *Paginator, req Request, fetch Fetcher[T]) (Envelope[T], error) {
	if req.Mode == "" {
		req.Mode = ModeOffset
	}
	req.Limit = clampLimit(req.Limit)

	env := Envelope[T]{
		Limit:     req.Limit,
		Timestamp: p.clock.Now().UTC(),
	}

	switch req.Mode {
	case ModeCursor:
		b := Bounds{Limit: req.Limit + 1}
		if req.Cursor != "" {
			pivot, err := p.codec.Decode(req.Cursor)
			if err != nil {
				return Envelope[T]{}, err
			}
			b.After = &pivot
		}

		rows, total, err := fetch(ctx, b)
		if err != nil {
			return Envelope[T]{}, err
		}
		if len(rows) > req.Limit {
			rows = rows[:req.Limit]
			env.HasMore = true
		}
		if env.HasMore {
			tok, err := p.codec.Encode(rows[len(rows)-1].PagePivot())
			if err != nil {
				return Envelope[T]{}, err
			}
			env.NextCursor = &tok
		}
		env.Data, env.Total = rows, total

	case ModeOffset:
		if req.Page > MaxPage {
			return Envelope[T]{}, ErrInvalidParams
		}
		req.Page = max(req.Page, 1)
		rows, total, err := fetch(ctx, Bounds{Offset: req.Offset(), Limit: req.Limit})
		if err != nil {
			return Envelope[T]{}, err
		}
		env.Data, env.Total, env.Page = rows, total, req.Page
		env.HasMore = total > req.Page*req.Limit
		if env.HasMore {
			next := req.Page + 1
			env.NextPage = &next
		}

	default:
		return Envelope[T]{}, ErrInvalidParams
	}

	if env.Data == nil {
		env.Data = []T{}
	}
	return env, nil
}

// Map converts the rows of an envelope, keeping its metadata.
func Map[T, U any](env Envelope[T], fn func(T) U) Envelope[U] {
	out := Envelope[U]{
		Data:       make([]U, len(env.Data)),
		Total:      env.Total,
		Page:       env.Page,
		Limit:      env.Limit,
		HasMore:    env.HasMore,
		NextPage:   env.NextPage,
		NextCursor: env.NextCursor,
		Timestamp:  env.Timestamp,
	}
	for i, v := range env.Data {
		out.Data[i] = fn(v)
	}
	return out
}
