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

package domain

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"foodlog/modules/pagination"
)

const maxSearchLen = 100

// SearchProfiles pages through public profiles matching q.
func (app *Application) SearchProfiles(ctx context.Context, q string, req pagination.Request) (pagination.Envelope[Profile], error) {
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) > maxSearchLen {
		return pagination.Envelope[Profile]{}, invalid("q", "Search query must be at most 100 characters")
	}

	slog.DebugContext(ctx, "searching profiles",
		slog.String("mode", string(req.Mode)),
		slog.Int("limit", req.Limit),
		slog.Bool("filtered", q != ""),
	)

	env, err := pagination.Paginate(ctx, app.paginator, req, func(ctx context.Context, b pagination.Bounds) ([]Profile, int, error) {
		return app.reader.SearchPublicProfiles(ctx, q, b)
	})
	if err == nil {
		return env, nil
	}
	if errors.Is(err, pagination.ErrInvalidCursor) || errors.Is(err, pagination.ErrInvalidParams) {
		return pagination.Envelope[Profile]{}, err
	}
	slog.ErrorContext(ctx, "unexpected error", slog.Any("error", err))
	return pagination.Envelope[Profile]{}, ErrUnhandled
}
