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

package pg

import (
	"context"
	"log/slog"

	"foodlog/core/restaurant/domain"
	"foodlog/modules/db"
	"foodlog/modules/db/postgres"
	"foodlog/modules/pagination"

	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/scan"
)

var _ domain.RestaurantReadStore = (*PostgresRestaurantReader)(nil)

type PostgresRestaurantReader struct {
	pool db.ReaderConnectionManager
}

// NewPostgresRestaurantReader creates a reader that picks a replica per query.
func NewPostgresRestaurantReader(pool db.ReaderConnectionManager) *PostgresRestaurantReader {
	return &PostgresRestaurantReader{pool: pool}
}

func (r *PostgresRestaurantReader) GetRestaurant(ctx context.Context, id uuid.UUID) (*domain.Restaurant, error) {
	return selectRestaurant(ctx, r.pool.Reader(), id)
}

func (r *PostgresRestaurantReader) GetReview(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	return selectReview(ctx, r.pool.Reader(), id)
}

func restaurantFilters(f domain.RestaurantFilter) []bob.Mod[*dialect.SelectQuery] {
	mods := []bob.Mod[*dialect.SelectQuery]{sm.From("restaurants")}
	if f.CreatedBy != nil {
		mods = append(mods, sm.Where(psql.Quote("created_by").EQ(psql.Arg(*f.CreatedBy))))
	}
	if f.Query != "" {
		mods = append(mods, sm.Where(psql.Raw("strpos(lower(name), lower(?)) > 0", f.Query)))
	}
	if f.Cuisine != "" {
		mods = append(mods, sm.Where(psql.Raw(
			`EXISTS (SELECT 1 FROM restaurant_tags rt JOIN tags t ON t.id = rt.tag_id
			WHERE rt.restaurant_id = restaurants.id AND t.kind = ? AND lower(t.name) = lower(?))`,
			string(domain.TagCuisine), f.Cuisine,
		)))
	}
	return mods
}

func reviewFilters(f domain.ReviewFilter) []bob.Mod[*dialect.SelectQuery] {
	mods := []bob.Mod[*dialect.SelectQuery]{sm.From("reviews")}
	if f.RestaurantID != nil {
		mods = append(mods, sm.Where(psql.Quote("restaurant_id").EQ(psql.Arg(*f.RestaurantID))))
	}
	if f.UserID != nil {
		mods = append(mods, sm.Where(psql.Quote("user_id").EQ(psql.Arg(*f.UserID))))
	}
	return mods
}

func listFilters(f domain.ListFilter) []bob.Mod[*dialect.SelectQuery] {
	mods := []bob.Mod[*dialect.SelectQuery]{
		sm.From("lists"),
		sm.Where(psql.Quote("user_id").EQ(psql.Arg(f.UserID))),
	}
	if !f.IncludePrivate {
		mods = append(mods, sm.Where(psql.Quote("is_public").EQ(psql.Arg(true))))
	}
	return mods
}

// page runs the windowed select and the matching COUNT against the same replica.
func page[Row, T any](
	ctx context.Context,
	exec db.Querier,
	columns bob.Mod[*dialect.SelectQuery],
	filters []bob.Mod[*dialect.SelectQuery],
	b pagination.Bounds,
	convert func(Row) T,
) ([]T, int, error) {
	listQuery := psql.Select(append(
		append([]bob.Mod[*dialect.SelectQuery]{columns}, filters...),
		postgres.KeysetWindow(b, "created_at", "id")...,
	)...)

	rows, err := bob.All(ctx, exec, listQuery, scan.StructMapper[Row]())
	if err != nil {
		return nil, 0, err
	}
	out := make([]T, len(rows))
	for i, row := range rows {
		out[i] = convert(row)
	}

	countQuery := psql.Select(append(
		[]bob.Mod[*dialect.SelectQuery]{sm.Columns("count(*)")},
		filters...,
	)...)

	count, err := bob.One(ctx, exec, countQuery, scan.SingleColumnMapper[int])
	if err != nil {
		return nil, 0, err
	}
	return out, count, nil
}

func (r *PostgresRestaurantReader) ListRestaurants(ctx context.Context, f domain.RestaurantFilter, b pagination.Bounds) ([]domain.Restaurant, int, error) {
	rows, total, err := page(ctx, r.pool.Reader(), restaurantColumns(), restaurantFilters(f), b, toRestaurant)
	if err != nil {
		slog.ErrorContext(ctx, "ListRestaurants query error", slog.Any("err", err))
		return nil, 0, wrapError(err, domain.ErrRestaurantNotFound)
	}
	return rows, total, nil
}

func (r *PostgresRestaurantReader) ListReviews(ctx context.Context, f domain.ReviewFilter, b pagination.Bounds) ([]domain.Review, int, error) {
	rows, total, err := page(ctx, r.pool.Reader(), reviewColumns(), reviewFilters(f), b, toReview)
	if err != nil {
		slog.ErrorContext(ctx, "ListReviews query error", slog.Any("err", err))
		return nil, 0, wrapError(err, domain.ErrReviewNotFound)
	}
	return rows, total, nil
}

func (r *PostgresRestaurantReader) ListLists(ctx context.Context, f domain.ListFilter, b pagination.Bounds) ([]domain.List, int, error) {
	rows, total, err := page(ctx, r.pool.Reader(), listColumns(), listFilters(f), b, toList)
	if err != nil {
		slog.ErrorContext(ctx, "ListLists query error", slog.Any("err", err))
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *PostgresRestaurantReader) RestaurantIDs(ctx context.Context) ([]uuid.UUID, error) {
	query := psql.Select(
		sm.Columns("id"),
		sm.From("restaurants"),
		sm.OrderBy("id"),
	)
	return bob.All(ctx, r.pool.Reader(), query, scan.SingleColumnMapper[uuid.UUID])
}
