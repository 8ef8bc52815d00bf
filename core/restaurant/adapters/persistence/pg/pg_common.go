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
	"database/sql"
	"errors"
	"time"

	"foodlog/core/restaurant/domain"
	"foodlog/modules/db"
	"foodlog/modules/db/postgres"

	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/scan"
)

const (
	reviewUniqueConstraint  = "reviews_restaurant_id_user_id_key"
	reviewRestaurantFKey    = "reviews_restaurant_id_fkey"
	restaurantTagsRestaurID = "restaurant_tags_restaurant_id_fkey"
)

type (
	RestaurantRow struct {
		ID             uuid.UUID       `db:"id"`
		Name           string          `db:"name"`
		Description    sql.NullString  `db:"description"`
		PricePerPerson sql.NullFloat64 `db:"price_per_person"`
		Rating         float64         `db:"rating"`
		ReviewCount    int             `db:"review_count"`
		Location       sql.NullString  `db:"location"`
		ImageURL       sql.NullString  `db:"image_url"`
		CreatedBy      uuid.UUID       `db:"created_by"`
		CreatedAt      time.Time       `db:"created_at"`
		UpdatedAt      time.Time       `db:"updated_at"`
	}

	TagRow struct {
		Kind string `db:"kind"`
		Name string `db:"name"`
	}

	ReviewRow struct {
		ID             uuid.UUID       `db:"id"`
		RestaurantID   uuid.UUID       `db:"restaurant_id"`
		UserID         uuid.UUID       `db:"user_id"`
		Rating         int             `db:"rating"`
		Comment        sql.NullString  `db:"comment"`
		AmountSpent    sql.NullFloat64 `db:"amount_spent"`
		CreatedAt      time.Time       `db:"created_at"`
		UpdatedAt      time.Time       `db:"updated_at"`
		RestaurantName sql.NullString  `db:"restaurant_name"`
		AuthorName     sql.NullString  `db:"author_name"`
	}

	ListRow struct {
		ID              uuid.UUID      `db:"id"`
		UserID          uuid.UUID      `db:"user_id"`
		Name            string         `db:"name"`
		Description     sql.NullString `db:"description"`
		IsPublic        bool           `db:"is_public"`
		RestaurantCount int            `db:"restaurant_count"`
		CreatedAt       time.Time      `db:"created_at"`
		UpdatedAt       time.Time      `db:"updated_at"`
	}
)

// Derived columns are correlated subqueries against unaliased base tables so
// listings keep a single FROM item for the keyset window.
const (
	reviewCountExpr     = `(SELECT count(*) FROM reviews rv WHERE rv.restaurant_id = restaurants.id) AS review_count`
	restaurantNameExpr  = `(SELECT r.name FROM restaurants r WHERE r.id = reviews.restaurant_id) AS restaurant_name`
	authorNameExpr      = `(SELECT p.display_name FROM profiles p WHERE p.id = reviews.user_id) AS author_name`
	restaurantCountExpr = `(SELECT count(*) FROM list_restaurants lr WHERE lr.list_id = lists.id) AS restaurant_count`

	restaurantTagsSQL = `SELECT t.kind, t.name FROM restaurant_tags rt JOIN tags t ON t.id = rt.tag_id WHERE rt.restaurant_id = ? ORDER BY t.kind, t.name`
)

func restaurantColumns() bob.Mod[*dialect.SelectQuery] {
	return sm.Columns(
		"id", "name", "description",
		psql.Raw("price_per_person::float8 AS price_per_person"),
		"rating",
		psql.Raw(reviewCountExpr),
		"location", "image_url", "created_by", "created_at", "updated_at",
	)
}

func reviewColumns() bob.Mod[*dialect.SelectQuery] {
	return sm.Columns(
		"id", "restaurant_id", "user_id", "rating", "comment",
		psql.Raw("amount_spent::float8 AS amount_spent"),
		"created_at", "updated_at",
		psql.Raw(restaurantNameExpr),
		psql.Raw(authorNameExpr),
	)
}

func listColumns() bob.Mod[*dialect.SelectQuery] {
	return sm.Columns(
		"id", "user_id", "name", "description", "is_public",
		psql.Raw(restaurantCountExpr),
		"created_at", "updated_at",
	)
}

// selectRestaurant loads one restaurant and its tags through exec.
func selectRestaurant(ctx context.Context, exec db.Querier, id uuid.UUID) (*domain.Restaurant, error) {
	query := psql.Select(
		restaurantColumns(),
		sm.From("restaurants"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)
	row, err := bob.One(ctx, exec, query, scan.StructMapper[RestaurantRow]())
	if err != nil {
		return nil, wrapError(err, domain.ErrRestaurantNotFound)
	}

	tags, err := bob.All(ctx, exec, psql.RawQuery(restaurantTagsSQL, id), scan.StructMapper[TagRow]())
	if err != nil {
		return nil, wrapError(err, domain.ErrRestaurantNotFound)
	}

	r := toRestaurant(row)
	r.Tags = make([]domain.Tag, len(tags))
	for i, t := range tags {
		r.Tags[i] = domain.Tag{Kind: domain.TagKind(t.Kind), Name: t.Name}
	}
	return &r, nil
}

func selectReview(ctx context.Context, exec db.Querier, id uuid.UUID) (*domain.Review, error) {
	query := psql.Select(
		reviewColumns(),
		sm.From("reviews"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)
	row, err := bob.One(ctx, exec, query, scan.StructMapper[ReviewRow]())
	if err != nil {
		return nil, wrapError(err, domain.ErrReviewNotFound)
	}
	r := toReview(row)
	return &r, nil
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func nullFloat(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	return &f.Float64
}

func toRestaurant(row RestaurantRow) domain.Restaurant {
	return domain.Restaurant{
		ID:             row.ID,
		Name:           row.Name,
		Description:    nullString(row.Description),
		PricePerPerson: nullFloat(row.PricePerPerson),
		Rating:         row.Rating,
		ReviewCount:    row.ReviewCount,
		Location:       nullString(row.Location),
		ImageURL:       nullString(row.ImageURL),
		CreatedBy:      row.CreatedBy,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

func toReview(row ReviewRow) domain.Review {
	return domain.Review{
		ID:             row.ID,
		RestaurantID:   row.RestaurantID,
		UserID:         row.UserID,
		Rating:         row.Rating,
		Comment:        nullString(row.Comment),
		AmountSpent:    nullFloat(row.AmountSpent),
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
		RestaurantName: row.RestaurantName.String,
		AuthorName:     row.AuthorName.String,
	}
}

func toList(row ListRow) domain.List {
	return domain.List{
		ID:              row.ID,
		UserID:          row.UserID,
		Name:            row.Name,
		Description:     nullString(row.Description),
		IsPublic:        row.IsPublic,
		RestaurantCount: row.RestaurantCount,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

// wrapError maps DB errors to domain errors; notFound is returned for empty results.
func wrapError(err error, notFound error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}

	switch postgres.ErrorCode(err) {
	case postgres.UniqueViolation:
		if postgres.ConstraintName(err) == reviewUniqueConstraint {
			return domain.ErrDuplicateReview
		}
		return domain.ErrInvalidData
	case postgres.ForeignKeyViolation:
		switch postgres.ConstraintName(err) {
		case reviewRestaurantFKey, restaurantTagsRestaurID:
			return domain.ErrRestaurantNotFound
		}
		return domain.ErrInvalidData
	case postgres.CheckViolation:
		return domain.ErrInvalidData
	}

	return err
}

// inTxQueryStmt rebinds a QueryStmt to a transaction.
func inTxQueryStmt[Arg any, T any, Ts ~[]T](
	ctx context.Context,
	stmt bob.QueryStmt[Arg, T, Ts],
	tx bob.Tx,
) bob.QueryStmt[Arg, T, Ts] {
	txStmt := stmt
	txStmt.Stmt = bob.InTx(ctx, stmt.Stmt, tx)
	return txStmt
}
