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
	"fmt"
	"time"

	"foodlog/core/profile/domain"
	"foodlog/modules/db"
	"foodlog/modules/db/postgres"

	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/scan"
)

type (
	// ProfileRow is the persistence entity shape used by storage adapters.
	ProfileRow struct {
		ID          uuid.UUID      `db:"id"`
		Code        string         `db:"code"`
		DisplayName string         `db:"display_name"`
		AvatarURL   sql.NullString `db:"avatar_url"`
		Bio         sql.NullString `db:"bio"`
		Location    sql.NullString `db:"location"`
		Website     sql.NullString `db:"website"`
		Phone       sql.NullString `db:"phone"`
		IsPublic    bool           `db:"is_public"`
		CreatedAt   time.Time      `db:"created_at"`
		UpdatedAt   time.Time      `db:"updated_at"`

		RestaurantsVisited int `db:"restaurants_visited"`
		ReviewsWritten     int `db:"reviews_written"`
		ListsCreated       int `db:"lists_created"`
		RestaurantsAdded   int `db:"restaurants_added"`
	}
)

// Counters are derived per row; the profiles table is referenced unaliased.
const (
	restaurantsVisitedExpr = `(SELECT count(DISTINCT rv.restaurant_id) FROM reviews rv WHERE rv.user_id = profiles.id) AS restaurants_visited`
	reviewsWrittenExpr     = `(SELECT count(*) FROM reviews rv WHERE rv.user_id = profiles.id) AS reviews_written`
	listsCreatedExpr       = `(SELECT count(*) FROM lists l WHERE l.user_id = profiles.id) AS lists_created`
	restaurantsAddedExpr   = `(SELECT count(*) FROM restaurants r WHERE r.created_by = profiles.id) AS restaurants_added`
)

func profileColumns() bob.Mod[*dialect.SelectQuery] {
	return sm.Columns(
		"id", "code", "display_name", "avatar_url", "bio", "location",
		"website", "phone", "is_public", "created_at", "updated_at",
		psql.Raw(restaurantsVisitedExpr),
		psql.Raw(reviewsWrittenExpr),
		psql.Raw(listsCreatedExpr),
		psql.Raw(restaurantsAddedExpr),
	)
}

// selectProfile loads one profile with its counters through exec.
func selectProfile(ctx context.Context, exec db.Querier, where bob.Expression) (*domain.Profile, error) {
	query := psql.Select(
		profileColumns(),
		sm.From("profiles"),
		sm.Where(where),
	)
	row, err := bob.One(ctx, exec, query, scan.StructMapper[ProfileRow]())
	if err != nil {
		return nil, wrapProfileError(err)
	}
	prof := toProfile(row)
	return &prof, nil
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

// toProfile converts a ProfileRow to a domain Profile.
func toProfile(row ProfileRow) domain.Profile {
	return domain.Profile{
		ID:          row.ID,
		Code:        row.Code,
		DisplayName: row.DisplayName,
		AvatarURL:   nullString(row.AvatarURL),
		Bio:         nullString(row.Bio),
		Location:    nullString(row.Location),
		Website:     nullString(row.Website),
		Phone:       nullString(row.Phone),
		IsPublic:    row.IsPublic,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
		Stats: domain.Stats{
			RestaurantsVisited: row.RestaurantsVisited,
			ReviewsWritten:     row.ReviewsWritten,
			ListsCreated:       row.ListsCreated,
			RestaurantsAdded:   row.RestaurantsAdded,
		},
	}
}

// profileTransformer implements bob's transformer interface for automatic row to domain conversion.
type profileTransformer struct{}

func (profileTransformer) TransformScanned(rows []ProfileRow) ([]domain.Profile, error) {
	out := make([]domain.Profile, len(rows))
	for i, r := range rows {
		out[i] = toProfile(r)
	}
	return out, nil
}

// wrapProfileError centralizes mapping of DB errors to domain errors.
func wrapProfileError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrProfileNotFound
	}

	switch postgres.ErrorCode(err) {
	case postgres.UniqueViolation:
		// inserts resolve id conflicts with DO NOTHING, so only the code can collide
		return domain.ErrDuplicateCode
	case postgres.CheckViolation:
		return domain.ErrInvalidData
	case postgres.SequenceExhausted:
		return fmt.Errorf("%w: %w", domain.ErrCodeExhausted, err)
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
