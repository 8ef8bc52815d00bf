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

package postgres

import (
	"context"
	"errors"

	"foodlog/modules/db"
	"foodlog/modules/pagination"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/sm"
)

// SQLSTATE codes the adapters translate into domain errors.
const (
	UniqueViolation      = "23505"
	ForeignKeyViolation  = "23503"
	CheckViolation       = "23514"
	SerializationFailure = "40001"
	// SequenceExhausted is raised by nextval past MAXVALUE on a NO CYCLE sequence.
	SequenceExhausted    = "2200H"
)

// ErrorCode returns the SQLSTATE of a postgres error, or "".
func ErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// ConstraintName returns the violated constraint of a postgres error, or "".
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

// KeysetWindow orders a select by (created_at, id) DESC and restricts it to the
// window described by b: rows strictly after b.After for cursor requests,
// LIMIT/OFFSET for offset requests.
func KeysetWindow(b pagination.Bounds, createdCol, idCol string) []bob.Mod[*dialect.SelectQuery] {
	mods := []bob.Mod[*dialect.SelectQuery]{
		sm.OrderBy(psql.Quote(createdCol)).Desc(),
		sm.OrderBy(psql.Quote(idCol)).Desc(),
		sm.Limit(b.Limit),
	}
	if b.After != nil {
		mods = append(mods, sm.Where(
			psql.Group(psql.Quote(createdCol), psql.Quote(idCol)).
				LT(psql.ArgGroup(b.After.CreatedAt, b.After.ID)),
		))
	}
	if b.Offset > 0 {
		mods = append(mods, sm.Offset(b.Offset))
	}
	return mods
}

// WithSavepoint runs fn inside a savepoint of the surrounding transaction q.
// On failure the savepoint is rolled back so the transaction stays usable.
// name must be a trusted identifier.
func WithSavepoint(ctx context.Context, q db.Querier, name string, fn func(ctx context.Context) error) error {
	if _, err := q.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return err
	}
	if err := fn(ctx); err != nil {
		if _, rbErr := q.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	_, err := q.ExecContext(ctx, "RELEASE SAVEPOINT "+name)
	return err
}
