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
	"fmt"
	"time"

	"foodlog/core/profile/domain"
	"foodlog/modules/db"

	"github.com/gofrs/uuid/v5"
	"github.com/oapi-codegen/nullable"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/stephenafamo/scan"
)

var _ domain.ProfileWriteStore = (*PostgresProfileWriter)(nil)

type (
	PostgresProfileWriter struct {
		db  *bob.DB // for prepared statements on primary
		txm db.TxManager

		insertStmt bob.QueryStmt[insertProfileArgs, uuid.UUID, []uuid.UUID]
	}

	insertProfileArgs struct {
		ID          uuid.UUID `db:"id"`
		Code        string    `db:"code"`
		DisplayName string    `db:"display_name"`
		IsPublic    bool      `db:"is_public"`
	}
)

// NewPostgresProfileWriter creates a new writer with prepared statements bound to the primary.
func NewPostgresProfileWriter(ctx context.Context, pool db.ConnectionPool) (*PostgresProfileWriter, error) {
	primary := pool.Writer().(bob.DB)

	w := &PostgresProfileWriter{
		db:  &primary,
		txm: pool,
	}

	// INSERT ... ON CONFLICT (id) DO NOTHING RETURNING id
	insertQuery := psql.Insert(
		im.Into("profiles", "id", "code", "display_name", "is_public"),
		im.Values(
			bob.Named("id"),
			bob.Named("code"),
			bob.Named("display_name"),
			bob.Named("is_public"),
		),
		im.OnConflict("id").DoNothing(),
		im.Returning("id"),
	)

	insertStmt, err := bob.PrepareQuery[insertProfileArgs](ctx, primary, insertQuery, scan.SingleColumnMapper[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("prepare insert profile: %w", err)
	}
	w.insertStmt = insertStmt

	return w, nil
}

func nextCodeNumber(ctx context.Context, exec db.Querier) (int64, error) {
	n, err := bob.One(ctx, exec, psql.RawQuery("SELECT nextval('profile_code_seq')"), scan.SingleColumnMapper[int64])
	if err != nil {
		return 0, wrapProfileError(err)
	}
	return n, nil
}

func insertProfile(ctx context.Context, stmt bob.QueryStmt[insertProfileArgs, uuid.UUID, []uuid.UUID], p domain.NewProfile) (bool, error) {
	ids, err := stmt.All(ctx, insertProfileArgs{
		ID:          p.ID,
		Code:        p.Code,
		DisplayName: p.DisplayName,
		IsPublic:    p.IsPublic,
	})
	if err != nil {
		return false, wrapProfileError(err)
	}
	return len(ids) == 1, nil
}

func setNullable[T any](col string, n nullable.Nullable[T]) []bob.Mod[*dialect.UpdateQuery] {
	if !n.IsSpecified() {
		return nil
	}
	if n.IsNull() {
		return []bob.Mod[*dialect.UpdateQuery]{um.SetCol(col).To(psql.Raw("NULL"))}
	}
	return []bob.Mod[*dialect.UpdateQuery]{um.SetCol(col).To(psql.Arg(n.MustGet()))}
}

// modifyProfile is left unprepared because the SET clause is dynamic.
func modifyProfile(ctx context.Context, exec db.Querier, id uuid.UUID, params domain.ModifyProfileParams) (*domain.Profile, error) {
	if params.Empty() {
		return nil, domain.ErrInvalidData
	}

	query := psql.Update(
		um.Table("profiles"),
		um.Where(psql.Quote("id").EQ(psql.Arg(id))),
		um.SetCol("updated_at").To(psql.Raw("now()")),
		um.Returning("id"),
	)
	query.Apply(setNullable("display_name", params.DisplayName)...)
	query.Apply(setNullable("avatar_url", params.AvatarURL)...)
	query.Apply(setNullable("bio", params.Bio)...)
	query.Apply(setNullable("location", params.Location)...)
	query.Apply(setNullable("website", params.Website)...)
	query.Apply(setNullable("phone", params.Phone)...)
	query.Apply(setNullable("is_public", params.IsPublic)...)

	if _, err := bob.One(ctx, exec, query, scan.SingleColumnMapper[uuid.UUID]); err != nil {
		return nil, wrapProfileError(err)
	}
	return selectProfile(ctx, exec, psql.Quote("id").EQ(psql.Arg(id)))
}

func (w *PostgresProfileWriter) NextCodeNumber(ctx context.Context) (int64, error) {
	return nextCodeNumber(ctx, w.db)
}

func (w *PostgresProfileWriter) InsertProfile(ctx context.Context, p domain.NewProfile) (bool, error) {
	return insertProfile(ctx, w.insertStmt, p)
}

func (w *PostgresProfileWriter) ModifyProfile(ctx context.Context, id uuid.UUID, params domain.ModifyProfileParams) (*domain.Profile, error) {
	return modifyProfile(ctx, w.db, id, params)
}

// WithTx implements ProfileWriteStore transaction support.
func (w *PostgresProfileWriter) WithTx(
	ctx context.Context,
	fn func(ctx context.Context, tx domain.ProfileWriteTx) error,
) error {
	return w.txm.WithTx(ctx, w.txFn(fn))
}

// WithTimeoutTx implements ProfileWriteStore transaction support with timeout.
func (w *PostgresProfileWriter) WithTimeoutTx(
	ctx context.Context,
	timeout time.Duration,
	fn func(ctx context.Context, tx domain.ProfileWriteTx) error,
) error {
	return w.txm.WithTimeoutTx(ctx, timeout, w.txFn(fn))
}

func (w *PostgresProfileWriter) txFn(fn func(ctx context.Context, tx domain.ProfileWriteTx) error) db.TxFn {
	return func(ctx context.Context, q db.Querier) error {
		tx, ok := q.(bob.Tx)
		if !ok {
			return fmt.Errorf("querier is not a transaction")
		}
		return fn(ctx, &profileWriterTx{parent: w, tx: tx})
	}
}

// profileWriterTx is a transaction-scoped writer that reuses prepared statements.
type profileWriterTx struct {
	parent *PostgresProfileWriter
	tx     bob.Tx
}

var _ domain.ProfileWriteTx = (*profileWriterTx)(nil)

func (t *profileWriterTx) NextCodeNumber(ctx context.Context) (int64, error) {
	return nextCodeNumber(ctx, t.tx)
}

func (t *profileWriterTx) InsertProfile(ctx context.Context, p domain.NewProfile) (bool, error) {
	return insertProfile(ctx, inTxQueryStmt(ctx, t.parent.insertStmt, t.tx), p)
}

func (t *profileWriterTx) ModifyProfile(ctx context.Context, id uuid.UUID, params domain.ModifyProfileParams) (*domain.Profile, error) {
	return modifyProfile(ctx, t.tx, id, params)
}
