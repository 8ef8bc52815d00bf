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

	"foodlog/core/profile/domain"
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

var _ domain.ProfileReadStore = (*PostgresProfileReader)(nil)

type PostgresProfileReader struct {
	pool db.ReaderConnectionManager // calls Reader() at runtime
}

// NewPostgresProfileReader creates a reader that picks a replica per query.
// Reads are dynamic rather than prepared so replica selection stays per call.
func NewPostgresProfileReader(pool db.ReaderConnectionManager) *PostgresProfileReader {
	return &PostgresProfileReader{pool: pool}
}

func (r *PostgresProfileReader) GetProfileByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	return selectProfile(ctx, r.pool.Reader(), psql.Quote("id").EQ(psql.Arg(id)))
}

func (r *PostgresProfileReader) GetProfileByCode(ctx context.Context, code string) (*domain.Profile, error) {
	return selectProfile(ctx, r.pool.Reader(), psql.Quote("code").EQ(psql.Arg(code)))
}

func searchFilters(q string) []bob.Mod[*dialect.SelectQuery] {
	mods := []bob.Mod[*dialect.SelectQuery]{
		sm.From("profiles"),
		sm.Where(psql.Quote("is_public").EQ(psql.Arg(true))),
	}
	switch {
	case q == "":
	case domain.IsProfileCode(q):
		mods = append(mods, sm.Where(psql.Quote("code").EQ(psql.Arg(q))))
	default:
		mods = append(mods, sm.Where(psql.Raw("strpos(lower(display_name), lower(?)) > 0", q)))
	}
	return mods
}

func (r *PostgresProfileReader) SearchPublicProfiles(ctx context.Context, q string, b pagination.Bounds) ([]domain.Profile, int, error) {
	exec := r.pool.Reader()

	listQuery := psql.Select(append(
		append([]bob.Mod[*dialect.SelectQuery]{profileColumns()}, searchFilters(q)...),
		postgres.KeysetWindow(b, "created_at", "id")...,
	)...)

	profiles, err := bob.Allx[profileTransformer](ctx, exec, listQuery, scan.StructMapper[ProfileRow]())
	if err != nil {
		slog.ErrorContext(ctx, "SearchPublicProfiles query error", slog.Any("err", err))
		return nil, 0, wrapProfileError(err)
	}

	countQuery := psql.Select(append(
		[]bob.Mod[*dialect.SelectQuery]{sm.Columns("count(*)")},
		searchFilters(q)...,
	)...)

	count, err := bob.One(ctx, exec, countQuery, scan.SingleColumnMapper[int])
	if err != nil {
		slog.ErrorContext(ctx, "SearchPublicProfiles count error", slog.Any("err", err))
		return nil, 0, wrapProfileError(err)
	}

	return profiles, count, nil
}
