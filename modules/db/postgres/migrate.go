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
	"bytes"
	"errors"
	"log/slog"
	"strings"

	"github.com/amacneil/dbmate/v2/pkg/dbmate"
	_ "github.com/amacneil/dbmate/v2/pkg/driver/postgres"
)

var ErrNoMigrations = errors.New("postgres: no migrations configured")

// MigrateUp implements db.ConnectionPool.
func (p *PostgresConnectionPool) MigrateUp() error {
	m, err := p.migrator()
	if err != nil {
		return err
	}
	return m.CreateAndMigrate()
}

// MigrateDown implements db.ConnectionPool. It rolls back the latest migration only.
func (p *PostgresConnectionPool) MigrateDown() error {
	m, err := p.migrator()
	if err != nil {
		return err
	}
	return m.Rollback()
}

func (p *PostgresConnectionPool) migrator() (*dbmate.DB, error) {
	if p.migrations == nil || p.primaryURL == nil {
		return nil, ErrNoMigrations
	}
	u := *p.primaryURL
	// pool_max_conns is a pgx setting, lib/pq rejects unknown parameters
	q := u.Query()
	q.Del("pool_max_conns")
	u.RawQuery = q.Encode()

	m := dbmate.New(&u)
	m.FS = p.migrations
	m.MigrationsDir = []string{"."}
	m.AutoDumpSchema = false
	m.Log = slogWriter{}
	return m, nil
}

// slogWriter forwards dbmate progress output to slog, one record per line.
type slogWriter struct{}

func (slogWriter) Write(b []byte) (int, error) {
	for _, line := range bytes.Split(b, []byte("\n")) {
		if s := strings.TrimSpace(string(line)); s != "" {
			slog.Info("dbmate", slog.String("output", s))
		}
	}
	return len(b), nil
}
