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

package appconfig

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("HMAC_SECRET", "dev-hmac")
	t.Setenv("AUTH_JWT_SECRET", "dev-jwt")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Env != EnvDev {
		t.Errorf("Env = %q, want %q", cfg.Env, EnvDev)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want INFO", cfg.LogLevel)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("HTTP.Port = %d, want 8080", cfg.HTTP.Port)
	}
	if cfg.Cache.TTL != 5*time.Minute || !cfg.Cache.Enabled {
		t.Errorf("Cache = %+v, want enabled with 5m ttl", cfg.Cache)
	}
	if cfg.Pagination.CursorTTL != 24*time.Hour {
		t.Errorf("Pagination.CursorTTL = %v, want 24h", cfg.Pagination.CursorTTL)
	}
	if cfg.Jobs.ReconcileWorkers != 4 {
		t.Errorf("Jobs.ReconcileWorkers = %d, want 4", cfg.Jobs.ReconcileWorkers)
	}
	if cfg.Auth.Audience != "authenticated" {
		t.Errorf("Auth.Audience = %q, want authenticated", cfg.Auth.Audience)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("POSTGRES_PRIMARY_HOST", "db.internal")
	t.Setenv("CACHE_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want DEBUG", cfg.LogLevel)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("HTTP.Port = %d, want 9090", cfg.HTTP.Port)
	}
	if cfg.Postgres.WriteConfig.Host != "db.internal" {
		t.Errorf("primary host = %q", cfg.Postgres.WriteConfig.Host)
	}
	if cfg.Cache.Enabled {
		t.Error("cache should be disabled")
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "dev-jwt")
	t.Setenv("HMAC_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without HMAC_SECRET")
	}
}

func TestValidate(t *testing.T) {
	long := strings.Repeat("a", minSecretLen)
	other := strings.Repeat("b", minSecretLen)

	valid := func() Config {
		c := Config{Env: "prod"}
		c.HMAC.Secret = long
		c.Auth.JWTSecret = other
		c.Cache.Enabled = true
		c.Cache.TTL = time.Minute
		c.Jobs = JobsConfig{
			ReconcileEnabled:  true,
			ReconcileInterval: time.Minute,
			ReconcileWorkers:  1,
			LockAtMostFor:     time.Minute,
			LockAtLeastFor:    time.Second,
		}
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"short secret in prod", func(c *Config) { c.HMAC.Secret = "short" }, "HMAC_SECRET"},
		{"short secret allowed in dev", func(c *Config) { c.Env = EnvDev; c.HMAC.Secret = "x"; c.Auth.JWTSecret = "x" }, ""},
		{"shared secrets", func(c *Config) { c.Auth.JWTSecret = c.HMAC.Secret }, "must differ"},
		{"zero cache ttl", func(c *Config) { c.Cache.TTL = 0 }, "CACHE_TTL"},
		{"lock ordering", func(c *Config) { c.Jobs.LockAtLeastFor = 2 * time.Minute }, "LOCK_AT_LEAST_FOR"},
		{"no workers", func(c *Config) { c.Jobs.ReconcileWorkers = 0 }, "WORKERS"},
		{"jobs disabled skip checks", func(c *Config) { c.Jobs = JobsConfig{} }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := validate(&c)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
