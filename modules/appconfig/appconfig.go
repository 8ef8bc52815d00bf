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
	"errors"
	"fmt"
	"log/slog"
	"time"

	"foodlog/modules/auth"
	"foodlog/modules/cache"
	"foodlog/modules/db/postgres"
	"foodlog/modules/db/redis"
	"foodlog/modules/hmac"
	"foodlog/modules/middleware/ratelimit"
	"foodlog/modules/pagination"
	"foodlog/modules/server"
	"foodlog/modules/telemetry"

	"github.com/caarlos0/env/v11"
)

const EnvDev = "dev"

type (
	Config struct {
		Env      string     `env:"ENV" envDefault:"dev"`
		LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

		HTTP server.Config `envPrefix:"HTTP_"`

		// --- core infra ----
		HMAC     hmac.HMACConfig         `envPrefix:"HMAC_"`
		Auth     auth.Config             `envPrefix:"AUTH_"`
		Redis    redis.RedisConfig       `envPrefix:"REDIS_"`
		Postgres postgres.PostgresConfig `envPrefix:"POSTGRES_"`

		Cache      cache.Config      `envPrefix:"CACHE_"`
		Pagination pagination.Config `envPrefix:"PAGINATION_"`

		// --- middlewares ----
		RateLimit ratelimit.RestHTTPConfig `envPrefix:"RATE_LIMIT_"`

		Jobs JobsConfig `envPrefix:"JOBS_"`

		// --- otel ----
		// since it has special naming conventions, we do not use prefix here
		Otel telemetry.Config
	}

	// JobsConfig drives the periodic rating reconciliation.
	JobsConfig struct {
		ReconcileEnabled  bool          `env:"RECONCILE_ENABLED"  envDefault:"true"`
		ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"15m"`
		ReconcileWorkers  int           `env:"RECONCILE_WORKERS"  envDefault:"4"`
		LockAtMostFor     time.Duration `env:"LOCK_AT_MOST_FOR"   envDefault:"10m"`
		LockAtLeastFor    time.Duration `env:"LOCK_AT_LEAST_FOR"  envDefault:"30s"`
	}
)

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// minSecretLen applies outside of dev.
const minSecretLen = 32

func validate(c *Config) error {
	var errs []error

	if c.Env != EnvDev {
		if len(c.HMAC.Secret) < minSecretLen {
			errs = append(errs, fmt.Errorf("HMAC_SECRET must be at least %d bytes in %q", minSecretLen, c.Env))
		}
		if len(c.Auth.JWTSecret) < minSecretLen {
			errs = append(errs, fmt.Errorf("AUTH_JWT_SECRET must be at least %d bytes in %q", minSecretLen, c.Env))
		}
		if c.HMAC.Secret == c.Auth.JWTSecret {
			errs = append(errs, errors.New("HMAC_SECRET and AUTH_JWT_SECRET must differ"))
		}
	}

	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("CACHE_TTL must be positive when the cache is enabled"))
	}

	if c.Jobs.ReconcileEnabled {
		if c.Jobs.ReconcileInterval <= 0 {
			errs = append(errs, errors.New("JOBS_RECONCILE_INTERVAL must be positive"))
		}
		if c.Jobs.ReconcileWorkers < 1 {
			errs = append(errs, errors.New("JOBS_RECONCILE_WORKERS must be at least 1"))
		}
		if c.Jobs.LockAtLeastFor > c.Jobs.LockAtMostFor {
			errs = append(errs, errors.New("JOBS_LOCK_AT_LEAST_FOR must not exceed JOBS_LOCK_AT_MOST_FOR"))
		}
	}

	return errors.Join(errs...)
}
