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

package main

import (
	"context"
	"embed"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"foodlog/migrations"
	"foodlog/modules/appconfig"
	"foodlog/modules/auth"
	"foodlog/modules/cache"
	"foodlog/modules/clock"
	"foodlog/modules/db"
	"foodlog/modules/db/postgres"
	"foodlog/modules/db/redis"
	"foodlog/modules/db/redis/counter"
	"foodlog/modules/db/redis/locking"
	hmac_sign "foodlog/modules/hmac"
	"foodlog/modules/middleware"
	"foodlog/modules/middleware/ratelimit"
	"foodlog/modules/pagination"
	rl "foodlog/modules/ratelimit"
	"foodlog/modules/server"
	"foodlog/modules/services"
	"foodlog/modules/telemetry"

	profile_pg "foodlog/core/profile/adapters/persistence/pg"
	profile_http "foodlog/core/profile/adapters/rest"
	profile "foodlog/core/profile/domain"
	restaurant_jobs "foodlog/core/restaurant/adapters/jobs"
	restaurant_pg "foodlog/core/restaurant/adapters/persistence/pg"
	restaurant_http "foodlog/core/restaurant/adapters/rest"
	restaurant "foodlog/core/restaurant/domain"
)

// OpenAPI document for request validation at runtime
//
//go:embed modules/oapi/*.yaml
var validationSpecFS embed.FS

const specPath = "modules/oapi/openapi-foodlog.yaml"

func main() {
	exitCode := 0
	defer func() {
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	}()

	// cancel the context when these signals occur
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer cancel()

	// manual dependency injection, no DI framework needed at this size

	// --- application config ----
	appConfig, err := appconfig.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", slog.Any("error", err))
		exitCode = 1
		return
	}
	slog.SetLogLoggerLevel(appConfig.LogLevel)

	clock := clock.RealClock{}

	otelShutdown, err := telemetry.Init(ctx, appConfig.Otel)
	if err != nil {
		slog.ErrorContext(ctx, "telemetry not properly configured", slog.Any("error", err))
		exitCode = 1
		return
	}
	defer func() {
		if err := otelShutdown(context.WithoutCancel(ctx)); err != nil {
			slog.ErrorContext(ctx, "telemetry shutdown error", slog.Any("error", err))
		}
	}()

	domainMetrics, err := telemetry.NewDomainMetrics(appConfig.Otel.ServiceName)
	if err != nil {
		slog.WarnContext(ctx, "failed to initialize domain metrics, continuing without", slog.Any("error", err))
		domainMetrics = nil
	}

	// --- infrastructure ---

	connectionPool, err := postgres.New(
		ctx,
		&appConfig.Postgres,
		postgres.PostgresOptions{
			// writers talk to the primary directly and keep server-side prepared
			// statements; replicas may sit behind PgBouncer
			ReaderOptions: []postgres.PgxConfigOption{
				postgres.WithPgBouncerSimpleProtocol(),
			},
			WriterOptions: []postgres.PgxConfigOption{
				postgres.WithApplicationName(appConfig.Otel.ServiceName),
			},
			Migrations: migrations.FS,
		},
	)
	if err != nil {
		slog.ErrorContext(ctx, "database error", slog.Any("error", err))
		exitCode = 1
		return
	}
	defer func() {
		if err := connectionPool.Shutdown(ctx); err != nil {
			slog.ErrorContext(ctx, "database shutdown error", slog.Any("error", err))
		}
	}()

	if err = connectionPool.HealthCheck(ctx); err != nil {
		slog.ErrorContext(ctx, "database health check failed", slog.Any("error", err))
		exitCode = 1
		return
	}

	if appConfig.Postgres.AutoMigrate {
		if err := connectionPool.MigrateUp(); err != nil {
			slog.ErrorContext(ctx, "database migration failed", slog.Any("error", err))
			exitCode = 1
			return
		}
	}

	// prepared statements need the schema, so writers come after migrations
	profileWriter, err := profile_pg.NewPostgresProfileWriter(ctx, connectionPool)
	if err != nil {
		slog.ErrorContext(ctx, "profile writer initialization error", slog.Any("error", err))
		exitCode = 1
		return
	}
	restaurantWriter, err := restaurant_pg.NewPostgresRestaurantWriter(ctx, connectionPool)
	if err != nil {
		slog.ErrorContext(ctx, "restaurant writer initialization error", slog.Any("error", err))
		exitCode = 1
		return
	}

	redisClient, err := redis.NewRueidisClient(ctx, appConfig.Redis)
	if err != nil {
		slog.ErrorContext(ctx, "redis not properly setup", slog.Any("error", err))
		exitCode = 1
		return
	}
	defer redisClient.Close()

	redisCounter := counter.NewRedisCounterStore(redisClient, appConfig.Env)

	var listingCache *cache.ListingCache
	if appConfig.Cache.Enabled {
		listingKV := redis.NewRedisKV(redisClient,
			redis.WithKeyPrefix(appConfig.Cache.Prefix),
			redis.WithDefaultTTL(appConfig.Cache.TTL),
		)
		listingCache = cache.New(listingKV,
			counter.NewRedisCounterStore(redisClient, appConfig.Cache.Prefix+":gen"),
			cache.WithRecorder(domainMetrics),
		)
	}

	signer, err := hmac_sign.NewHMACSigner([]byte(appConfig.HMAC.Secret))
	if err != nil {
		slog.ErrorContext(ctx, "hmac signer setup error", slog.Any("error", err))
		exitCode = 1
		return
	}
	paginator := pagination.New(signer, pagination.WithClock(clock), pagination.WithCursorTTL(appConfig.Pagination.CursorTTL))

	verifier, err := auth.NewVerifier(appConfig.Auth)
	if err != nil {
		slog.ErrorContext(ctx, "auth verifier setup error", slog.Any("error", err))
		exitCode = 1
		return
	}

	// --- application layer ---

	profileApp := profile.NewApp(
		profile_pg.NewPostgresProfileReader(connectionPool),
		profileWriter,
		paginator,
		profile.WithMetrics(domainMetrics),
		profile.WithListingCache(listingCache),
	)
	restaurantApp := restaurant.NewApp(
		restaurant_pg.NewPostgresRestaurantReader(connectionPool),
		restaurantWriter,
		paginator,
		restaurant.WithMetrics(domainMetrics),
		restaurant.WithListingCache(listingCache),
	)

	if appConfig.Jobs.ReconcileEnabled {
		locker, err := redis.NewLocker(appConfig.Redis, appConfig.Env+":locks:")
		if err != nil {
			slog.ErrorContext(ctx, "redis locker setup error", slog.Any("error", err))
			exitCode = 1
			return
		}
		defer locker.Close()

		executor := locking.NewLockingTaskExecutor(locker,
			locking.WithClock(clock),
			locking.WithNamePrefix("jobs:"),
		)
		job := restaurant_jobs.NewReconcileJob(restaurantApp, executor, restaurant_jobs.ReconcileConfig{
			Interval:       appConfig.Jobs.ReconcileInterval,
			Workers:        appConfig.Jobs.ReconcileWorkers,
			LockAtMostFor:  appConfig.Jobs.LockAtMostFor,
			LockAtLeastFor: appConfig.Jobs.LockAtLeastFor,
		})
		go job.Run(ctx)
	}

	spec, err := middleware.LoadSpec(ctx, validationSpecFS, specPath)
	if err != nil {
		slog.ErrorContext(ctx, "openapi document error", slog.Any("error", err))
		exitCode = 1
		return
	}

	mux := http.NewServeMux()
	apiSvc := services.NewAPIService(spec,
		services.NewHealth(map[string]db.HealthManager{
			"postgres": connectionPool,
			"redis":    redis.NewRedisKV(redisClient),
		}),
		profile_http.NewProfileAPI(profileApp),
		restaurant_http.NewRestaurantAPI(restaurantApp, profileApp),
	)

	slog.DebugContext(ctx, "app rate limit config", slog.Any("rate_limit_config", appConfig.RateLimit))

	rtp, err := ratelimit.ParsePolicy(
		rl.SlidingWindowFactory(clock, redisCounter, "ratelimit", rl.WithRecorder(domainMetrics)),
		&appConfig.RateLimit,
		ratelimit.ServeMuxRouteInfo(mux),
		ratelimit.DefaultKeyStrategies(),
	)
	if err != nil {
		slog.ErrorContext(ctx, "ratelimit config not properly parsed", slog.Any("error", err))
		exitCode = 1
		return
	}

	httpMetrics, err := telemetry.NewHTTPMetrics(appConfig.Otel.ServiceName)
	if err != nil {
		slog.WarnContext(ctx, "failed to initialize HTTP metrics, continuing without metrics", slog.Any("error", err))
		httpMetrics = nil
	}

	srv, err := server.New(
		appConfig.HTTP.Host, appConfig.HTTP.Port,
		server.WithMux(mux),
		server.WithReadTimeout(appConfig.HTTP.ReadTimeout),
		server.WithWriteTimeout(appConfig.HTTP.WriteTimeout),
		server.WithIdleTimeout(appConfig.HTTP.IdleTimeout),
		server.WithShutdownTimeout(appConfig.HTTP.ShutdownTimeout),
		server.WithServices(apiSvc),
		server.WithGlobalMiddlewares(
			middleware.Telemetry(httpMetrics, middleware.MuxPattern(mux)),
			middleware.Recovery(nil),
			auth.Middleware(verifier),
			ratelimit.NewRateLimitMiddleware(rtp),
			profile_http.ProvisionMiddleware(profileApp),
		),
	)
	if err != nil {
		slog.ErrorContext(ctx, "init server error", slog.Any("error", err))
		exitCode = 1
		return
	}

	if err := srv.Run(ctx); err != nil {
		slog.ErrorContext(ctx, "running server error", slog.Any("error", err))
		exitCode = 1
		return
	}
}
