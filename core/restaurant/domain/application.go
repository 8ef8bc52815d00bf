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

package domain

import (
	"context"
	"time"

	"foodlog/modules/cache"
	"foodlog/modules/pagination"
)

const txTimeout = 3 * time.Second

type (
	Application struct {
		reader    RestaurantReadStore
		writer    RestaurantWriteStore
		paginator *pagination.Paginator
		cache     *cache.ListingCache
		metrics   Metrics
	}

	Option func(*Application)

	noopMetrics struct{}
)

func (noopMetrics) RecordRecompute(context.Context, string) {}
func (noopMetrics) RecordReconcile(context.Context, string) {}

func WithMetrics(m Metrics) Option {
	return func(app *Application) {
		if m != nil {
			app.metrics = m
		}
	}
}

// WithListingCache serves listings through c. Without it every listing hits the store.
func WithListingCache(c *cache.ListingCache) Option {
	return func(app *Application) {
		app.cache = c
	}
}

func NewApp(reader RestaurantReadStore, writer RestaurantWriteStore, paginator *pagination.Paginator, opts ...Option) *Application {
	app := &Application{
		reader:    reader,
		writer:    writer,
		paginator: paginator,
		metrics:   noopMetrics{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	return app
}
