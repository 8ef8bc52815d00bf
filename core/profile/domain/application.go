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

const txTimeout = 2 * time.Second

type (
	Application struct {
		reader    ProfileReadStore
		writer    ProfileWriteStore
		paginator *pagination.Paginator
		metrics   Metrics
		cache     *cache.ListingCache
	}

	Option func(*Application)

	noopMetrics struct{}
)

func (noopMetrics) RecordProvision(context.Context, string) {}

func WithMetrics(m Metrics) Option {
	return func(app *Application) {
		if m != nil {
			app.metrics = m
		}
	}
}

// WithListingCache lets profile edits invalidate cached listings that show
// the user's display name.
func WithListingCache(c *cache.ListingCache) Option {
	return func(app *Application) {
		app.cache = c
	}
}

func NewApp(reader ProfileReadStore, writer ProfileWriteStore, paginator *pagination.Paginator, opts ...Option) *Application {
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
