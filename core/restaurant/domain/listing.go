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
	"errors"
	"log/slog"
	"net/url"

	"foodlog/modules/cache"
	"foodlog/modules/pagination"

	"github.com/gofrs/uuid/v5"
)

// Listings are served from the listing cache for anonymous viewers only.
// A nil viewer means anonymous.

func (app *Application) ListRestaurants(ctx context.Context, f RestaurantFilter, req pagination.Request, viewer *uuid.UUID) (pagination.Envelope[Restaurant], error) {
	f, err := f.normalize()
	if err != nil {
		return pagination.Envelope[Restaurant]{}, err
	}

	scopes := []string{cache.ScopeRestaurants}
	key := url.Values{"q": {f.Query}, "cuisine": {f.Cuisine}}
	if f.CreatedBy != nil {
		scopes = append(scopes, cache.UserScope(f.CreatedBy.String()))
		key.Set("created_by", f.CreatedBy.String())
	}

	slog.DebugContext(ctx, "listing restaurants",
		slog.String("mode", string(req.Mode)),
		slog.Int("limit", req.Limit),
		slog.Bool("filtered", f.Query != "" || f.Cuisine != ""),
	)

	return listing(ctx, app, viewer, scopes, "restaurants?"+key.Encode(), req,
		func(ctx context.Context, b pagination.Bounds) ([]Restaurant, int, error) {
			return app.reader.ListRestaurants(ctx, f, b)
		})
}

// ListUserRestaurants pages through the restaurants added by userID.
func (app *Application) ListUserRestaurants(ctx context.Context, userID uuid.UUID, req pagination.Request, viewer *uuid.UUID) (pagination.Envelope[Restaurant], error) {
	return app.ListRestaurants(ctx, RestaurantFilter{CreatedBy: &userID}, req, viewer)
}

// ListRestaurantReviews returns ErrRestaurantNotFound for unknown restaurants.
func (app *Application) ListRestaurantReviews(ctx context.Context, restaurantID uuid.UUID, req pagination.Request, viewer *uuid.UUID) (pagination.Envelope[Review], error) {
	if _, err := app.GetRestaurant(ctx, restaurantID); err != nil {
		return pagination.Envelope[Review]{}, err
	}

	f := ReviewFilter{RestaurantID: &restaurantID}
	return listing(ctx, app, viewer,
		[]string{cache.RestaurantScope(restaurantID.String()), cache.ScopeReviewAuthors},
		"reviews?restaurant="+restaurantID.String(), req,
		func(ctx context.Context, b pagination.Bounds) ([]Review, int, error) {
			return app.reader.ListReviews(ctx, f, b)
		})
}

func (app *Application) ListUserReviews(ctx context.Context, userID uuid.UUID, req pagination.Request, viewer *uuid.UUID) (pagination.Envelope[Review], error) {
	f := ReviewFilter{UserID: &userID}
	return listing(ctx, app, viewer,
		[]string{cache.UserScope(userID.String())},
		"reviews?user="+userID.String(), req,
		func(ctx context.Context, b pagination.Bounds) ([]Review, int, error) {
			return app.reader.ListReviews(ctx, f, b)
		})
}

// ListUserLists pages through the lists of ownerID. Only the owner sees private lists.
func (app *Application) ListUserLists(ctx context.Context, ownerID uuid.UUID, req pagination.Request, viewer *uuid.UUID) (pagination.Envelope[List], error) {
	f := ListFilter{
		UserID:         ownerID,
		IncludePrivate: viewer != nil && *viewer == ownerID,
	}
	return listing(ctx, app, viewer,
		[]string{cache.UserScope(ownerID.String())},
		"lists?user="+ownerID.String(), req,
		func(ctx context.Context, b pagination.Bounds) ([]List, int, error) {
			return app.reader.ListLists(ctx, f, b)
		})
}

func listing[T pagination.Keyed](
	ctx context.Context,
	app *Application,
	viewer *uuid.UUID,
	scopes []string,
	key string,
	req pagination.Request,
	fetch pagination.Fetcher[T],
) (pagination.Envelope[T], error) {
	load := func(ctx context.Context) (pagination.Envelope[T], error) {
		return pagination.Paginate(ctx, app.paginator, req, fetch)
	}

	var (
		env pagination.Envelope[T]
		err error
	)
	if viewer == nil {
		env, err = cache.Load(ctx, app.cache, scopes, key+"|"+req.CacheKey(), load)
	} else {
		env, err = load(ctx)
	}
	if err == nil {
		return env, nil
	}
	if errors.Is(err, pagination.ErrInvalidCursor) || errors.Is(err, pagination.ErrInvalidParams) {
		return pagination.Envelope[T]{}, err
	}
	return pagination.Envelope[T]{}, unhandled(ctx, err)
}
