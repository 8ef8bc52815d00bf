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

package rest

import (
	"context"
	"net/http"

	profile "foodlog/core/profile/domain"
	"foodlog/core/restaurant/domain"
	"foodlog/modules/auth"
	"foodlog/modules/middleware"

	"github.com/gofrs/uuid/v5"
)

// AccessValidator decides whether a caller may see a user's content,
// see profile.Application.ValidateAccess.
type AccessValidator interface {
	ValidateAccess(ctx context.Context, target string, caller *uuid.UUID) profile.AccessResult
}

// RestaurantAPI implements the HTTP handlers for restaurants, reviews and
// the per-user listings.
type RestaurantAPI struct {
	app    *domain.Application
	access AccessValidator
}

func NewRestaurantAPI(app *domain.Application, access AccessValidator) *RestaurantAPI {
	return &RestaurantAPI{app: app, access: access}
}

func (a *RestaurantAPI) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/restaurants", middleware.CacheControl(a.ListRestaurants))
	mux.HandleFunc("POST /api/restaurants", auth.Require(a.CreateRestaurant))
	mux.HandleFunc("GET /api/restaurants/{id}", middleware.CacheControl(a.GetRestaurant))
	mux.HandleFunc("GET /api/restaurants/{id}/reviews", middleware.CacheControl(a.ListRestaurantReviews))
	mux.HandleFunc("POST /api/restaurants/{id}/reviews", auth.Require(a.CreateReview))

	mux.HandleFunc("GET /api/reviews/{id}", middleware.CacheControl(a.GetReview))
	mux.HandleFunc("PUT /api/reviews/{id}", auth.Require(a.UpdateReview))
	mux.HandleFunc("DELETE /api/reviews/{id}", auth.Require(a.DeleteReview))

	mux.HandleFunc("GET /api/users/{id}/restaurants", middleware.CacheControl(a.ListUserRestaurants))
	mux.HandleFunc("GET /api/users/{id}/reviews", middleware.CacheControl(a.ListUserReviews))
	mux.HandleFunc("GET /api/users/{id}/lists", middleware.CacheControl(a.ListUserLists))
}
