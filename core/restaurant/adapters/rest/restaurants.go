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
	"log/slog"
	"net/http"

	"foodlog/core/restaurant/domain"
	"foodlog/modules/api/serde"
	"foodlog/modules/auth"
	"foodlog/modules/middleware/problem"
	"foodlog/modules/pagination"
)

type createRestaurantRequest struct {
	Name           string   `json:"name"`
	Description    *string  `json:"description,omitempty"`
	PricePerPerson *float64 `json:"price_per_person,omitempty"`
	Location       *string  `json:"location,omitempty"`
	ImageURL       *string  `json:"image_url,omitempty"`
	CuisineTypes   []string `json:"cuisine_types,omitempty"`
	DietaryOptions []string `json:"dietary_options,omitempty"`
	Features       []string `json:"features,omitempty"`
}

func (body createRestaurantRequest) tags() []domain.Tag {
	var tags []domain.Tag
	add := func(kind domain.TagKind, names []string) {
		for _, n := range names {
			tags = append(tags, domain.Tag{Kind: kind, Name: n})
		}
	}
	add(domain.TagCuisine, body.CuisineTypes)
	add(domain.TagDietary, body.DietaryOptions)
	add(domain.TagFeature, body.Features)
	return tags
}

// ListRestaurants pages through restaurants, optionally filtered by ?q= and ?cuisine=.
func (a *RestaurantAPI) ListRestaurants(w http.ResponseWriter, r *http.Request) {
	req, err := pageRequest(r)
	if err != nil {
		problem.Write(w, problemFromDomainError(r, err))
		return
	}

	query := r.URL.Query()
	env, err := a.app.ListRestaurants(r.Context(), domain.RestaurantFilter{
		Query:   query.Get("q"),
		Cuisine: query.Get("cuisine"),
	}, req, auth.CallerID(r.Context()))
	if err != nil {
		problem.Write(w, problemFromDomainError(r, err))
		return
	}
	serde.WriteJSON(w, http.StatusOK, pagination.Map(env, mapRestaurant))
}

func (a *RestaurantAPI) GetRestaurant(w http.ResponseWriter, r *http.Request) {
	id, ok := serde.ParseUUID(r.PathValue("id"))
	if !ok {
		problem.Write(w, problemFromDomainError(r, domain.ErrRestaurantNotFound))
		return
	}

	rest, err := a.app.GetRestaurant(r.Context(), id)
	if err != nil {
		problem.Write(w, problemFromDomainError(r, err))
		return
	}
	if notModified(w, r, rest) {
		return
	}
	serde.WriteJSON(w, http.StatusOK, map[string]restaurantDetailResponse{"restaurant": mapRestaurantDetail(*rest)})
}

func (a *RestaurantAPI) CreateRestaurant(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CallerFrom(r.Context())

	var body createRestaurantRequest
	if err := serde.ParseJsonBody(r.Body, &body); err != nil {
		slog.DebugContext(r.Context(), "invalid restaurant body", slog.Any("error", err))
		problem.Write(w, problem.BadRequest("Invalid request body"))
		return
	}

	rest, err := a.app.CreateRestaurant(r.Context(), domain.NewRestaurant{
		Name:           body.Name,
		Description:    body.Description,
		PricePerPerson: body.PricePerPerson,
		Location:       body.Location,
		ImageURL:       body.ImageURL,
		CreatedBy:      caller.ID,
		Tags:           body.tags(),
	})
	if err != nil {
		problem.Write(w, problemFromDomainError(r, err))
		return
	}
	w.Header().Set("Location", "/api/restaurants/"+rest.ID.String())
	serde.WriteJSON(w, http.StatusCreated, map[string]restaurantDetailResponse{"restaurant": mapRestaurantDetail(*rest)})
}

func (a *RestaurantAPI) ListRestaurantReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := serde.ParseUUID(r.PathValue("id"))
	if !ok {
		problem.Write(w, problemFromDomainError(r, domain.ErrRestaurantNotFound))
		return
	}
	req, err := pageRequest(r)
	if err != nil {
		problem.Write(w, problemFromDomainError(r, err))
		return
	}

	env, err := a.app.ListRestaurantReviews(r.Context(), id, req, auth.CallerID(r.Context()))
	if err != nil {
		problem.Write(w, problemFromDomainError(r, err))
		return
	}
	serde.WriteJSON(w, http.StatusOK, pagination.Map(env, mapReview))
}
