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
	"errors"
	"log/slog"
	"net/http"
	"time"

	profile "foodlog/core/profile/domain"
	"foodlog/core/restaurant/domain"
	"foodlog/modules/etag"
	"foodlog/modules/middleware/problem"
	"foodlog/modules/pagination"
	"foodlog/modules/telemetry"
)

type (
	restaurantResponse struct {
		ID             string    `json:"id"`
		Name           string    `json:"name"`
		Description    *string   `json:"description"`
		PricePerPerson *float64  `json:"price_per_person"`
		Rating         float64   `json:"rating"`
		ReviewCount    int       `json:"review_count"`
		Location       *string   `json:"location"`
		ImageURL       *string   `json:"image_url"`
		CreatedBy      string    `json:"created_by"`
		CreatedAt      time.Time `json:"created_at"`
		UpdatedAt      time.Time `json:"updated_at"`
	}

	restaurantDetailResponse struct {
		restaurantResponse
		CuisineTypes   []string `json:"cuisine_types"`
		DietaryOptions []string `json:"dietary_options"`
		Features       []string `json:"features"`
	}

	reviewResponse struct {
		ID             string    `json:"id"`
		RestaurantID   string    `json:"restaurant_id"`
		RestaurantName string    `json:"restaurant_name"`
		UserID         string    `json:"user_id"`
		AuthorName     string    `json:"author_name"`
		Rating         int       `json:"rating"`
		Comment        *string   `json:"comment"`
		AmountSpent    *float64  `json:"amount_spent"`
		CreatedAt      time.Time `json:"created_at"`
		UpdatedAt      time.Time `json:"updated_at"`
	}

	listResponse struct {
		ID              string    `json:"id"`
		UserID          string    `json:"user_id"`
		Name            string    `json:"name"`
		Description     *string   `json:"description"`
		IsPublic        bool      `json:"is_public"`
		RestaurantCount int       `json:"restaurant_count"`
		CreatedAt       time.Time `json:"created_at"`
		UpdatedAt       time.Time `json:"updated_at"`
	}
)

func mapRestaurant(r domain.Restaurant) restaurantResponse {
	return restaurantResponse{
		ID:             r.ID.String(),
		Name:           r.Name,
		Description:    r.Description,
		PricePerPerson: r.PricePerPerson,
		Rating:         r.Rating,
		ReviewCount:    r.ReviewCount,
		Location:       r.Location,
		ImageURL:       r.ImageURL,
		CreatedBy:      r.CreatedBy.String(),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func mapRestaurantDetail(r domain.Restaurant) restaurantDetailResponse {
	return restaurantDetailResponse{
		restaurantResponse: mapRestaurant(r),
		CuisineTypes:       r.TagsOf(domain.TagCuisine),
		DietaryOptions:     r.TagsOf(domain.TagDietary),
		Features:           r.TagsOf(domain.TagFeature),
	}
}

func mapReview(r domain.Review) reviewResponse {
	return reviewResponse{
		ID:             r.ID.String(),
		RestaurantID:   r.RestaurantID.String(),
		RestaurantName: r.RestaurantName,
		UserID:         r.UserID.String(),
		AuthorName:     r.AuthorName,
		Rating:         r.Rating,
		Comment:        r.Comment,
		AmountSpent:    r.AmountSpent,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func mapList(l domain.List) listResponse {
	return listResponse{
		ID:              l.ID.String(),
		UserID:          l.UserID.String(),
		Name:            l.Name,
		Description:     l.Description,
		IsPublic:        l.IsPublic,
		RestaurantCount: l.RestaurantCount,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

// notModified answers a conditional GET and reports whether it did.
func notModified(w http.ResponseWriter, r *http.Request, obj etag.ETaggable) bool {
	w.Header().Set("ETag", etag.Header(obj))
	if etag.Matches(r.Header.Get("If-None-Match"), obj) {
		w.WriteHeader(http.StatusNotModified)
		return true
	}
	return false
}

// pageRequest parses the paging query and logs the chosen mode.
func pageRequest(r *http.Request) (pagination.Request, error) {
	req, err := pagination.ParseRequest(r.URL.Query())
	if err != nil {
		return req, err
	}
	slog.DebugContext(r.Context(), "pagination params",
		slog.String("mode", string(req.Mode)),
		slog.Int("page", req.Page),
		slog.Int("limit", req.Limit),
	)
	return req, nil
}

// problemFromDomainError maps domain and pagination errors to problem documents.
func problemFromDomainError(r *http.Request, err error) *problem.Problem {
	traceID := problem.WithTraceID(telemetry.TraceID(r.Context()))

	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		opts := []problem.Option{traceID}
		if ve.Field != "" {
			opts = append(opts, problem.WithInvalidParam(ve.Field, ve.Message))
		}
		return problem.BadRequest(ve.Message, opts...)
	case errors.Is(err, pagination.ErrInvalidCursor):
		return problem.BadRequest("Invalid cursor", problem.WithInvalidParam("cursor", "invalid or expired"), traceID)
	case errors.Is(err, pagination.ErrInvalidParams):
		return problem.BadRequest("Invalid pagination parameters", traceID)
	case errors.Is(err, domain.ErrInvalidData):
		return problem.BadRequest("Invalid request", traceID)
	case errors.Is(err, domain.ErrRestaurantNotFound):
		return problem.NotFound("Restaurant not found", traceID)
	case errors.Is(err, domain.ErrReviewNotFound):
		return problem.NotFound("Review not found", traceID)
	case errors.Is(err, domain.ErrDuplicateReview):
		return problem.Conflict("You have already reviewed this restaurant", traceID)
	default:
		return problem.Internal("Internal server error", traceID)
	}
}

func accessProblem(r *http.Request, res profile.AccessResult) *problem.Problem {
	traceID := problem.WithTraceID(telemetry.TraceID(r.Context()))
	switch res.Reason {
	case profile.ReasonPrivateProfile:
		return problem.NotFound("Profile is private", problem.WithCode(string(res.Reason)), traceID)
	case profile.ReasonProfileNotFound:
		return problem.NotFound("Profile not found", problem.WithCode(string(res.Reason)), traceID)
	default:
		return problem.Internal("Internal server error", traceID)
	}
}
