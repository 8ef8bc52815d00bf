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
	"foodlog/modules/etag"
	"foodlog/modules/middleware/problem"
)

type reviewRequest struct {
	Rating      int      `json:"rating"`
	Comment     *string  `json:"comment,omitempty"`
	AmountSpent *float64 `json:"amount_spent,omitempty"`
}

func (body reviewRequest) input() domain.ReviewInput {
	return domain.ReviewInput{
		Rating:      body.Rating,
		Comment:     body.Comment,
		AmountSpent: body.AmountSpent,
	}
}

func parseReviewBody(w http.ResponseWriter, r *http.Request) (reviewRequest, bool) {
	var body reviewRequest
	if err := serde.ParseJsonBody(r.Body, &body); err != nil {
		slog.DebugContext(r.Context(), "invalid review body", slog.Any("error", err))
		problem.Write(w, problem.BadRequest("Invalid request body"))
		return body, false
	}
	return body, true
}

func (a *RestaurantAPI) GetReview(w http.ResponseWriter, r *http.Request) {
	id, ok := serde.ParseUUID(r.PathValue("id"))
	if !ok {
		problem.Write(w, problemFromDomainError(r, domain.ErrReviewNotFound))
		return
	}

	review, err := a.app.GetReview(r.Context(), id)
	if err != nil {
		problem.Write(w, problemFromDomainError(r, err))
		return
	}
	if notModified(w, r, review) {
		return
	}
	serde.WriteJSON(w, http.StatusOK, map[string]reviewResponse{"review": mapReview(*review)})
}

// CreateReview records the caller's review of the restaurant in the path.
func (a *RestaurantAPI) CreateReview(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CallerFrom(r.Context())

	restaurantID, ok := serde.ParseUUID(r.PathValue("id"))
	if !ok {
		problem.Write(w, problemFromDomainError(r, domain.ErrRestaurantNotFound))
		return
	}
	body, ok := parseReviewBody(w, r)
	if !ok {
		return
	}

	review, err := a.app.CreateReview(r.Context(), restaurantID, caller.ID, body.input())
	if err != nil {
		problem.Write(w, problemFromDomainError(r, err))
		return
	}
	w.Header().Set("Location", "/api/reviews/"+review.ID.String())
	w.Header().Set("ETag", etag.Header(review))
	serde.WriteJSON(w, http.StatusCreated, map[string]reviewResponse{"review": mapReview(*review)})
}

// UpdateReview replaces the caller's review. Reviews of other users are
// reported as not found.
func (a *RestaurantAPI) UpdateReview(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CallerFrom(r.Context())

	id, ok := serde.ParseUUID(r.PathValue("id"))
	if !ok {
		problem.Write(w, problemFromDomainError(r, domain.ErrReviewNotFound))
		return
	}
	body, ok := parseReviewBody(w, r)
	if !ok {
		return
	}

	review, err := a.app.UpdateReview(r.Context(), id, caller.ID, body.input())
	if err != nil {
		problem.Write(w, problemFromDomainError(r, err))
		return
	}
	w.Header().Set("ETag", etag.Header(review))
	serde.WriteJSON(w, http.StatusOK, map[string]reviewResponse{"review": mapReview(*review)})
}

func (a *RestaurantAPI) DeleteReview(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CallerFrom(r.Context())

	id, ok := serde.ParseUUID(r.PathValue("id"))
	if !ok {
		problem.Write(w, problemFromDomainError(r, domain.ErrReviewNotFound))
		return
	}

	if err := a.app.DeleteReview(r.Context(), id, caller.ID); err != nil {
		problem.Write(w, problemFromDomainError(r, err))
		return
	}
	serde.WriteJSON(w, http.StatusOK, map[string]string{"message": "Review deleted successfully"})
}
