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
	"net/http"
	"time"

	"foodlog/core/profile/domain"
	"foodlog/modules/etag"
	"foodlog/modules/middleware/problem"
	"foodlog/modules/pagination"
	"foodlog/modules/telemetry"
)

type (
	statsResponse struct {
		RestaurantsVisited int `json:"restaurants_visited"`
		ReviewsWritten     int `json:"reviews_written"`
		ListsCreated       int `json:"lists_created"`
		RestaurantsAdded   int `json:"restaurants_added"`
	}

	profileResponse struct {
		ID          string        `json:"id"`
		Code        string        `json:"code"`
		DisplayName string        `json:"display_name"`
		AvatarURL   *string       `json:"avatar_url"`
		Bio         *string       `json:"bio"`
		Location    *string       `json:"location,omitempty"`
		Website     *string       `json:"website"`
		Phone       *string       `json:"phone,omitempty"`
		IsPublic    bool          `json:"is_public"`
		CreatedAt   time.Time     `json:"created_at"`
		UpdatedAt   time.Time     `json:"updated_at"`
		Stats       statsResponse `json:"stats"`
	}
)

// mapProfile converts a domain profile, already shaped for its viewer, to the wire model.
func mapProfile(p domain.Profile) profileResponse {
	return profileResponse{
		ID:          p.ID.String(),
		Code:        p.Code,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
		Bio:         p.Bio,
		Location:    p.Location,
		Website:     p.Website,
		Phone:       p.Phone,
		IsPublic:    p.IsPublic,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Stats: statsResponse{
			RestaurantsVisited: p.Stats.RestaurantsVisited,
			ReviewsWritten:     p.Stats.ReviewsWritten,
			ListsCreated:       p.Stats.ListsCreated,
			RestaurantsAdded:   p.Stats.RestaurantsAdded,
		},
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
	case errors.Is(err, domain.ErrProfileNotFound):
		return problem.NotFound("Profile not found", traceID)
	default:
		return problem.Internal("Internal server error", traceID)
	}
}

// accessProblem maps a denied access decision. Private profiles are reported
// as not found so their existence is only revealed by the message.
func accessProblem(r *http.Request, res domain.AccessResult) *problem.Problem {
	traceID := problem.WithTraceID(telemetry.TraceID(r.Context()))
	switch res.Reason {
	case domain.ReasonPrivateProfile:
		return problem.NotFound("Profile is private", problem.WithCode(string(res.Reason)), traceID)
	case domain.ReasonProfileNotFound:
		return problem.NotFound("Profile not found", problem.WithCode(string(res.Reason)), traceID)
	default:
		return problem.Internal("Internal server error", traceID)
	}
}
