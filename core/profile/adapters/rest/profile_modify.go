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

	"foodlog/core/profile/domain"
	"foodlog/modules/api/serde"
	"foodlog/modules/auth"
	"foodlog/modules/etag"
	"foodlog/modules/middleware/problem"

	"github.com/oapi-codegen/nullable"
)

// modifyProfileRequest distinguishes absent members (unspecified) from
// explicit nulls.
type modifyProfileRequest struct {
	DisplayName nullable.Nullable[string] `json:"display_name,omitempty"`
	AvatarURL   nullable.Nullable[string] `json:"avatar_url,omitempty"`
	Bio         nullable.Nullable[string] `json:"bio,omitempty"`
	Location    nullable.Nullable[string] `json:"location,omitempty"`
	Website     nullable.Nullable[string] `json:"website,omitempty"`
	Phone       nullable.Nullable[string] `json:"phone,omitempty"`
	IsPublic    nullable.Nullable[bool]   `json:"is_public,omitempty"`
}

func (p *ProfileAPI) ModifyOwnProfile(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CallerFrom(r.Context())

	var body modifyProfileRequest
	if err := serde.ParseJsonBody(r.Body, &body); err != nil {
		slog.DebugContext(r.Context(), "invalid profile patch body", slog.Any("error", err))
		problem.Write(w, problem.BadRequest("Invalid request body"))
		return
	}

	prof, err := p.app.ModifyProfile(r.Context(), caller.ID, domain.ModifyProfileParams{
		DisplayName: body.DisplayName,
		AvatarURL:   body.AvatarURL,
		Bio:         body.Bio,
		Location:    body.Location,
		Website:     body.Website,
		Phone:       body.Phone,
		IsPublic:    body.IsPublic,
	})
	if err != nil {
		problem.Write(w, problemFromDomainError(r, err))
		return
	}
	w.Header().Set("ETag", etag.Header(prof))
	serde.WriteJSON(w, http.StatusOK, map[string]profileResponse{"profile": mapProfile(*prof)})
}
