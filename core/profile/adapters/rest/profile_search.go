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
	"foodlog/modules/middleware/problem"
	"foodlog/modules/pagination"
)

// SearchUsers pages through public profiles matching ?q=.
func (p *ProfileAPI) SearchUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req, err := pagination.ParseRequest(query)
	if err != nil {
		problem.Write(w, problemFromDomainError(r, err))
		return
	}
	slog.DebugContext(r.Context(), "pagination params",
		slog.String("mode", string(req.Mode)),
		slog.Int("page", req.Page),
		slog.Int("limit", req.Limit),
	)

	env, err := p.app.SearchProfiles(r.Context(), query.Get("q"), req)
	if err != nil {
		problem.Write(w, problemFromDomainError(r, err))
		return
	}

	caller := auth.CallerID(r.Context())
	serde.WriteJSON(w, http.StatusOK, pagination.Map(env, func(prof domain.Profile) profileResponse {
		level := domain.AccessPublic
		switch {
		case caller != nil && *caller == prof.ID:
			level = domain.AccessOwner
		case caller != nil:
			level = domain.AccessPrivate
		}
		return mapProfile(domain.Shape(prof, level))
	}))
}
