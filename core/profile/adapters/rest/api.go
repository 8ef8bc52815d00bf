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
	"net/http"

	"foodlog/core/profile/domain"
	"foodlog/modules/auth"
	"foodlog/modules/middleware"
)

// ProfileAPI implements the HTTP handlers for profile operations.
// It acts as the REST adapter in the hexagonal architecture, translating
// HTTP requests into domain operations.
type ProfileAPI struct {
	app *domain.Application
}

func NewProfileAPI(app *domain.Application) *ProfileAPI {
	return &ProfileAPI{app: app}
}

func (p *ProfileAPI) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/profile", auth.Require(p.GetOwnProfile))
	mux.HandleFunc("PATCH /api/profile", auth.Require(p.ModifyOwnProfile))
	mux.HandleFunc("GET /api/users", middleware.CacheControl(p.SearchUsers))
	mux.HandleFunc("GET /api/users/{id}", middleware.CacheControl(p.GetUser))
}
