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
	"foodlog/modules/api/serde"
	"foodlog/modules/auth"
	"foodlog/modules/middleware"
	"foodlog/modules/middleware/problem"
)

// shapedProfile tags a profile version with the access level it was shaped
// for, so a body cached at one level never validates at another.
type shapedProfile struct {
	profile *domain.Profile
	level   domain.AccessLevel
}

func (s shapedProfile) V() string {
	return s.profile.V() + "-" + string(s.level)
}

type userResponse struct {
	Profile     profileResponse    `json:"profile"`
	AccessLevel domain.AccessLevel `json:"accessLevel"`
}

// GetOwnProfile returns the caller's profile with an ETag, 404 when it could
// not be provisioned.
func (p *ProfileAPI) GetOwnProfile(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CallerFrom(r.Context())

	prof, err := p.app.GetProfileByID(r.Context(), caller.ID)
	if err != nil {
		problem.Write(w, problemFromDomainError(r, err))
		return
	}
	w.Header().Set("Cache-Control", middleware.PrivateCacheControl)
	if notModified(w, r, prof) {
		return
	}
	serde.WriteJSON(w, http.StatusOK, map[string]profileResponse{"profile": mapProfile(*prof)})
}

// GetUser returns another user's profile, addressed by code or id, shaped for
// the caller's access level.
func (p *ProfileAPI) GetUser(w http.ResponseWriter, r *http.Request) {
	res := p.app.ValidateAccess(r.Context(), r.PathValue("id"), auth.CallerID(r.Context()))
	if !res.CanAccess {
		problem.Write(w, accessProblem(r, res))
		return
	}
	if notModified(w, r, shapedProfile{profile: res.Profile, level: res.Level}) {
		return
	}
	serde.WriteJSON(w, http.StatusOK, userResponse{
		Profile:     mapProfile(domain.Shape(*res.Profile, res.Level)),
		AccessLevel: res.Level,
	})
}
