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

	profile "foodlog/core/profile/domain"
	"foodlog/modules/api/serde"
	"foodlog/modules/auth"
	"foodlog/modules/middleware/problem"
	"foodlog/modules/pagination"

	"github.com/gofrs/uuid/v5"
)

// authorize validates the caller's access to the user in the path and parses
// the paging query. It writes the error response and returns false on failure.
func (a *RestaurantAPI) authorize(w http.ResponseWriter, r *http.Request) (profile.AccessResult, *uuid.UUID, pagination.Request, bool) {
	caller := auth.CallerID(r.Context())

	res := a.access.ValidateAccess(r.Context(), r.PathValue("id"), caller)
	if !res.CanAccess {
		problem.Write(w, accessProblem(r, res))
		return res, nil, pagination.Request{}, false
	}

	req, err := pageRequest(r)
	if err != nil {
		problem.Write(w, problemFromDomainError(r, err))
		return res, nil, pagination.Request{}, false
	}
	return res, caller, req, true
}

// ListUserRestaurants pages through the restaurants added by the user in the path.
func (a *RestaurantAPI) ListUserRestaurants(w http.ResponseWriter, r *http.Request) {
	res, caller, req, ok := a.authorize(w, r)
	if !ok {
		return
	}

	env, err := a.app.ListUserRestaurants(r.Context(), res.TargetID, req, caller)
	if err != nil {
		problem.Write(w, problemFromDomainError(r, err))
		return
	}
	serde.WriteJSON(w, http.StatusOK, pagination.Map(env, mapRestaurant))
}

func (a *RestaurantAPI) ListUserReviews(w http.ResponseWriter, r *http.Request) {
	res, caller, req, ok := a.authorize(w, r)
	if !ok {
		return
	}

	env, err := a.app.ListUserReviews(r.Context(), res.TargetID, req, caller)
	if err != nil {
		problem.Write(w, problemFromDomainError(r, err))
		return
	}
	serde.WriteJSON(w, http.StatusOK, pagination.Map(env, mapReview))
}

// ListUserLists pages through the user's lists; private lists are only
// included for the owner.
func (a *RestaurantAPI) ListUserLists(w http.ResponseWriter, r *http.Request) {
	res, caller, req, ok := a.authorize(w, r)
	if !ok {
		return
	}

	env, err := a.app.ListUserLists(r.Context(), res.TargetID, req, caller)
	if err != nil {
		problem.Write(w, problemFromDomainError(r, err))
		return
	}
	serde.WriteJSON(w, http.StatusOK, pagination.Map(env, mapList))
}
