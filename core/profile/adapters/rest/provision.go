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
	"log/slog"
	"net/http"

	"foodlog/modules/auth"

	"github.com/gofrs/uuid/v5"
)

type Provisioner interface {
	EnsureProfileExists(ctx context.Context, userID uuid.UUID, email string) bool
}

// ProvisionMiddleware creates the caller's profile on first touch. A failed
// provisioning never fails the request. Must run after auth.Middleware.
func ProvisionMiddleware(p Provisioner) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if caller, ok := auth.CallerFrom(r.Context()); ok {
				if !p.EnsureProfileExists(r.Context(), caller.ID, string(caller.Email)) {
					slog.WarnContext(r.Context(), "continuing without a provisioned profile",
						slog.String("middleware", "provision"),
						slog.String("user_id", caller.ID.String()),
					)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
