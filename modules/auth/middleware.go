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

package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"foodlog/modules/middleware/problem"
)

// Middleware attaches the verified caller to the request context. Requests
// without a token continue anonymously; a present but invalid token is a 401.
func Middleware(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r)
			if errors.Is(err, ErrMissingToken) {
				next.ServeHTTP(w, r)
				return
			}
			if err == nil {
				var c Caller
				c, err = v.Verify(token)
				if err == nil {
					next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), c)))
					return
				}
			}
			slog.DebugContext(r.Context(), "rejected session token",
				slog.String("middleware", "auth"),
				slog.String("url", r.URL.Path),
				slog.Any("error", err),
			)
			problem.Write(w, problem.Unauthorized("Invalid or expired session"))
		})
	}
}

// Require rejects anonymous requests with 401.
func Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CallerFrom(r.Context()); !ok {
			problem.Write(w, problem.Unauthorized("Authentication required"))
			return
		}
		next(w, r)
	}
}
