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

package services

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"foodlog/modules/db"
	"foodlog/modules/middleware/problem"
)

const healthTimeout = 2 * time.Second

// Health answers GET /healthz with 204 when every dependency responds.
type Health struct {
	checks map[string]db.HealthManager
}

func NewHealth(checks map[string]db.HealthManager) *Health {
	return &Health{checks: checks}
}

func (h *Health) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.serve)
}

func (h *Health) serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	for name, c := range h.checks {
		if err := c.HealthCheck(ctx); err != nil {
			slog.WarnContext(ctx, "health check failed", slog.String("dependency", name), slog.Any("error", err))
			problem.Write(w, problem.New(
				problem.WithStatus(http.StatusServiceUnavailable),
				problem.WithDetail(name+" unavailable"),
			))
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
