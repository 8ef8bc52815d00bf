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
	"net/http"

	"foodlog/modules/middleware"
	"foodlog/modules/server"

	"github.com/getkin/kin-openapi/openapi3"
)

var _ server.RegistrableService = (*APIService)(nil)

type (
	// Routes is implemented by the REST adapters of each bounded context.
	Routes interface {
		Register(mux *http.ServeMux)
	}

	// APIService mounts the REST adapters and validates every request against
	// the OpenAPI document before it reaches the mux.
	APIService struct {
		spec   *openapi3.T
		routes []Routes
	}
)

// NewAPIService validates nothing when spec is nil.
func NewAPIService(spec *openapi3.T, routes ...Routes) *APIService {
	return &APIService{spec: spec, routes: routes}
}

func (s *APIService) Register(mux *http.ServeMux) {
	for _, r := range s.routes {
		r.Register(mux)
	}
}

func (s *APIService) Middlewares() []func(http.Handler) http.Handler {
	if s.spec == nil {
		return nil
	}
	return []func(http.Handler) http.Handler{middleware.OpenAPIValidation(s.spec)}
}
