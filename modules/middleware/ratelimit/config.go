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

package ratelimit

import (
	"time"
)

type KeyStrategyId string

const (
	RemoteIpKeyStrategy KeyStrategyId = "remote_ip"
	// CallerKeyStrategy keys by authenticated caller, anonymous requests by remote IP.
	CallerKeyStrategy KeyStrategyId = "caller"
)

type (
	// RATE_LIMIT_ROUTE_0_PATTERN=/api/restaurants/{id}/reviews
	// RATE_LIMIT_ROUTE_0_POLICY_0_METHOD=POST
	// RATE_LIMIT_ROUTE_0_POLICY_0_LIMIT=10
	// RATE_LIMIT_ROUTE_0_POLICY_0_WINDOW=1m
	// RATE_LIMIT_ROUTE_0_POLICY_0_KEY_STRATEGY=caller
	//
	// Write endpoints get WRITE_LIMIT per WRITE_WINDOW per caller unless a
	// route rule above overrides them. WRITE_LIMIT=0 turns that off.
	RestHTTPConfig struct {
		Routes              []Route       `envPrefix:"ROUTE_"`
		DefaultPolicy       EndpointRule  `envPrefix:"DEFAULT_"`
		WriteLimit          int64         `env:"WRITE_LIMIT"       envDefault:"30"`
		WriteWindow         time.Duration `env:"WRITE_WINDOW"      envDefault:"1m"`
		AllowIfNoMatch      bool          `env:"ALLOW_IF_NO_MATCH" envDefault:"true"`
		AllowIfNoIdentifier bool          `env:"ALLOW_IF_NO_ID"`
	}

	Route struct {
		// Pattern is the ServeMux pattern without its method, e.g. /api/reviews/{id}
		Pattern       string         `env:"PATTERN"`
		EndpointRules []EndpointRule `envPrefix:"POLICY_"`
	}

	EndpointRule struct {
		Method      string        `env:"METHOD"`
		Limit       int64         `env:"LIMIT" envDefault:"10000"`
		Window      time.Duration `env:"WINDOW"`
		KeyStrategy KeyStrategyId `env:"KEY_STRATEGY"`
	}
)

// WriteRoutes are the endpoints that create or change user content.
var WriteRoutes = []struct{ Method, Pattern string }{
	{"POST", "/api/restaurants"},
	{"POST", "/api/restaurants/{id}/reviews"},
	{"PUT", "/api/reviews/{id}"},
	{"DELETE", "/api/reviews/{id}"},
	{"PATCH", "/api/profile"},
}
