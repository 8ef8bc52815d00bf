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
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"foodlog/modules/auth"
	"foodlog/modules/middleware/problem"
	rl "foodlog/modules/ratelimit"
)

type (
	Pattern string
	method  string

	// KeyFunc extracts from a HTTP request an identifier such as remote IP, user-agent, cookies, etc.
	KeyFunc func(*http.Request) rl.Key

	// RouteInfoFunc extracts from a HTTP request the route information needed for pattern matching
	RouteInfoFunc func(*http.Request) RouteInfo

	// RouteInfo represents the framework-agnostic route information used in this middleware
	RouteInfo struct {
		ID     Pattern
		Method string
		Path   string
	}

	Policy struct {
		Limiter rl.RateLimiter
		KeyFn   KeyFunc
	}

	// compiled policy to be injected and used at runtime
	RuntimePolicy struct {
		// Policies parsed from config struct so that each route-method is accompanied with
		// a rate limiter with the pre-configured rate limit specifications.
		policyMap map[Pattern]map[method]Policy

		// Default policies applied when no route/method-specific policy exists.
		// A method-specific default takes precedence over the catch-all default.
		defaultPolicyByMethod map[method]Policy
		defaultPolicy         *Policy

		// Allow to next middleware if rate limit policy is not configured for this route
		AllowIfNoMatch bool
		// Allow to next middleware if no identifier is extracted from the http.Request using KeyFn
		AllowIfNoIdentifier bool

		RouteInfoFn RouteInfoFunc
	}
)

type policySource string

const (
	policySourceExplicit      policySource = "explicit"
	policySourceDefaultMethod policySource = "default_method"
	policySourceDefaultAll    policySource = "default"
)

func normalizeMethod(m string) method {
	return method(strings.ToUpper(m))
}

func (p *RuntimePolicy) findPolicy(routeInfo RouteInfo) (Policy, bool, policySource) {
	if pm, ok := p.policyMap[Pattern(routeInfo.ID)]; ok {
		if px, ok := pm[normalizeMethod(routeInfo.Method)]; ok {
			return px, true, policySourceExplicit
		}
	}

	if routeInfo.Method != "" && p.defaultPolicyByMethod != nil {
		if px, ok := p.defaultPolicyByMethod[normalizeMethod(routeInfo.Method)]; ok {
			return px, true, policySourceDefaultMethod
		}
	}

	if p.defaultPolicy != nil {
		return *p.defaultPolicy, true, policySourceDefaultAll
	}

	return Policy{}, false, ""
}

// here we assume the env config for route patterns must correctly reflects the registered routes by the framework
func ParsePolicy(
	factory rl.LimiterFactory,
	cfg *RestHTTPConfig,
	routeFn RouteInfoFunc,
	keyStrategies map[KeyStrategyId]KeyFunc,
) (*RuntimePolicy, error) {
	rtp := &RuntimePolicy{
		policyMap:           make(map[Pattern]map[method]Policy, 0),
		AllowIfNoIdentifier: cfg.AllowIfNoIdentifier,
		AllowIfNoMatch:      cfg.AllowIfNoMatch,
		RouteInfoFn:         routeFn,
	}

	// Default policy fallback (optional). Consider it configured only when it has
	// enough information to enforce rate limiting (window + key strategy).
	if cfg.DefaultPolicy.Window > 0 && cfg.DefaultPolicy.KeyStrategy != "" {
		ksn := KeyStrategyId(cfg.DefaultPolicy.KeyStrategy)
		ks, ok := keyStrategies[ksn]
		if !ok {
			return nil, errors.New("ratelimit parse policy: no such default key strategy")
		}

		scope := rl.DefaultScope
		if cfg.DefaultPolicy.Method != "" {
			scope = rl.Scope(string(rl.DefaultScope) + ":" + string(normalizeMethod(cfg.DefaultPolicy.Method)))
		}
		p := Policy{
			Limiter: factory(scope, cfg.DefaultPolicy.Limit, cfg.DefaultPolicy.Window),
			KeyFn:   ks,
		}

		if cfg.DefaultPolicy.Method != "" {
			rtp.defaultPolicyByMethod = map[method]Policy{
				normalizeMethod(cfg.DefaultPolicy.Method): p,
			}
		} else {
			rtp.defaultPolicy = &p
		}
	}

	for _, r := range cfg.Routes {
		pat := Pattern(r.Pattern)
		if _, ok := rtp.policyMap[pat]; !ok {
			rtp.policyMap[pat] = make(map[method]Policy)
		}

		endpointRules := r.EndpointRules

		for _, rule := range endpointRules {
			m := normalizeMethod(rule.Method)
			if _, ok := rtp.policyMap[pat][m]; ok {
				return nil, errors.New("ratelimit parse policy: duplicate method config on same pattern")
			}

			ksn := KeyStrategyId(rule.KeyStrategy)
			ks, ok := keyStrategies[ksn]
			if !ok {
				return nil, errors.New("ratelimit parse policy: no such key strategy")
			}

			rtp.policyMap[pat][m] = Policy{
				Limiter: factory(rl.RouteScope(string(m), r.Pattern), rule.Limit, rule.Window),
				KeyFn:   ks,
			}
		}
	}

	if cfg.WriteLimit > 0 && cfg.WriteWindow > 0 {
		for _, wr := range WriteRoutes {
			pat, m := Pattern(wr.Pattern), normalizeMethod(wr.Method)
			if _, ok := rtp.policyMap[pat][m]; ok {
				continue
			}
			if _, ok := rtp.policyMap[pat]; !ok {
				rtp.policyMap[pat] = make(map[method]Policy)
			}
			rtp.policyMap[pat][m] = Policy{
				Limiter: factory(rl.RouteScope(string(m), wr.Pattern), cfg.WriteLimit, cfg.WriteWindow),
				KeyFn:   CallerKeyFunc,
			}
		}
	}
	return rtp, nil
}

func NewRateLimitMiddleware(p *RuntimePolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			routeInfo := p.RouteInfoFn(r)
			if routeInfo.Method == "" {
				slog.Error("no method found",
					slog.String("middleware", "rate_limiter"),
					slog.String("url", r.URL.Path),
					slog.Any("route_info", routeInfo),
				)
				problem.Write(w, problem.MethodNotAllowed("method not allowed"))
				return
			}

			px, ok, src := p.findPolicy(routeInfo)
			if !ok {
				if routeInfo.ID == "" {
					if p.AllowIfNoMatch {
						next.ServeHTTP(w, r)
						return
					}
					problem.Write(w, problem.MethodNotAllowed("not allowed"))
					return
				}

				slog.Warn("no rate limit policy found",
					slog.String("middleware", "rate_limiter"),
					slog.String("url", r.URL.Path),
					slog.Any("route_info", routeInfo),
				)
				if p.AllowIfNoMatch {
					next.ServeHTTP(w, r)
					return
				}
				problem.Write(w, problem.TooManyRequests(http.StatusText(http.StatusTooManyRequests)))
				return
			}

			if src != policySourceExplicit {
				slog.Debug("using default rate limit policy",
					slog.String("middleware", "rate_limiter"),
					slog.String("url", r.URL.Path),
					slog.String("policy_source", string(src)),
					slog.Any("route_info", routeInfo),
				)
			}

			if px.KeyFn == nil {
				if !p.AllowIfNoIdentifier {
					slog.Warn("no rate limit key func found",
						slog.String("middleware", "rate_limiter"),
						slog.String("url", r.URL.Path),
						slog.Any("route_info", routeInfo),
					)
					problem.Write(w, problem.TooManyRequests(http.StatusText(http.StatusTooManyRequests)))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			key := px.KeyFn(r)
			if key == "" && !p.AllowIfNoIdentifier {
				slog.Warn("bad key",
					slog.String("middleware", "rate_limiter"),
					slog.String("url", r.URL.Path),
					slog.Any("route_info", routeInfo),
					slog.String("key", string(key)),
				)
				problem.Write(w, problem.TooManyRequests(http.StatusText(http.StatusTooManyRequests)))
				return
			}

			result, err := px.Limiter.Allow(r.Context(), key)
			if err != nil {
				slog.Error("rate limit error",
					slog.Any("error", err),
					slog.String("url", r.URL.Path),
				)
				// Counter store may be down
				problem.Write(w, problem.Internal(http.StatusText(http.StatusInternalServerError)))
				return
			}

			// handlers may reset headers, re-apply right before the response is committed
			w = &rateLimitHeaderWriter{ResponseWriter: w, result: result}

			if !result.Allowed {
				slog.Debug("rate limited",
					slog.String("middleware", "rate_limiter"),
					slog.String("url", r.URL.Path),
				)
				w.Header().Set("Retry-After", strconv.FormatInt(result.RetryAfterSeconds(), 10))
				problem.Write(w, problem.TooManyRequests(http.StatusText(http.StatusTooManyRequests)))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeRateLimitHeaders(w http.ResponseWriter, result rl.Result) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
	h.Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
	h.Set("X-RateLimit-Window-Seconds",
		strconv.FormatInt(int64(result.Window.Seconds()), 10))
	h.Set("X-RateLimit-Reset-Seconds",
		strconv.FormatInt(int64(result.WindowResetIn.Seconds()), 10))
}

type rateLimitHeaderWriter struct {
	http.ResponseWriter
	result  rl.Result
	ensured bool
}

func (w *rateLimitHeaderWriter) ensure() {
	if w.ensured {
		return
	}
	writeRateLimitHeaders(w.ResponseWriter, w.result)
	w.ensured = true
}

func (w *rateLimitHeaderWriter) WriteHeader(statusCode int) {
	w.ensure()
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *rateLimitHeaderWriter) Write(p []byte) (int, error) {
	w.ensure()
	return w.ResponseWriter.Write(p)
}

func (w *rateLimitHeaderWriter) Flush() {
	w.ensure()
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// DefaultKeyStrategies are the strategies a RATE_LIMIT_* config may name.
func DefaultKeyStrategies() map[KeyStrategyId]KeyFunc {
	return map[KeyStrategyId]KeyFunc{
		RemoteIpKeyStrategy: RemoteIpKeyFunc,
		CallerKeyStrategy:   CallerKeyFunc,
	}
}

// RemoteIpKeyFunc keys by the right-most X-Forwarded-For entry (the one appended by
// our own proxy), falling back to the connection peer.
func RemoteIpKeyFunc(r *http.Request) rl.Key {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if ip := strings.TrimSpace(ips[len(ips)-1]); ip != "" {
			return rl.AddrKey(ip)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return ""
	}
	return rl.AddrKey(host)
}

// CallerKeyFunc keys by authenticated user id. Must run after auth.Middleware.
func CallerKeyFunc(r *http.Request) rl.Key {
	if c, ok := auth.CallerFrom(r.Context()); ok {
		return rl.CallerKey(c.ID)
	}
	return RemoteIpKeyFunc(r)
}

// ServeMuxRouteInfo resolves the registered pattern for r, "GET /api/reviews/{id}"
// becomes ID "/api/reviews/{id}".
func ServeMuxRouteInfo(mux *http.ServeMux) RouteInfoFunc {
	return func(r *http.Request) RouteInfo {
		_, pattern := mux.Handler(r)
		if _, path, ok := strings.Cut(pattern, " "); ok {
			pattern = path
		}
		return RouteInfo{
			ID:     Pattern(pattern),
			Method: r.Method,
			Path:   r.URL.Path,
		}
	}
}
