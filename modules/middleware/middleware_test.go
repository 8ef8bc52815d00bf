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

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"foodlog/modules/auth"

	"github.com/gofrs/uuid/v5"
)

const reviewSpec = `
openapi: 3.0.3
info:
  title: test
  version: "1"
paths:
  /api/reviews/{id}:
    parameters:
      - name: id
        in: path
        required: true
        schema:
          type: string
    put:
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: object
              required: [rating]
              properties:
                rating:
                  type: integer
      responses:
        "200":
          description: ok
`

func newValidated(t *testing.T) http.Handler {
	t.Helper()
	fsys := fstest.MapFS{"spec.yaml": {Data: []byte(reviewSpec)}}
	spec, err := LoadSpec(context.Background(), fsys, "spec.yaml")
	if err != nil {
		t.Fatalf("LoadSpec: %v", err)
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	return OpenAPIValidation(spec)(next)
}

func put(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPut, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestOpenAPIValidation(t *testing.T) {
	h := newValidated(t)

	if rec := put(h, "/api/reviews/abc", `{"rating": 6}`); rec.Code != http.StatusOK {
		t.Fatalf("well typed body = %d, domain rules are not the validator's job", rec.Code)
	}

	rec := put(h, "/api/reviews/abc", `{"rating": "five"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("mistyped body = %d, want 400", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("Content-Type = %q", ct)
	}
	var body struct {
		Error         string `json:"error"`
		InvalidParams []struct {
			Name string `json:"name"`
		} `json:"invalidParams"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "Invalid request" || len(body.InvalidParams) == 0 {
		t.Fatalf("body = %+v", body)
	}

	if rec := put(h, "/api/nowhere", `{}`); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown route = %d, want 404", rec.Code)
	}
}

func TestLoadSpec_Missing(t *testing.T) {
	if _, err := LoadSpec(context.Background(), fstest.MapFS{}, "nope.yaml"); err == nil {
		t.Fatal("expected error")
	}
}

func TestRecovery_WritesProblem(t *testing.T) {
	h := Recovery(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "boom") {
		t.Fatal("panic value leaked to client")
	}
}

func TestCacheControl(t *testing.T) {
	ok := CacheControl(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("{}")) })
	missing := CacheControl(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNotFound) })

	tests := []struct {
		name   string
		h      http.HandlerFunc
		caller bool
		want   string
	}{
		{"anonymous", ok, false, PublicCacheControl},
		{"authenticated", ok, true, PrivateCacheControl},
		{"error not cached", missing, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/restaurants", nil)
			if tt.caller {
				req = req.WithContext(auth.WithCaller(req.Context(), auth.Caller{ID: uuid.Must(uuid.NewV4())}))
			}
			rec := httptest.NewRecorder()
			tt.h(rec, req)
			if got := rec.Header().Get("Cache-Control"); got != tt.want {
				t.Fatalf("Cache-Control = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMuxPattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users/{id}/reviews", func(http.ResponseWriter, *http.Request) {})
	route := MuxPattern(mux)

	if got := route(httptest.NewRequest(http.MethodGet, "/api/users/FL000001/reviews", nil)); got != "/api/users/{id}/reviews" {
		t.Fatalf("route = %q", got)
	}
	if got := route(httptest.NewRequest(http.MethodGet, "/missing", nil)); got != "unmatched" {
		t.Fatalf("route = %q", got)
	}
}
