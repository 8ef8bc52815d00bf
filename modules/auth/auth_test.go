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
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
)

func newVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := NewVerifier(Config{JWTSecret: "test-secret", Audience: "authenticated", Issuer: "https://auth.local"})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	return v
}

func TestVerify_IssuedToken(t *testing.T) {
	v := newVerifier(t)
	want := Caller{ID: uuid.Must(uuid.NewV4()), Email: "ana@example.com"}

	tok, err := v.Issue(want, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, err := v.Verify(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != want {
		t.Fatalf("caller = %+v, want %+v", got, want)
	}
}

func TestVerify_Rejects(t *testing.T) {
	v := newVerifier(t)
	other, _ := NewVerifier(Config{JWTSecret: "other-secret", Audience: "authenticated", Issuer: "https://auth.local"})
	caller := Caller{ID: uuid.Must(uuid.NewV4())}

	expired, _ := v.Issue(caller, time.Minute, time.Now().Add(-2*time.Hour))
	foreign, _ := other.Issue(caller, time.Hour, time.Now())
	badSubject, _ := v.Issue(Caller{ID: uuid.Nil}, time.Hour, time.Now())

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   caller.ID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	cases := map[string]string{
		"garbage":     "abc.def.ghi",
		"expired":     expired,
		"foreign key": foreign,
		"nil subject": badSubject,
		"alg none":    unsigned,
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := v.Verify(tok); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		err    error
	}{
		{"", "", ErrMissingToken},
		{"Bearer abc", "abc", nil},
		{"bearer   abc ", "abc", nil},
		{"Basic abc", "", ErrInvalidToken},
		{"Bearer", "", ErrInvalidToken},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		got, err := BearerToken(r)
		if !errors.Is(err, tt.err) || got != tt.token {
			t.Errorf("BearerToken(%q) = %q, %v", tt.header, got, err)
		}
	}
}

func TestMiddleware(t *testing.T) {
	v := newVerifier(t)
	caller := Caller{ID: uuid.Must(uuid.NewV4()), Email: "ana@example.com"}
	tok, _ := v.Issue(caller, time.Hour, time.Now())

	var seen *uuid.UUID
	h := Middleware(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CallerID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("anonymous", func(t *testing.T) {
		seen = nil
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusNoContent || seen != nil {
			t.Fatalf("code=%d caller=%v", rec.Code, seen)
		}
	})

	t.Run("valid", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+tok)
		h.ServeHTTP(rec, r)
		if rec.Code != http.StatusNoContent || seen == nil || *seen != caller.ID {
			t.Fatalf("code=%d caller=%v", rec.Code, seen)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer nope")
		h.ServeHTTP(rec, r)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("code = %d", rec.Code)
		}
		var body map[string]any
		_ = json.Unmarshal(rec.Body.Bytes(), &body)
		if body["error"] != "Invalid or expired session" {
			t.Fatalf("body = %v", body)
		}
	})
}

func TestRequire(t *testing.T) {
	h := Require(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous code = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(WithCaller(r.Context(), Caller{ID: uuid.Must(uuid.NewV4())}))
	h(rec, r)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated code = %d", rec.Code)
	}
}
