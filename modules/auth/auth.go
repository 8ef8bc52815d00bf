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

// Package auth resolves the calling identity from bearer session tokens issued
// by the hosted auth provider (HS256 JWTs whose subject is the user id).
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/oapi-codegen/runtime/types"
)

type Config struct {
	JWTSecret string        `env:"JWT_SECRET,notEmpty"`
	Issuer    string        `env:"ISSUER"`
	Audience  string        `env:"AUDIENCE" envDefault:"authenticated"`
	Leeway    time.Duration `env:"LEEWAY" envDefault:"30s"`
}

var (
	ErrMissingToken = errors.New("auth: missing bearer token")
	ErrInvalidToken = errors.New("auth: invalid token")
)

type (
	Caller struct {
		ID    uuid.UUID
		Email types.Email
	}

	Claims struct {
		Email string `json:"email,omitempty"`
		Role  string `json:"role,omitempty"`
		jwt.RegisteredClaims
	}

	TokenVerifier interface {
		Verify(token string) (Caller, error)
	}

	Verifier struct {
		secret   []byte
		issuer   string
		audience string
		parser   *jwt.Parser
	}
)

var _ TokenVerifier = (*Verifier)(nil)

func NewVerifier(cfg Config) (*Verifier, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("auth: empty jwt secret")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	return &Verifier{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		parser:   jwt.NewParser(opts...),
	}, nil
}

func (v *Verifier) Verify(tokenString string) (Caller, error) {
	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return Caller{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := uuid.FromString(claims.Subject)
	if err != nil || id.IsNil() {
		return Caller{}, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}
	return Caller{ID: id, Email: types.Email(claims.Email)}, nil
}

// Issue signs a session token for c. The hosted provider issues production
// tokens; this exists for local tooling and tests.
func (v *Verifier) Issue(c Caller, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		Email: string(c.Email),
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.ID.String(),
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if v.audience != "" {
		claims.Audience = jwt.ClaimStrings{v.audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, error) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if h == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrInvalidToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidToken
	}
	return token, nil
}

type callerKey struct{}

func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

func CallerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}

// CallerID returns nil for anonymous requests.
func CallerID(ctx context.Context) *uuid.UUID {
	c, ok := CallerFrom(ctx)
	if !ok {
		return nil
	}
	id := c.ID
	return &id
}
