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

package pagination

import (
	"encoding/json"
	"time"

	"foodlog/modules/clock"
)

const DefaultCursorTTL = 24 * time.Hour

type Config struct {
	CursorTTL time.Duration `env:"CURSOR_TTL" envDefault:"24h"`
}

// Signer signs and verifies opaque tokens, e.g. *hmac.HMACSigner.
type Signer interface {
	// Sign returns signed token = base64url(payload) + "." + base64url(algo(payloadB64))
	Sign(payload []byte) (string, error)
	// Verify returns the original payload after validating signature
	Verify(token string) ([]byte, error)
}

type cursorToken struct {
	TTL   time.Time `json:"ttl"`
	Pivot Pivot     `json:"pivot"`
}

type cursorCodec struct {
	signer Signer
	clock  clock.Clock
	ttl    time.Duration
}

func (c *cursorCodec) Encode(p Pivot) (string, error) {
	b, err := json.Marshal(cursorToken{
		TTL:   c.clock.Now().Add(c.ttl).UTC(),
		Pivot: p,
	})
	if err != nil {
		return "", err
	}
	return c.signer.Sign(b)
}

func (c *cursorCodec) Decode(s string) (Pivot, error) {
	raw, err := c.signer.Verify(s)
	if err != nil {
		return Pivot{}, ErrInvalidCursor
	}
	var tok cursorToken
	if err := json.Unmarshal(raw, &tok); err != nil {
		return Pivot{}, ErrInvalidCursor
	}
	if tok.TTL.IsZero() || c.clock.Now().After(tok.TTL) {
		return Pivot{}, ErrInvalidCursor
	}
	if tok.Pivot.ID.IsNil() || tok.Pivot.CreatedAt.IsZero() {
		return Pivot{}, ErrInvalidCursor
	}
	return tok.Pivot, nil
}

type Paginator struct {
	codec *cursorCodec
	clock clock.Clock
}

type Option func(*Paginator)

func WithClock(c clock.Clock) Option {
	return func(p *Paginator) {
		if c != nil {
			p.clock = c
			p.codec.clock = c
		}
	}
}

// WithCursorTTL bounds how long an issued cursor stays valid.
func WithCursorTTL(ttl time.Duration) Option {
	return func(p *Paginator) {
		if ttl > 0 {
			p.codec.ttl = ttl
		}
	}
}

func New(signer Signer, opts ...Option) *Paginator {
	rc := clock.RealClockProvider()
	p := &Paginator{
		codec: &cursorCodec{signer: signer, clock: rc, ttl: DefaultCursorTTL},
		clock: rc,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}
