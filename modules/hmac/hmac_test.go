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

package hmac

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestNewHMACSigner_MissingKey(t *testing.T) {
	if _, err := NewHMACSigner(nil); !errors.Is(err, ErrMissingKey) {
		t.Fatalf("expected ErrMissingKey, got %v", err)
	}
}

func TestSignVerify_RoundTrip(t *testing.T) {
	s, err := NewHMACSigner([]byte("secret"))
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	payload := []byte(`{"pivot":{"id":"x"}}`)

	tok, err := s.Sign(payload)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if strings.ContainsAny(tok, "+/=") {
		t.Fatalf("token is not url safe: %q", tok)
	}

	got, err := s.Verify(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch: got %q want %q", got, payload)
	}
}

func TestVerify_Rejects(t *testing.T) {
	s, _ := NewHMACSigner([]byte("secret"))
	other, _ := NewHMACSigner([]byte("other"))
	tok, _ := s.Sign([]byte("hello"))
	foreign, _ := other.Sign([]byte("hello"))
	payload, sig, _ := strings.Cut(tok, ".")

	cases := map[string]string{
		"empty":           "",
		"no separator":    payload,
		"extra segment":   tok + ".x",
		"foreign key":     foreign,
		"tampered body":   "aGVsbG8h." + sig,
		"bad sig base64":  payload + ".!!",
		"missing payload": "." + sig,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Verify(in); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}
