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

package serde

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gofrs/uuid/v5"
)

// MaxBodyBytes bounds request bodies decoded with ParseJsonBody.
const MaxBodyBytes = 1 << 20

var ErrEmptyBody = errors.New("empty request body")

func ParseJsonBody[T any](body io.ReadCloser, valuePtr *T) error {
	if body == nil {
		return ErrEmptyBody
	}
	defer body.Close()
	dec := json.NewDecoder(io.LimitReader(body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(valuePtr); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return err
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ParseUUID accepts any RFC 4122 textual form.
func ParseUUID(idStr string) (uuid.UUID, bool) {
	uid, err := uuid.FromString(idStr)
	if err != nil || uid.IsNil() {
		return uuid.Nil, false
	}
	return uid, true
}

func Ptr[T any](v T) *T {
	return &v
}

// Deref returns the zero value for nil pointers.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
