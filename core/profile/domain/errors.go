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

package domain

import "errors"

var (
	ErrDuplicateCode   = errors.New("profile code already allocated")
	ErrInvalidData     = errors.New("invalid data provided for profile operations")
	ErrUnhandled       = errors.New("unexpected error")
	ErrProfileNotFound = errors.New("profile not found")
	ErrCodeExhausted   = errors.New("profile code space exhausted")
)

// ValidationError is an ErrInvalidData with a message fit for the caller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidData
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}
