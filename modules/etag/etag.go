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

package etag

import (
	"fmt"
	"strings"
)

type ETaggable interface {
	V() string
}

// For HTTP headers, remember that the actual header value is usually quoted:
//
// fmt.Sprintf("%q", ETag(obj))
func ETag(obj ETaggable) string {
	return "v:" + obj.V()
}

// Header returns the quoted header form of ETag.
func Header(obj ETaggable) string {
	return `"` + ETag(obj) + `"`
}

func ParseETag(etag string) (string, error) {
	const prefix = "v:"
	if !strings.HasPrefix(etag, prefix) {
		return "", fmt.Errorf("invalid etag format")
	}
	return strings.TrimPrefix(etag, prefix), nil
}

// Matches reports whether an If-None-Match header value selects obj.
// Weak validators and lists are accepted, "*" matches anything.
func Matches(ifNoneMatch string, obj ETaggable) bool {
	if ifNoneMatch == "" {
		return false
	}
	want := ETag(obj)
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" {
			return true
		}
		candidate = strings.TrimPrefix(candidate, "W/")
		if strings.Trim(candidate, `"`) == want {
			return true
		}
	}
	return false
}
