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

import (
	"regexp"
	"strconv"
	"time"

	"foodlog/modules/pagination"

	"github.com/gofrs/uuid/v5"
	"github.com/oapi-codegen/nullable"
)

var codePattern = regexp.MustCompile(`^[A-Z]{2}\d{6}$`)

// IsProfileCode reports whether s has the shape of a human readable profile code.
func IsProfileCode(s string) bool {
	return codePattern.MatchString(s)
}

type (
	// Profile is the domain model used by the application layer.
	Profile struct {
		ID          uuid.UUID
		Code        string
		DisplayName string
		AvatarURL   *string
		Bio         *string
		Location    *string
		Website     *string
		Phone       *string
		IsPublic    bool
		CreatedAt   time.Time
		UpdatedAt   time.Time

		Stats Stats
	}

	// Stats are derived at read time, never stored.
	Stats struct {
		RestaurantsVisited int
		ReviewsWritten     int
		ListsCreated       int
		RestaurantsAdded   int
	}

	NewProfile struct {
		ID          uuid.UUID
		Code        string
		DisplayName string
		IsPublic    bool
	}

	// ModifyProfileParams carries PATCH semantics per field: unspecified
	// fields are left alone, null clears the column.
	ModifyProfileParams struct {
		DisplayName nullable.Nullable[string]
		AvatarURL   nullable.Nullable[string]
		Bio         nullable.Nullable[string]
		Location    nullable.Nullable[string]
		Website     nullable.Nullable[string]
		Phone       nullable.Nullable[string]
		IsPublic    nullable.Nullable[bool]
	}
)

// V covers the derived stats, which change without touching updated_at.
func (p *Profile) V() string {
	return strconv.FormatInt(p.UpdatedAt.UnixMicro(), 10) + "-" +
		strconv.Itoa(p.Stats.RestaurantsVisited) + "-" +
		strconv.Itoa(p.Stats.ReviewsWritten) + "-" +
		strconv.Itoa(p.Stats.ListsCreated) + "-" +
		strconv.Itoa(p.Stats.RestaurantsAdded)
}

func (p Profile) PagePivot() pagination.Pivot {
	return pagination.Pivot{CreatedAt: p.CreatedAt, ID: p.ID}
}
