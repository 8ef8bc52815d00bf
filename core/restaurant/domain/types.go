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
	"strconv"
	"time"

	"foodlog/modules/pagination"

	"github.com/gofrs/uuid/v5"
)

type TagKind string

const (
	TagCuisine TagKind = "cuisine"
	TagDietary TagKind = "dietary"
	TagFeature TagKind = "feature"
)

type (
	Tag struct {
		Kind TagKind
		Name string
	}

	Restaurant struct {
		ID             uuid.UUID
		Name           string
		Description    *string
		PricePerPerson *float64
		// Rating is the mean of all review ratings, 0 without reviews.
		Rating      float64
		ReviewCount int
		Location    *string
		ImageURL    *string
		CreatedBy   uuid.UUID
		CreatedAt   time.Time
		UpdatedAt   time.Time

		// Tags is only loaded for single restaurant reads.
		Tags []Tag
	}

	Review struct {
		ID           uuid.UUID
		RestaurantID uuid.UUID
		UserID       uuid.UUID
		Rating       int
		Comment      *string
		AmountSpent  *float64
		CreatedAt    time.Time
		UpdatedAt    time.Time

		RestaurantName string
		AuthorName     string
	}

	List struct {
		ID              uuid.UUID
		UserID          uuid.UUID
		Name            string
		Description     *string
		IsPublic        bool
		RestaurantCount int
		CreatedAt       time.Time
		UpdatedAt       time.Time
	}

	NewRestaurant struct {
		Name           string
		Description    *string
		PricePerPerson *float64
		Location       *string
		ImageURL       *string
		CreatedBy      uuid.UUID
		Tags           []Tag
	}

	// ReviewInput is the author controlled part of a review.
	ReviewInput struct {
		Rating      int
		Comment     *string
		AmountSpent *float64
	}

	RestaurantFilter struct {
		Query     string
		Cuisine   string
		CreatedBy *uuid.UUID
	}

	// ReviewFilter selects the reviews of a restaurant, of a user, or both.
	ReviewFilter struct {
		RestaurantID *uuid.UUID
		UserID       *uuid.UUID
	}

	ListFilter struct {
		UserID         uuid.UUID
		IncludePrivate bool
	}

	ReconcileReport struct {
		Restaurants int
		Failed      int
	}
)

// V changes whenever the representation does; rating recomputes leave
// updated_at alone.
func (r *Restaurant) V() string {
	return strconv.FormatInt(r.UpdatedAt.UnixMicro(), 10) + "-" +
		strconv.FormatFloat(r.Rating, 'g', -1, 64) + "-" +
		strconv.Itoa(r.ReviewCount)
}

func (r Restaurant) PagePivot() pagination.Pivot {
	return pagination.Pivot{CreatedAt: r.CreatedAt, ID: r.ID}
}

// TagsOf returns the names of the tags of kind k, in order.
func (r Restaurant) TagsOf(k TagKind) []string {
	out := []string{}
	for _, t := range r.Tags {
		if t.Kind == k {
			out = append(out, t.Name)
		}
	}
	return out
}

func (r *Review) V() string {
	return strconv.FormatInt(r.UpdatedAt.UnixMicro(), 10)
}

func (r Review) PagePivot() pagination.Pivot {
	return pagination.Pivot{CreatedAt: r.CreatedAt, ID: r.ID}
}

func (l List) PagePivot() pagination.Pivot {
	return pagination.Pivot{CreatedAt: l.CreatedAt, ID: l.ID}
}
