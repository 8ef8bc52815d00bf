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
	"math"
	"net/url"
	"strings"
	"unicode/utf8"
)

const (
	MinRating = 1
	MaxRating = 5

	maxCommentLen     = 1000
	maxNameLen        = 200
	maxDescriptionLen = 2000
	maxLocationLen    = 200
	maxQueryLen       = 100
	maxTagLen         = 50
)

// Normalize trims the comment, dropping it when blank.
func (in ReviewInput) Normalize() ReviewInput {
	in.Comment = trimmedOrNil(in.Comment)
	return in
}

func (in ReviewInput) Validate() error {
	if in.Rating < MinRating || in.Rating > MaxRating {
		return invalid("rating", "Rating must be between 1 and 5")
	}
	if in.Comment != nil && utf8.RuneCountInString(*in.Comment) > maxCommentLen {
		return invalid("comment", "Comment must be at most 1000 characters")
	}
	if in.AmountSpent != nil {
		if v := *in.AmountSpent; !(v > 0) || math.IsInf(v, 1) {
			return invalid("amount_spent", "Amount spent must be a positive number")
		}
	}
	return nil
}

// Normalize trims text fields and deduplicates tags by kind and name.
func (r NewRestaurant) Normalize() NewRestaurant {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = trimmedOrNil(r.Description)
	r.Location = trimmedOrNil(r.Location)
	r.ImageURL = trimmedOrNil(r.ImageURL)

	seen := make(map[Tag]struct{}, len(r.Tags))
	tags := make([]Tag, 0, len(r.Tags))
	for _, t := range r.Tags {
		t.Name = strings.TrimSpace(t.Name)
		if t.Name == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	r.Tags = tags
	return r
}

func (r NewRestaurant) Validate() error {
	switch {
	case r.Name == "":
		return invalid("name", "Name is required")
	case utf8.RuneCountInString(r.Name) > maxNameLen:
		return invalid("name", "Name must be at most 200 characters")
	case r.Description != nil && utf8.RuneCountInString(*r.Description) > maxDescriptionLen:
		return invalid("description", "Description must be at most 2000 characters")
	case r.Location != nil && utf8.RuneCountInString(*r.Location) > maxLocationLen:
		return invalid("location", "Location must be at most 200 characters")
	}
	if r.PricePerPerson != nil {
		if v := *r.PricePerPerson; !(v >= 0) || math.IsInf(v, 1) {
			return invalid("price_per_person", "Price per person must not be negative")
		}
	}
	if r.ImageURL != nil && !isHTTPURL(*r.ImageURL) {
		return invalid("image_url", "Image URL must be an http(s) URL")
	}
	for _, t := range r.Tags {
		switch t.Kind {
		case TagCuisine, TagDietary, TagFeature:
		default:
			return invalid("tags", "Unknown tag kind")
		}
		if utf8.RuneCountInString(t.Name) > maxTagLen {
			return invalid("tags", "Tag names must be at most 50 characters")
		}
	}
	return nil
}

func (f RestaurantFilter) normalize() (RestaurantFilter, error) {
	f.Query = strings.TrimSpace(f.Query)
	f.Cuisine = strings.TrimSpace(f.Cuisine)
	if utf8.RuneCountInString(f.Query) > maxQueryLen {
		return f, invalid("q", "Search query must be at most 100 characters")
	}
	if utf8.RuneCountInString(f.Cuisine) > maxTagLen {
		return f, invalid("cuisine", "Cuisine must be at most 50 characters")
	}
	return f, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
