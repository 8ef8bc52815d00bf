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
	"context"

	"foodlog/modules/cache"

	"github.com/gofrs/uuid/v5"
)

func (app *Application) GetRestaurant(ctx context.Context, id uuid.UUID) (*Restaurant, error) {
	if id.IsNil() {
		return nil, ErrRestaurantNotFound
	}
	r, err := app.reader.GetRestaurant(ctx, id)
	if err != nil {
		return nil, unhandled(ctx, err)
	}
	return r, nil
}

// CreateRestaurant adds a restaurant on behalf of r.CreatedBy and links the
// known tags it names.
func (app *Application) CreateRestaurant(ctx context.Context, r NewRestaurant) (*Restaurant, error) {
	r = r.Normalize()
	if err := r.Validate(); err != nil {
		return nil, err
	}

	var created *Restaurant
	err := app.writer.WithTimeoutTx(ctx, txTimeout, func(ctx context.Context, tx RestaurantWriteTx) error {
		var err error
		created, err = tx.CreateRestaurant(ctx, r)
		return err
	})
	if err != nil {
		return nil, unhandled(ctx, err)
	}

	app.cache.Bump(ctx, cache.ScopeRestaurants, cache.UserScope(r.CreatedBy.String()))
	return created, nil
}
