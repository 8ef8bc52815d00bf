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

package pg

import (
	"context"
	"fmt"
	"time"

	"foodlog/core/restaurant/domain"
	"foodlog/modules/db"
	"foodlog/modules/db/postgres"

	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/stephenafamo/scan"
)

var _ domain.RestaurantWriteStore = (*PostgresRestaurantWriter)(nil)

const linkTagSQL = `INSERT INTO restaurant_tags (restaurant_id, tag_id)
SELECT ?, t.id FROM tags t WHERE t.kind = ? AND lower(t.name) = lower(?)
ON CONFLICT DO NOTHING`

type (
	PostgresRestaurantWriter struct {
		db  *bob.DB // for prepared statements on primary
		txm db.TxManager

		stmts reviewStmts
	}

	reviewStmts struct {
		insert    bob.QueryStmt[insertReviewArgs, uuid.UUID, []uuid.UUID]
		update    bob.QueryStmt[updateReviewArgs, uuid.UUID, []uuid.UUID]
		delete    bob.QueryStmt[authoredReviewArgs, uuid.UUID, []uuid.UUID]
		ratings   bob.QueryStmt[restaurantArgs, int, []int]
		setRating bob.QueryStmt[setRatingArgs, uuid.UUID, []uuid.UUID]
	}

	insertReviewArgs struct {
		RestaurantID uuid.UUID `db:"restaurant_id"`
		UserID       uuid.UUID `db:"user_id"`
		Rating       int       `db:"rating"`
		Comment      *string   `db:"comment"`
		AmountSpent  *float64  `db:"amount_spent"`
	}

	updateReviewArgs struct {
		ID          uuid.UUID `db:"id"`
		UserID      uuid.UUID `db:"user_id"`
		Rating      int       `db:"rating"`
		Comment     *string   `db:"comment"`
		AmountSpent *float64  `db:"amount_spent"`
	}

	authoredReviewArgs struct {
		ID     uuid.UUID `db:"id"`
		UserID uuid.UUID `db:"user_id"`
	}

	restaurantArgs struct {
		RestaurantID uuid.UUID `db:"restaurant_id"`
	}

	setRatingArgs struct {
		RestaurantID uuid.UUID `db:"restaurant_id"`
		Rating       float64   `db:"rating"`
	}
)

// NewPostgresRestaurantWriter prepares the review statements on the primary.
func NewPostgresRestaurantWriter(ctx context.Context, pool db.ConnectionPool) (*PostgresRestaurantWriter, error) {
	primary := pool.Writer().(bob.DB)

	w := &PostgresRestaurantWriter{
		db:  &primary,
		txm: pool,
	}

	var err error

	// INSERT ... RETURNING id
	w.stmts.insert, err = bob.PrepareQuery[insertReviewArgs](ctx, primary, psql.Insert(
		im.Into("reviews", "restaurant_id", "user_id", "rating", "comment", "amount_spent"),
		im.Values(
			bob.Named("restaurant_id"),
			bob.Named("user_id"),
			bob.Named("rating"),
			bob.Named("comment"),
			bob.Named("amount_spent"),
		),
		im.Returning("id"),
	), scan.SingleColumnMapper[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("prepare insert review: %w", err)
	}

	// UPDATE ... WHERE id AND user_id RETURNING id
	w.stmts.update, err = bob.PrepareQuery[updateReviewArgs](ctx, primary, psql.Update(
		um.Table("reviews"),
		um.SetCol("rating").To(bob.Named("rating")),
		um.SetCol("comment").To(bob.Named("comment")),
		um.SetCol("amount_spent").To(bob.Named("amount_spent")),
		um.SetCol("updated_at").To(psql.Raw("now()")),
		um.Where(psql.Quote("id").EQ(bob.Named("id"))),
		um.Where(psql.Quote("user_id").EQ(bob.Named("user_id"))),
		um.Returning("id"),
	), scan.SingleColumnMapper[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("prepare update review: %w", err)
	}

	// DELETE ... WHERE id AND user_id RETURNING restaurant_id
	w.stmts.delete, err = bob.PrepareQuery[authoredReviewArgs](ctx, primary, psql.Delete(
		dm.From("reviews"),
		dm.Where(psql.Quote("id").EQ(bob.Named("id"))),
		dm.Where(psql.Quote("user_id").EQ(bob.Named("user_id"))),
		dm.Returning("restaurant_id"),
	), scan.SingleColumnMapper[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("prepare delete review: %w", err)
	}

	w.stmts.ratings, err = bob.PrepareQuery[restaurantArgs](ctx, primary, psql.Select(
		sm.Columns("rating"),
		sm.From("reviews"),
		sm.Where(psql.Quote("restaurant_id").EQ(bob.Named("restaurant_id"))),
	), scan.SingleColumnMapper[int])
	if err != nil {
		return nil, fmt.Errorf("prepare review ratings: %w", err)
	}

	w.stmts.setRating, err = bob.PrepareQuery[setRatingArgs](ctx, primary, psql.Update(
		um.Table("restaurants"),
		um.SetCol("rating").To(bob.Named("rating")),
		um.Where(psql.Quote("id").EQ(bob.Named("restaurant_id"))),
		um.Returning("id"),
	), scan.SingleColumnMapper[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("prepare set rating: %w", err)
	}

	return w, nil
}

// inTx rebinds every statement to tx.
func (s reviewStmts) inTx(ctx context.Context, tx bob.Tx) reviewStmts {
	return reviewStmts{
		insert:    inTxQueryStmt(ctx, s.insert, tx),
		update:    inTxQueryStmt(ctx, s.update, tx),
		delete:    inTxQueryStmt(ctx, s.delete, tx),
		ratings:   inTxQueryStmt(ctx, s.ratings, tx),
		setRating: inTxQueryStmt(ctx, s.setRating, tx),
	}
}

// createRestaurant is left unprepared because tags are linked one statement each.
func createRestaurant(ctx context.Context, exec db.Querier, r domain.NewRestaurant) (*domain.Restaurant, error) {
	query := psql.Insert(
		im.Into("restaurants", "name", "description", "price_per_person", "location", "image_url", "created_by"),
		im.Values(psql.Arg(r.Name, r.Description, r.PricePerPerson, r.Location, r.ImageURL, r.CreatedBy)),
		im.Returning("id"),
	)
	id, err := bob.One(ctx, exec, query, scan.SingleColumnMapper[uuid.UUID])
	if err != nil {
		return nil, wrapError(err, domain.ErrUnhandled)
	}

	for _, t := range r.Tags {
		if _, err := bob.Exec(ctx, exec, psql.RawQuery(linkTagSQL, id, string(t.Kind), t.Name)); err != nil {
			return nil, wrapError(err, domain.ErrUnhandled)
		}
	}

	return selectRestaurant(ctx, exec, id)
}

func insertReview(ctx context.Context, exec db.Querier, stmts reviewStmts, restaurantID, userID uuid.UUID, in domain.ReviewInput) (*domain.Review, error) {
	id, err := stmts.insert.One(ctx, insertReviewArgs{
		RestaurantID: restaurantID,
		UserID:       userID,
		Rating:       in.Rating,
		Comment:      in.Comment,
		AmountSpent:  in.AmountSpent,
	})
	if err != nil {
		return nil, wrapError(err, domain.ErrRestaurantNotFound)
	}
	return selectReview(ctx, exec, id)
}

func updateReview(ctx context.Context, exec db.Querier, stmts reviewStmts, id, userID uuid.UUID, in domain.ReviewInput) (*domain.Review, error) {
	_, err := stmts.update.One(ctx, updateReviewArgs{
		ID:          id,
		UserID:      userID,
		Rating:      in.Rating,
		Comment:     in.Comment,
		AmountSpent: in.AmountSpent,
	})
	if err != nil {
		return nil, wrapError(err, domain.ErrReviewNotFound)
	}
	return selectReview(ctx, exec, id)
}

func deleteReview(ctx context.Context, stmts reviewStmts, id, userID uuid.UUID) (uuid.UUID, error) {
	restaurantID, err := stmts.delete.One(ctx, authoredReviewArgs{ID: id, UserID: userID})
	if err != nil {
		return uuid.Nil, wrapError(err, domain.ErrReviewNotFound)
	}
	return restaurantID, nil
}

// reviewRatings takes the restaurant row lock first so concurrent review
// writers recompute one after another and the last one sees every rating.
func reviewRatings(ctx context.Context, exec db.Querier, stmts reviewStmts, restaurantID uuid.UUID) ([]int, error) {
	lock := psql.Select(
		sm.Columns("id"),
		sm.From("restaurants"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(restaurantID))),
		sm.ForUpdate(),
	)
	if _, err := bob.One(ctx, exec, lock, scan.SingleColumnMapper[uuid.UUID]); err != nil {
		return nil, wrapError(err, domain.ErrRestaurantNotFound)
	}

	ratings, err := stmts.ratings.All(ctx, restaurantArgs{RestaurantID: restaurantID})
	if err != nil {
		return nil, wrapError(err, domain.ErrRestaurantNotFound)
	}
	return ratings, nil
}

func setRating(ctx context.Context, stmts reviewStmts, restaurantID uuid.UUID, rating float64) error {
	_, err := stmts.setRating.One(ctx, setRatingArgs{RestaurantID: restaurantID, Rating: rating})
	return wrapError(err, domain.ErrRestaurantNotFound)
}

func (w *PostgresRestaurantWriter) CreateRestaurant(ctx context.Context, r domain.NewRestaurant) (*domain.Restaurant, error) {
	return createRestaurant(ctx, w.db, r)
}

func (w *PostgresRestaurantWriter) InsertReview(ctx context.Context, restaurantID, userID uuid.UUID, in domain.ReviewInput) (*domain.Review, error) {
	return insertReview(ctx, w.db, w.stmts, restaurantID, userID, in)
}

func (w *PostgresRestaurantWriter) UpdateReview(ctx context.Context, id, userID uuid.UUID, in domain.ReviewInput) (*domain.Review, error) {
	return updateReview(ctx, w.db, w.stmts, id, userID, in)
}

func (w *PostgresRestaurantWriter) DeleteReview(ctx context.Context, id, userID uuid.UUID) (uuid.UUID, error) {
	return deleteReview(ctx, w.stmts, id, userID)
}

func (w *PostgresRestaurantWriter) ReviewRatings(ctx context.Context, restaurantID uuid.UUID) ([]int, error) {
	return reviewRatings(ctx, w.db, w.stmts, restaurantID)
}

func (w *PostgresRestaurantWriter) SetRating(ctx context.Context, restaurantID uuid.UUID, rating float64) error {
	return setRating(ctx, w.stmts, restaurantID, rating)
}

// WithSavepoint outside a transaction just runs fn; every statement commits on its own.
func (w *PostgresRestaurantWriter) WithSavepoint(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// WithTx implements RestaurantWriteStore transaction support.
func (w *PostgresRestaurantWriter) WithTx(
	ctx context.Context,
	fn func(ctx context.Context, tx domain.RestaurantWriteTx) error,
) error {
	return w.txm.WithTx(ctx, w.txFn(fn))
}

// WithTimeoutTx implements RestaurantWriteStore transaction support with timeout.
func (w *PostgresRestaurantWriter) WithTimeoutTx(
	ctx context.Context,
	timeout time.Duration,
	fn func(ctx context.Context, tx domain.RestaurantWriteTx) error,
) error {
	return w.txm.WithTimeoutTx(ctx, timeout, w.txFn(fn))
}

func (w *PostgresRestaurantWriter) txFn(fn func(ctx context.Context, tx domain.RestaurantWriteTx) error) db.TxFn {
	return func(ctx context.Context, q db.Querier) error {
		tx, ok := q.(bob.Tx)
		if !ok {
			return fmt.Errorf("querier is not a transaction")
		}
		return fn(ctx, &restaurantWriterTx{tx: tx, stmts: w.stmts.inTx(ctx, tx)})
	}
}

// restaurantWriterTx is a transaction-scoped writer that reuses prepared statements.
type restaurantWriterTx struct {
	tx    bob.Tx
	stmts reviewStmts
}

var _ domain.RestaurantWriteTx = (*restaurantWriterTx)(nil)

func (t *restaurantWriterTx) CreateRestaurant(ctx context.Context, r domain.NewRestaurant) (*domain.Restaurant, error) {
	return createRestaurant(ctx, t.tx, r)
}

func (t *restaurantWriterTx) InsertReview(ctx context.Context, restaurantID, userID uuid.UUID, in domain.ReviewInput) (*domain.Review, error) {
	return insertReview(ctx, t.tx, t.stmts, restaurantID, userID, in)
}

func (t *restaurantWriterTx) UpdateReview(ctx context.Context, id, userID uuid.UUID, in domain.ReviewInput) (*domain.Review, error) {
	return updateReview(ctx, t.tx, t.stmts, id, userID, in)
}

func (t *restaurantWriterTx) DeleteReview(ctx context.Context, id, userID uuid.UUID) (uuid.UUID, error) {
	return deleteReview(ctx, t.stmts, id, userID)
}

func (t *restaurantWriterTx) ReviewRatings(ctx context.Context, restaurantID uuid.UUID) ([]int, error) {
	return reviewRatings(ctx, t.tx, t.stmts, restaurantID)
}

func (t *restaurantWriterTx) SetRating(ctx context.Context, restaurantID uuid.UUID, rating float64) error {
	return setRating(ctx, t.stmts, restaurantID, rating)
}

func (t *restaurantWriterTx) WithSavepoint(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	return postgres.WithSavepoint(ctx, t.tx, name, fn)
}
