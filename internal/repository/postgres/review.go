package postgres

import (
	"context"
	"fmt"

	"github.com/snapreviews/snapreviews/internal/domain"
	"github.com/snapreviews/snapreviews/pkg/database"
)

const (
	insertReviewSQL = `
		INSERT INTO reviews (id, rating, body, created_at)
		VALUES ($1, $2, $3, $4)`

	getReviewsByIDsSQL = `
		SELECT id, rating, body, created_at
		FROM reviews
		WHERE id = ANY($1)
		ORDER BY created_at DESC`

	deleteReviewSQL = `DELETE FROM reviews WHERE id = $1`

	deleteReviewsByIDsSQL = `DELETE FROM reviews WHERE id = ANY($1)`
)

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
// pool may be a transaction.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts a new review.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateReview", insertReviewSQL)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, insertReviewSQL,
		review.ID,
		review.Rating,
		review.Body,
		review.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// GetByIDs returns the reviews whose ids are in ids, newest first.
func (r *ReviewRepository) GetByIDs(ctx context.Context, ids []string) (_ []domain.Review, err error) {
	if len(ids) == 0 {
		return []domain.Review{}, nil
	}

	ctx, end := database.TraceQuery(ctx, "GetReviewsByIDs", getReviewsByIDsSQL)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, getReviewsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("get reviews: %w", err)
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.Rating, &rv.Body, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}

	return reviews, nil
}

// Delete removes a single review. A missing review is not an error.
func (r *ReviewRepository) Delete(ctx context.Context, id string) (err error) {
	ctx, end := database.TraceQuery(ctx, "DeleteReview", deleteReviewSQL)
	defer func() { end(err) }()

	if _, err = r.pool.Exec(ctx, deleteReviewSQL, id); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return nil
}

// DeleteByIDs removes every review in ids.
func (r *ReviewRepository) DeleteByIDs(ctx context.Context, ids []string) (_ int64, err error) {
	if len(ids) == 0 {
		return 0, nil
	}

	ctx, end := database.TraceQuery(ctx, "DeleteReviewsByIDs", deleteReviewsByIDsSQL)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, deleteReviewsByIDsSQL, ids)
	if err != nil {
		return 0, fmt.Errorf("delete reviews: %w", err)
	}
	return tag.RowsAffected(), nil
}
