package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/snapreviews/snapreviews/internal/domain"
	"github.com/snapreviews/snapreviews/pkg/database"
	apperrors "github.com/snapreviews/snapreviews/pkg/errors"
)

const (
	insertBusinessSQL = `
		INSERT INTO businesses (id, title, location, description, review_ids, average_rating, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	selectBusinessColumns = `id, title, location, description, review_ids, average_rating, created_at`

	getBusinessSQL = `SELECT ` + selectBusinessColumns + ` FROM businesses WHERE id = $1`

	listBusinessesSQL = `SELECT ` + selectBusinessColumns + ` FROM businesses ORDER BY created_at DESC`

	countBusinessesSQL = `SELECT COUNT(*) FROM businesses`

	updateBusinessDetailsSQL = `
		UPDATE businesses SET title = $2, location = $3, description = $4
		WHERE id = $1`

	saveBusinessReviewsSQL = `
		UPDATE businesses SET review_ids = $2, average_rating = $3
		WHERE id = $1`

	deleteBusinessSQL = `DELETE FROM businesses WHERE id = $1 RETURNING review_ids`
)

// BusinessRepository implements repository.BusinessRepository using PostgreSQL.
type BusinessRepository struct {
	pool database.DBTX
}

// NewBusinessRepository creates a new PostgreSQL-backed business repository.
func NewBusinessRepository(pool database.DBTX) *BusinessRepository {
	return &BusinessRepository{pool: pool}
}

// Create inserts a new business.
func (r *BusinessRepository) Create(ctx context.Context, b *domain.Business) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateBusiness", insertBusinessSQL)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, insertBusinessSQL,
		b.ID,
		b.Title,
		b.Location,
		b.Description,
		reviewIDs(b),
		b.AverageRating,
		b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert business: %w", err)
	}
	return nil
}

// GetByID returns the business with the given id. Reviews are not resolved.
func (r *BusinessRepository) GetByID(ctx context.Context, id string) (_ *domain.Business, err error) {
	ctx, end := database.TraceQuery(ctx, "GetBusiness", getBusinessSQL)
	defer func() { end(err) }()

	b, err := scanBusiness(r.pool.QueryRow(ctx, getBusinessSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("business", id)
		}
		return nil, fmt.Errorf("get business: %w", err)
	}
	return b, nil
}

// List returns all businesses, newest first.
func (r *BusinessRepository) List(ctx context.Context) (_ []domain.Business, err error) {
	ctx, end := database.TraceQuery(ctx, "ListBusinesses", listBusinessesSQL)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, listBusinessesSQL)
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	defer rows.Close()

	businesses := []domain.Business{}
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, fmt.Errorf("scan business row: %w", err)
		}
		businesses = append(businesses, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate business rows: %w", err)
	}

	return businesses, nil
}

// Count returns how many businesses exist.
func (r *BusinessRepository) Count(ctx context.Context) (n int, err error) {
	ctx, end := database.TraceQuery(ctx, "CountBusinesses", countBusinessesSQL)
	defer func() { end(err) }()

	if err = r.pool.QueryRow(ctx, countBusinessesSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("count businesses: %w", err)
	}
	return n, nil
}

// UpdateDetails overwrites the descriptive fields of a business.
func (r *BusinessRepository) UpdateDetails(ctx context.Context, b *domain.Business) (err error) {
	ctx, end := database.TraceQuery(ctx, "UpdateBusinessDetails", updateBusinessDetailsSQL)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, updateBusinessDetailsSQL, b.ID, b.Title, b.Location, b.Description)
	if err != nil {
		return fmt.Errorf("update business: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("business", b.ID)
	}
	return nil
}

// SaveReviews persists the review references and the average rating.
func (r *BusinessRepository) SaveReviews(ctx context.Context, b *domain.Business) (err error) {
	ctx, end := database.TraceQuery(ctx, "SaveBusinessReviews", saveBusinessReviewsSQL)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, saveBusinessReviewsSQL, b.ID, reviewIDs(b), b.AverageRating)
	if err != nil {
		return fmt.Errorf("save business reviews: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("business", b.ID)
	}
	return nil
}

// Delete removes the business and the reviews it references in one
// transaction.
func (r *BusinessRepository) Delete(ctx context.Context, id string) (deleted []string, err error) {
	ctx, end := database.TraceQuery(ctx, "DeleteBusiness", deleteBusinessSQL)
	defer func() { end(err) }()

	err = database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		var ids []string
		if err := tx.QueryRow(ctx, deleteBusinessSQL, id).Scan(&ids); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NotFound("business", id)
			}
			return fmt.Errorf("delete business: %w", err)
		}

		if _, err := NewReviewRepository(tx).DeleteByIDs(ctx, ids); err != nil {
			return fmt.Errorf("delete business reviews: %w", err)
		}

		deleted = ids
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func scanBusiness(row pgx.Row) (*domain.Business, error) {
	var b domain.Business
	if err := row.Scan(
		&b.ID,
		&b.Title,
		&b.Location,
		&b.Description,
		&b.ReviewIDs,
		&b.AverageRating,
		&b.CreatedAt,
	); err != nil {
		return nil, err
	}
	if b.ReviewIDs == nil {
		b.ReviewIDs = []string{}
	}
	return &b, nil
}

// reviewIDs never returns nil so the NOT NULL array column is satisfied.
func reviewIDs(b *domain.Business) []string {
	if b.ReviewIDs == nil {
		return []string{}
	}
	return b.ReviewIDs
}
