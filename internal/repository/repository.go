package repository

import (
	"context"
	"time"

	"github.com/snapreviews/snapreviews/internal/domain"
)

// BusinessRepository defines persistence operations for businesses.
type BusinessRepository interface {
	// Create inserts a new business.
	Create(ctx context.Context, business *domain.Business) error

	// GetByID returns a business without resolving its reviews.
	GetByID(ctx context.Context, id string) (*domain.Business, error)

	// List returns every business, newest first.
	List(ctx context.Context) ([]domain.Business, error)

	// Count returns the number of stored businesses.
	Count(ctx context.Context) (int, error)

	// UpdateDetails overwrites title, location and description.
	UpdateDetails(ctx context.Context, business *domain.Business) error

	// SaveReviews persists the review references and average rating.
	SaveReviews(ctx context.Context, business *domain.Business) error

	// Delete removes a business together with the reviews it references,
	// atomically. It returns the review ids the business referenced.
	Delete(ctx context.Context, id string) ([]string, error)
}

// ReviewRepository defines persistence operations for reviews.
type ReviewRepository interface {
	// Create inserts a new review.
	Create(ctx context.Context, review *domain.Review) error

	// GetByIDs resolves review references. Ids that do not exist are skipped.
	GetByIDs(ctx context.Context, ids []string) ([]domain.Review, error)

	// Delete removes a review. Deleting a missing review is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteByIDs removes every review in ids and returns how many existed.
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

// Session is the server-side state behind a session cookie.
type Session struct {
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore keeps sessions by opaque id with a sliding TTL.
type SessionStore interface {
	// Get returns the session or apperrors.ErrNotFound if it does not exist
	// or has expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Save stores the session and refreshes its TTL.
	Save(ctx context.Context, id string, session *Session) error

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
