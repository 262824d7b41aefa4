package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/snapreviews/snapreviews/internal/domain"
	"github.com/snapreviews/snapreviews/internal/event"
	"github.com/snapreviews/snapreviews/internal/repository"
	apperrors "github.com/snapreviews/snapreviews/pkg/errors"
)

// AddReviewInput holds the parameters for adding a review.
type AddReviewInput struct {
	Rating int
	Body   string
}

// ReviewService implements adding and removing reviews. Every mutation
// recomputes the business's average rating from its resolved reviews.
type ReviewService struct {
	businesses repository.BusinessRepository
	reviews    repository.ReviewRepository
	producer   *event.Producer
	logger     *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	businesses repository.BusinessRepository,
	reviews repository.ReviewRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		businesses: businesses,
		reviews:    reviews,
		producer:   producer,
		logger:     logger,
	}
}

// AddReview creates a review, attaches it to the business and recomputes the
// business's average rating. The steps are not atomic: a failure after the
// review is stored leaves it unreferenced.
func (s *ReviewService) AddReview(ctx context.Context, role domain.Role, businessID string, input AddReviewInput) (*domain.Business, *domain.Review, error) {
	if err := Authorize(role, domain.ActionAddReview); err != nil {
		return nil, nil, err
	}

	input.Body = strings.TrimSpace(input.Body)
	if input.Rating < domain.MinRating || input.Rating > domain.MaxRating {
		return nil, nil, apperrors.InvalidInput(fmt.Sprintf("rating must be between %d and %d", domain.MinRating, domain.MaxRating))
	}
	if input.Body == "" {
		return nil, nil, apperrors.InvalidInput("review body is required")
	}

	b, err := s.businesses.GetByID(ctx, businessID)
	if err != nil {
		return nil, nil, fmt.Errorf("get business: %w", err)
	}

	review := &domain.Review{
		ID:        uuid.New().String(),
		Rating:    input.Rating,
		Body:      input.Body,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, nil, fmt.Errorf("create review: %w", err)
	}

	b.AddReviewID(review.ID)
	if err := s.recomputeAndSave(ctx, b); err != nil {
		return nil, nil, err
	}

	if err := s.producer.PublishReviewAdded(ctx, b, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.added event",
			slog.String("business_id", b.ID),
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review added",
		slog.String("business_id", b.ID),
		slog.String("review_id", review.ID),
		slog.Int("rating", review.Rating),
		slog.Float64("average_rating", b.AverageRating),
	)

	return b, review, nil
}

// RemoveReview detaches a review from the business, deletes it and
// recomputes the average rating. Removing a review the business does not
// reference deletes nothing but still recomputes and saves the business.
func (s *ReviewService) RemoveReview(ctx context.Context, role domain.Role, businessID, reviewID string) (*domain.Business, error) {
	if err := Authorize(role, domain.ActionRemoveReview); err != nil {
		return nil, err
	}

	b, err := s.businesses.GetByID(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("get business: %w", err)
	}

	removed := b.RemoveReviewID(reviewID)
	if removed {
		if err := s.reviews.Delete(ctx, reviewID); err != nil {
			return nil, fmt.Errorf("delete review: %w", err)
		}
	}

	if err := s.recomputeAndSave(ctx, b); err != nil {
		return nil, err
	}

	if removed {
		if err := s.producer.PublishReviewRemoved(ctx, b, reviewID); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish review.removed event",
				slog.String("business_id", b.ID),
				slog.String("review_id", reviewID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "review removed",
		slog.String("business_id", b.ID),
		slog.String("review_id", reviewID),
		slog.Bool("referenced", removed),
		slog.Float64("average_rating", b.AverageRating),
	)

	return b, nil
}

// recomputeAndSave resolves the current review references, recomputes the
// average rating from them and persists both.
func (s *ReviewService) recomputeAndSave(ctx context.Context, b *domain.Business) error {
	resolved, err := s.reviews.GetByIDs(ctx, b.ReviewIDs)
	if err != nil {
		return fmt.Errorf("resolve reviews: %w", err)
	}
	b.Recompute(resolved)

	if err := s.businesses.SaveReviews(ctx, b); err != nil {
		return fmt.Errorf("save business reviews: %w", err)
	}
	return nil
}
