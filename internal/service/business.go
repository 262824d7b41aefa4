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

// forbiddenMessages are shown to clients whose role may not perform an action.
var forbiddenMessages = map[domain.Action]string{
	domain.ActionCreateBusiness: "only business owners can add businesses",
	domain.ActionUpdateBusiness: "only business owners can update businesses",
	domain.ActionDeleteBusiness: "only business owners can delete businesses",
	domain.ActionAddReview:      "only consumers can add reviews",
	domain.ActionRemoveReview:   "only owners or consumers can remove reviews",
}

// Authorize returns a Forbidden error unless role may perform action.
// Handlers call it before reading a request body so a disallowed role is
// rejected ahead of validation.
func Authorize(role domain.Role, action domain.Action) error {
	if role.Can(action) {
		return nil
	}
	msg, ok := forbiddenMessages[action]
	if !ok {
		msg = "role " + role.String() + " may not perform " + string(action)
	}
	return apperrors.Forbidden(msg)
}

// BusinessInput holds the editable fields of a business.
type BusinessInput struct {
	Title       string
	Location    string
	Description string
}

func (in BusinessInput) normalize() BusinessInput {
	return BusinessInput{
		Title:       strings.TrimSpace(in.Title),
		Location:    strings.TrimSpace(in.Location),
		Description: strings.TrimSpace(in.Description),
	}
}

func (in BusinessInput) validate() error {
	switch {
	case in.Title == "":
		return apperrors.InvalidInput("title is required")
	case in.Location == "":
		return apperrors.InvalidInput("location is required")
	case in.Description == "":
		return apperrors.InvalidInput("description is required")
	}
	return nil
}

// BusinessService implements the business operations.
type BusinessService struct {
	businesses repository.BusinessRepository
	reviews    repository.ReviewRepository
	producer   *event.Producer
	logger     *slog.Logger
}

// NewBusinessService creates a new business service.
func NewBusinessService(
	businesses repository.BusinessRepository,
	reviews repository.ReviewRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *BusinessService {
	return &BusinessService{
		businesses: businesses,
		reviews:    reviews,
		producer:   producer,
		logger:     logger,
	}
}

// ListBusinesses returns every business, newest first.
func (s *BusinessService) ListBusinesses(ctx context.Context, role domain.Role) ([]domain.Business, error) {
	if err := Authorize(role, domain.ActionListBusinesses); err != nil {
		return nil, err
	}

	businesses, err := s.businesses.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	return businesses, nil
}

// GetBusiness returns a business with its reviews resolved.
func (s *BusinessService) GetBusiness(ctx context.Context, role domain.Role, id string) (*domain.Business, error) {
	if err := Authorize(role, domain.ActionShowBusiness); err != nil {
		return nil, err
	}

	b, err := s.businesses.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get business: %w", err)
	}

	reviews, err := s.reviews.GetByIDs(ctx, b.ReviewIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve reviews: %w", err)
	}
	b.Reviews = reviews

	return b, nil
}

// CreateBusiness stores a new business with no reviews and a zero rating.
func (s *BusinessService) CreateBusiness(ctx context.Context, role domain.Role, input BusinessInput) (*domain.Business, error) {
	if err := Authorize(role, domain.ActionCreateBusiness); err != nil {
		return nil, err
	}

	input = input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}

	b := &domain.Business{
		ID:          uuid.New().String(),
		Title:       input.Title,
		Location:    input.Location,
		Description: input.Description,
		ReviewIDs:   []string{},
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.businesses.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create business: %w", err)
	}

	if err := s.producer.PublishBusinessCreated(ctx, b); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish business.created event",
			slog.String("business_id", b.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "business created",
		slog.String("business_id", b.ID),
		slog.String("title", b.Title),
	)

	return b, nil
}

// UpdateBusiness overwrites title, location and description. Reviews and the
// average rating are left untouched.
func (s *BusinessService) UpdateBusiness(ctx context.Context, role domain.Role, id string, input BusinessInput) (*domain.Business, error) {
	if err := Authorize(role, domain.ActionUpdateBusiness); err != nil {
		return nil, err
	}

	input = input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}

	b, err := s.businesses.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get business: %w", err)
	}

	b.Title = input.Title
	b.Location = input.Location
	b.Description = input.Description

	if err := s.businesses.UpdateDetails(ctx, b); err != nil {
		return nil, fmt.Errorf("update business: %w", err)
	}

	if err := s.producer.PublishBusinessUpdated(ctx, b); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish business.updated event",
			slog.String("business_id", b.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "business updated", slog.String("business_id", b.ID))

	return b, nil
}

// DeleteBusiness removes a business and every review it references.
func (s *BusinessService) DeleteBusiness(ctx context.Context, role domain.Role, id string) error {
	if err := Authorize(role, domain.ActionDeleteBusiness); err != nil {
		return err
	}

	reviewIDs, err := s.businesses.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete business: %w", err)
	}

	if err := s.producer.PublishBusinessDeleted(ctx, id, reviewIDs); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish business.deleted event",
			slog.String("business_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "business deleted",
		slog.String("business_id", id),
		slog.Int("reviews_deleted", len(reviewIDs)),
	)

	return nil
}
