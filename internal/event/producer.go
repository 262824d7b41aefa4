package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/snapreviews/snapreviews/internal/domain"
	pkgkafka "github.com/snapreviews/snapreviews/pkg/kafka"
	"github.com/snapreviews/snapreviews/pkg/logger"
)

// Event types, which double as topic suffixes.
const (
	TypeBusinessCreated = "business.created"
	TypeBusinessUpdated = "business.updated"
	TypeBusinessDeleted = "business.deleted"
	TypeReviewAdded     = "review.added"
	TypeReviewRemoved   = "review.removed"
)

// Aggregate type constants.
const (
	AggregateTypeBusiness = "business"
	AggregateTypeReview   = "review"
)

// Source identifies events originating from this service.
const Source = "snapreviews"

// BusinessData is the payload for business.created and business.updated.
type BusinessData struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Location      string  `json:"location"`
	Description   string  `json:"description"`
	AverageRating float64 `json:"average_rating"`
}

// BusinessDeletedData is the payload for business.deleted.
type BusinessDeletedData struct {
	ID        string   `json:"id"`
	ReviewIDs []string `json:"review_ids"`
}

// ReviewData is the payload for review.added and review.removed. Rating and
// Body are empty for removals.
type ReviewData struct {
	ID            string  `json:"id"`
	BusinessID    string  `json:"business_id"`
	Rating        int     `json:"rating,omitempty"`
	Body          string  `json:"body,omitempty"`
	AverageRating float64 `json:"average_rating"`
}

// Publisher is implemented by *pkgkafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes SnapReviews domain events. A Producer without a
// Publisher drops every event.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates an event producer backed by publisher.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

// NewNoopProducer returns a producer that publishes nothing.
func NewNoopProducer(logger *slog.Logger) *Producer {
	return &Producer{logger: logger}
}

// Enabled reports whether events are actually sent.
func (p *Producer) Enabled() bool {
	return p.publisher != nil
}

// PublishBusinessCreated publishes a business.created event.
func (p *Producer) PublishBusinessCreated(ctx context.Context, b *domain.Business) error {
	return p.publish(ctx, TypeBusinessCreated, b.ID, AggregateTypeBusiness, businessData(b))
}

// PublishBusinessUpdated publishes a business.updated event.
func (p *Producer) PublishBusinessUpdated(ctx context.Context, b *domain.Business) error {
	return p.publish(ctx, TypeBusinessUpdated, b.ID, AggregateTypeBusiness, businessData(b))
}

// PublishBusinessDeleted publishes a business.deleted event.
func (p *Producer) PublishBusinessDeleted(ctx context.Context, id string, reviewIDs []string) error {
	if reviewIDs == nil {
		reviewIDs = []string{}
	}
	return p.publish(ctx, TypeBusinessDeleted, id, AggregateTypeBusiness, BusinessDeletedData{
		ID:        id,
		ReviewIDs: reviewIDs,
	})
}

// PublishReviewAdded publishes a review.added event keyed by the business so
// it is ordered with the business's other events.
func (p *Producer) PublishReviewAdded(ctx context.Context, b *domain.Business, r *domain.Review) error {
	return p.publish(ctx, TypeReviewAdded, b.ID, AggregateTypeReview, ReviewData{
		ID:            r.ID,
		BusinessID:    b.ID,
		Rating:        r.Rating,
		Body:          r.Body,
		AverageRating: b.AverageRating,
	})
}

// PublishReviewRemoved publishes a review.removed event.
func (p *Producer) PublishReviewRemoved(ctx context.Context, b *domain.Business, reviewID string) error {
	return p.publish(ctx, TypeReviewRemoved, b.ID, AggregateTypeReview, ReviewData{
		ID:            reviewID,
		BusinessID:    b.ID,
		AverageRating: b.AverageRating,
	})
}

func (p *Producer) publish(ctx context.Context, eventType, aggregateID, aggregateType string, data any) error {
	if p.publisher == nil {
		return nil
	}

	ev, err := pkgkafka.NewEvent(eventType, aggregateID, aggregateType, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		ev.WithCorrelationID(id)
	}
	if role := logger.RoleFromContext(ctx); role != "" {
		ev.WithMetadata("role", role)
	}

	topic := pkgkafka.TopicPrefix + "." + eventType
	if err := p.publisher.Publish(ctx, topic, ev); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("type", eventType),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

func businessData(b *domain.Business) BusinessData {
	return BusinessData{
		ID:            b.ID,
		Title:         b.Title,
		Location:      b.Location,
		Description:   b.Description,
		AverageRating: b.AverageRating,
	}
}
