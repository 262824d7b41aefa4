package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/snapreviews/snapreviews/internal/domain"
	"github.com/snapreviews/snapreviews/internal/event"
	apperrors "github.com/snapreviews/snapreviews/pkg/errors"
	pkgkafka "github.com/snapreviews/snapreviews/pkg/kafka"
)

// --- Mock repositories ---

type mockBusinessRepository struct {
	mock.Mock
}

func (m *mockBusinessRepository) Create(ctx context.Context, b *domain.Business) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *mockBusinessRepository) GetByID(ctx context.Context, id string) (*domain.Business, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Business), args.Error(1)
}

func (m *mockBusinessRepository) List(ctx context.Context) ([]domain.Business, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Business), args.Error(1)
}

func (m *mockBusinessRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockBusinessRepository) UpdateDetails(ctx context.Context, b *domain.Business) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *mockBusinessRepository) SaveReviews(ctx context.Context, b *domain.Business) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *mockBusinessRepository) Delete(ctx context.Context, id string) ([]string, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, r *domain.Review) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *mockReviewRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Review, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *mockReviewRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockReviewRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

// --- In-memory store for end-to-end rating scenarios ---

type memStore struct {
	mu         sync.Mutex
	businesses map[string]domain.Business
	reviews    map[string]domain.Review
}

func newMemStore() *memStore {
	return &memStore{
		businesses: make(map[string]domain.Business),
		reviews:    make(map[string]domain.Review),
	}
}

type memBusinesses struct{ *memStore }

type memReviews struct{ *memStore }

func (s memBusinesses) Create(_ context.Context, b *domain.Business) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	cp.ReviewIDs = append([]string{}, b.ReviewIDs...)
	cp.Reviews = nil
	s.businesses[b.ID] = cp
	return nil
}

func (s memBusinesses) GetByID(_ context.Context, id string) (*domain.Business, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.businesses[id]
	if !ok {
		return nil, apperrors.NotFound("business", id)
	}
	b.ReviewIDs = append([]string{}, b.ReviewIDs...)
	return &b, nil
}

func (s memBusinesses) List(context.Context) ([]domain.Business, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Business, 0, len(s.businesses))
	for _, b := range s.businesses {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s memBusinesses) Count(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.businesses), nil
}

func (s memBusinesses) UpdateDetails(_ context.Context, b *domain.Business) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.businesses[b.ID]
	if !ok {
		return apperrors.NotFound("business", b.ID)
	}
	cur.Title, cur.Location, cur.Description = b.Title, b.Location, b.Description
	s.businesses[b.ID] = cur
	return nil
}

func (s memBusinesses) SaveReviews(_ context.Context, b *domain.Business) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.businesses[b.ID]
	if !ok {
		return apperrors.NotFound("business", b.ID)
	}
	cur.ReviewIDs = append([]string{}, b.ReviewIDs...)
	cur.AverageRating = b.AverageRating
	s.businesses[b.ID] = cur
	return nil
}

func (s memBusinesses) Delete(_ context.Context, id string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.businesses[id]
	if !ok {
		return nil, apperrors.NotFound("business", id)
	}
	delete(s.businesses, id)
	for _, rid := range b.ReviewIDs {
		delete(s.reviews, rid)
	}
	return b.ReviewIDs, nil
}

func (s memReviews) Create(_ context.Context, r *domain.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews[r.ID] = *r
	return nil
}

func (s memReviews) GetByIDs(_ context.Context, ids []string) ([]domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Review{}
	for _, id := range ids {
		if r, ok := s.reviews[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s memReviews) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reviews, id)
	return nil
}

func (s memReviews) DeleteByIDs(_ context.Context, ids []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := s.reviews[id]; ok {
			delete(s.reviews, id)
			n++
		}
	}
	return n, nil
}

func (s *memStore) reviewExists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.reviews[id]
	return ok
}

// --- Event capture ---

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ *pkgkafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	return nil
}

// --- Test helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestProducer(pub *recordingPublisher) *event.Producer {
	return event.NewProducer(pub, newTestLogger())
}
