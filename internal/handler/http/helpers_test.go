package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/snapreviews/snapreviews/internal/domain"
	"github.com/snapreviews/snapreviews/internal/event"
	"github.com/snapreviews/snapreviews/internal/repository/memory"
	"github.com/snapreviews/snapreviews/internal/service"
	"github.com/snapreviews/snapreviews/internal/view"
	apperrors "github.com/snapreviews/snapreviews/pkg/errors"
	"github.com/snapreviews/snapreviews/pkg/health"
	"github.com/snapreviews/snapreviews/pkg/httputil"
	"github.com/snapreviews/snapreviews/pkg/middleware"
)

// ============================================================================
// In-memory data store
// ============================================================================

type fakeStore struct {
	mu         sync.Mutex
	businesses map[string]domain.Business
	reviews    map[string]domain.Review
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		businesses: make(map[string]domain.Business),
		reviews:    make(map[string]domain.Review),
	}
}

type fakeBusinesses struct{ *fakeStore }

type fakeReviews struct{ *fakeStore }

func (s fakeBusinesses) Create(_ context.Context, b *domain.Business) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	cp.ReviewIDs = append([]string{}, b.ReviewIDs...)
	cp.Reviews = nil
	s.businesses[b.ID] = cp
	return nil
}

func (s fakeBusinesses) GetByID(_ context.Context, id string) (*domain.Business, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.businesses[id]
	if !ok {
		return nil, apperrors.NotFound("business", id)
	}
	b.ReviewIDs = append([]string{}, b.ReviewIDs...)
	return &b, nil
}

func (s fakeBusinesses) List(context.Context) ([]domain.Business, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Business, 0, len(s.businesses))
	for _, b := range s.businesses {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s fakeBusinesses) Count(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.businesses), nil
}

func (s fakeBusinesses) UpdateDetails(_ context.Context, b *domain.Business) error {
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

func (s fakeBusinesses) SaveReviews(_ context.Context, b *domain.Business) error {
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

func (s fakeBusinesses) Delete(_ context.Context, id string) ([]string, error) {
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

func (s fakeReviews) Create(_ context.Context, r *domain.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews[r.ID] = *r
	return nil
}

func (s fakeReviews) GetByIDs(_ context.Context, ids []string) ([]domain.Review, error) {
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

func (s fakeReviews) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reviews, id)
	return nil
}

func (s fakeReviews) DeleteByIDs(_ context.Context, ids []string) (int64, error) {
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

func (s *fakeStore) business(id string) (domain.Business, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.businesses[id]
	return b, ok
}

func (s *fakeStore) businessCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.businesses)
}

func (s *fakeStore) reviewCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reviews)
}

// ============================================================================
// Test server
// ============================================================================

const (
	businessA = "0b9c1c4e-3f0e-4d7a-9d4e-1a2b3c4d5e6f"
	missingID = "9f8e7d6c-5b4a-4392-8170-6f5e4d3c2b1a"
)

type testServer struct {
	handler  http.Handler
	store    *fakeStore
	sessions *memory.SessionStore
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := discardLogger()
	store := newFakeStore()
	sessions := memory.NewSessionStore(time.Hour)
	producer := event.NewNoopProducer(logger)

	renderer, err := view.NewRenderer()
	require.NoError(t, err)

	deps := RouterDeps{
		Businesses: service.NewBusinessService(fakeBusinesses{store}, fakeReviews{store}, producer, logger),
		Reviews:    service.NewReviewService(fakeBusinesses{store}, fakeReviews{store}, producer, logger),
		Renderer:   renderer,
		Roles:      NewRoleResolver(sessions, SessionConfig{CookieName: "snap_session", TTL: time.Hour}, logger),
		Health:     health.NewHandler(),
		CORS:       middleware.DefaultCORSConfig(),
		Logger:     logger,
	}

	return &testServer{
		handler:  NewRouter(deps),
		store:    store,
		sessions: sessions,
	}
}

// seed stores a business directly, bypassing the role checks.
func (s *testServer) seed(id, title string) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.businesses[id] = domain.Business{
		ID:          id,
		Title:       title,
		Location:    "Santa Monica",
		Description: "A place to eat.",
		ReviewIDs:   []string{},
		CreatedAt:   time.Now().UTC(),
	}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req
}

func formRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func withCookie(req *http.Request, c *http.Cookie) *http.Request {
	if c != nil {
		req.AddCookie(c)
	}
	return req
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "snap_session" {
			return c
		}
	}
	t.Fatalf("no session cookie in response")
	return nil
}

// decodeData decodes the data field of a success envelope into dst.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *httputil.ErrorResponse {
	t.Helper()
	var env httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	require.NotNil(t, env.Error)
	return env.Error
}
