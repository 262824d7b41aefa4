// Package memory holds process-local repository implementations for
// development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/snapreviews/snapreviews/internal/repository"
	apperrors "github.com/snapreviews/snapreviews/pkg/errors"
)

type entry struct {
	session   repository.Session
	expiresAt time.Time
}

// SessionStore keeps sessions in a map. Expired entries are dropped lazily
// on read and on every write.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]entry
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates an empty in-memory session store.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]entry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns a copy of the session stored under id.
func (s *SessionStore) Get(_ context.Context, id string) (*repository.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok || !s.now().Before(e.expiresAt) {
		delete(s.sessions, id)
		return nil, apperrors.NotFound("session", id)
	}
	session := e.session
	return &session, nil
}

// Save stores a copy of session and resets its TTL.
func (s *SessionStore) Save(_ context.Context, id string, session *repository.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.sessions {
		if !now.Before(e.expiresAt) {
			delete(s.sessions, k)
		}
	}
	s.sessions[id] = entry{session: *session, expiresAt: now.Add(s.ttl)}
	return nil
}

// Ping always succeeds.
func (s *SessionStore) Ping(context.Context) error {
	return nil
}

// Len returns the number of stored sessions, including expired ones not yet
// evicted.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
