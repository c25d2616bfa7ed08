package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/apperror"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/entity"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/repository"
)

type sessionEntry struct {
	s       entity.Session
	expires time.Time
}

// SessionStore is an expiring map of sessions keyed by user id.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]sessionEntry
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: map[string]sessionEntry{}}
}

func (m *SessionStore) Save(_ context.Context, s *entity.Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.UserID] = sessionEntry{s: *s, expires: time.Now().Add(ttl)}
	return nil
}

func (m *SessionStore) Get(_ context.Context, userID string) (*entity.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[userID]
	if !ok || time.Now().After(e.expires) {
		delete(m.sessions, userID)
		return nil, apperror.NotFound("session")
	}
	s := e.s
	return &s, nil
}

func (m *SessionStore) Rotate(_ context.Context, userID, fromSID, toSID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[userID]
	if !ok || time.Now().After(e.expires) || e.s.SessionID != fromSID {
		return apperror.NotFound("session")
	}
	e.s.SessionID = toSID
	e.s.UpdatedAt = time.Now().UTC()
	e.expires = time.Now().Add(ttl)
	m.sessions[userID] = e
	return nil
}

func (m *SessionStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

var _ repository.SessionStore = (*SessionStore)(nil)
