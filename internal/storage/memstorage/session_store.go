package memstorage

import (
	"context"
	"sync"
	"time"

	"github.com/makkenzo/sorvide-admin/internal/domain/session"
	"github.com/makkenzo/sorvide-admin/internal/ierr"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

func (e entry[T]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

func deadline(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]entry[session.Session]
	now      func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]entry[session.Session]), now: time.Now}
}

var _ session.Repository = (*SessionStore)(nil)

func (s *SessionStore) Save(ctx context.Context, sess *session.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = entry[session.Session]{value: *sess, expiresAt: deadline(s.now(), ttl)}
	return nil
}

func (s *SessionStore) FindByID(ctx context.Context, id string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	if !ok || e.expired(s.now()) {
		return nil, ierr.ErrSessionNotFound
	}
	sessCopy := e.value
	return &sessCopy, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
