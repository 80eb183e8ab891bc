package memstorage

import (
	"context"
	"sync"
	"time"

	"github.com/makkenzo/sorvide-admin/internal/domain/notification"
)

type NotificationStore struct {
	mu      sync.Mutex
	pending map[string]entry[notification.Notification]
	now     func() time.Time
}

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{pending: make(map[string]entry[notification.Notification]), now: time.Now}
}

var _ notification.Repository = (*NotificationStore)(nil)

func (s *NotificationStore) Put(ctx context.Context, sessionID string, n *notification.Notification, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[sessionID] = entry[notification.Notification]{value: *n, expiresAt: deadline(s.now(), ttl)}
	return nil
}

func (s *NotificationStore) Pop(ctx context.Context, sessionID string) (*notification.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.pending[sessionID]
	if !ok {
		return nil, nil
	}
	delete(s.pending, sessionID)
	if e.expired(s.now()) {
		return nil, nil
	}
	n := e.value
	return &n, nil
}

func (s *NotificationStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, sessionID)
	return nil
}
