package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/makkenzo/sorvide-admin/internal/domain/session"
	"github.com/makkenzo/sorvide-admin/internal/ierr"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type SessionStore struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewSessionStore(rdb *redis.Client, logger *zap.Logger) *SessionStore {
	return &SessionStore{rdb: rdb, logger: logger.Named("SessionStore")}
}

var _ session.Repository = (*SessionStore)(nil)

func (s *SessionStore) Save(ctx context.Context, sess *session.Session, ttl time.Duration) error {
	if err := setJSON(ctx, s.rdb, key("session", sess.ID), sess, ttl); err != nil {
		s.logger.Error("Failed to save session", zap.String("sessionID", sess.ID), zap.Error(err))
		return fmt.Errorf("redis error saving session: %w", err)
	}
	return nil
}

func (s *SessionStore) FindByID(ctx context.Context, id string) (*session.Session, error) {
	var sess session.Session
	found, err := getJSON(ctx, s.rdb, key("session", id), &sess)
	if err != nil {
		s.logger.Error("Failed to load session", zap.String("sessionID", id), zap.Error(err))
		return nil, fmt.Errorf("redis error loading session: %w", err)
	}
	if !found {
		return nil, ierr.ErrSessionNotFound
	}
	return &sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, key("session", id)).Err(); err != nil {
		return fmt.Errorf("redis error deleting session: %w", err)
	}
	return nil
}
