package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/makkenzo/sorvide-admin/internal/domain/notification"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NotificationStore keeps one pending toast per session under a single key,
// so a Put always replaces the previous toast.
type NotificationStore struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewNotificationStore(rdb *redis.Client, logger *zap.Logger) *NotificationStore {
	return &NotificationStore{rdb: rdb, logger: logger.Named("NotificationStore")}
}

var _ notification.Repository = (*NotificationStore)(nil)

func (s *NotificationStore) Put(ctx context.Context, sessionID string, n *notification.Notification, ttl time.Duration) error {
	if err := setJSON(ctx, s.rdb, key("toast", sessionID), n, ttl); err != nil {
		return fmt.Errorf("redis error saving notification: %w", err)
	}
	return nil
}

func (s *NotificationStore) Pop(ctx context.Context, sessionID string) (*notification.Notification, error) {
	payload, err := s.rdb.GetDel(ctx, key("toast", sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis error popping notification: %w", err)
	}
	var n notification.Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		s.logger.Warn("Dropping undecodable notification", zap.String("sessionID", sessionID), zap.Error(err))
		return nil, nil
	}
	return &n, nil
}

func (s *NotificationStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, key("toast", sessionID)).Err(); err != nil {
		return fmt.Errorf("redis error clearing notification: %w", err)
	}
	return nil
}
