package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/makkenzo/sorvide-admin/internal/domain/snapshot"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type SnapshotStore struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewSnapshotStore(rdb *redis.Client, logger *zap.Logger) *SnapshotStore {
	return &SnapshotStore{rdb: rdb, logger: logger.Named("SnapshotStore")}
}

var _ snapshot.Repository = (*SnapshotStore)(nil)

// Get returns nil when the session has no snapshot yet.
func (s *SnapshotStore) Get(ctx context.Context, sessionID string) (*snapshot.Snapshot, error) {
	var snap snapshot.Snapshot
	found, err := getJSON(ctx, s.rdb, key("snapshot", sessionID), &snap)
	if err != nil {
		s.logger.Error("Failed to load snapshot", zap.String("sessionID", sessionID), zap.Error(err))
		return nil, fmt.Errorf("redis error loading snapshot: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &snap, nil
}

func (s *SnapshotStore) Put(ctx context.Context, sessionID string, snap *snapshot.Snapshot, ttl time.Duration) error {
	if err := setJSON(ctx, s.rdb, key("snapshot", sessionID), snap, ttl); err != nil {
		return fmt.Errorf("redis error saving snapshot: %w", err)
	}
	return nil
}

func (s *SnapshotStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, key("snapshot", sessionID)).Err(); err != nil {
		return fmt.Errorf("redis error deleting snapshot: %w", err)
	}
	return nil
}
