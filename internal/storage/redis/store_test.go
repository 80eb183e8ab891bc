package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/makkenzo/sorvide-admin/internal/config"
	"github.com/makkenzo/sorvide-admin/internal/domain/license"
	"github.com/makkenzo/sorvide-admin/internal/domain/notification"
	"github.com/makkenzo/sorvide-admin/internal/domain/session"
	"github.com/makkenzo/sorvide-admin/internal/domain/snapshot"
	"github.com/makkenzo/sorvide-admin/internal/ierr"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// These tests need a disposable Redis; set SORVIDE_TEST_REDIS_ADDR to run them.
func testClient(t *testing.T) *goredis.Client {
	t.Helper()
	addr := os.Getenv("SORVIDE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SORVIDE_TEST_REDIS_ADDR not set")
	}
	rdb, err := NewRedisClient(context.Background(), &config.RedisConfig{Addr: addr}, zap.NewNop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestSessionStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(testClient(t), zap.NewNop())
	id := uuid.NewString()

	now := time.Now().UTC().Truncate(time.Second)
	if err := store.Save(ctx, &session.Session{ID: id, AdminToken: "tok", LoginAt: now, ExpiresAt: now.Add(time.Hour)}, time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.FindByID(ctx, id)
	if err != nil || got.AdminToken != "tok" || !got.LoginAt.Equal(now) {
		t.Fatalf("unexpected session %+v %v", got, err)
	}
	if err := store.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.FindByID(ctx, id); !errors.Is(err, ierr.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestNotificationStoreReplacesAndPops(t *testing.T) {
	ctx := context.Background()
	store := NewNotificationStore(testClient(t), zap.NewNop())
	id := uuid.NewString()

	_ = store.Put(ctx, id, &notification.Notification{Level: notification.LevelInfo, Message: "first"}, time.Minute)
	_ = store.Put(ctx, id, &notification.Notification{Level: notification.LevelSuccess, Message: "second"}, time.Minute)

	n, err := store.Pop(ctx, id)
	if err != nil || n == nil || n.Message != "second" {
		t.Fatalf("unexpected notification %+v %v", n, err)
	}
	if n, _ := store.Pop(ctx, id); n != nil {
		t.Fatalf("pop must consume the notification")
	}
}

func TestSnapshotStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore(testClient(t), zap.NewNop())
	id := uuid.NewString()

	if s, err := store.Get(ctx, id); err != nil || s != nil {
		t.Fatalf("missing snapshot should be nil: %+v %v", s, err)
	}
	snap := &snapshot.Snapshot{Licenses: []license.License{{LicenseKey: "K"}}, Tombstones: []string{"GONE"}, Degraded: true, Generation: 3}
	if err := store.Put(ctx, id, snap, time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := store.Get(ctx, id)
	if err != nil || got.Generation != 3 || !got.HasTombstone("GONE") || len(got.Licenses) != 1 {
		t.Fatalf("unexpected snapshot %+v %v", got, err)
	}
	_ = store.Delete(ctx, id)
}
