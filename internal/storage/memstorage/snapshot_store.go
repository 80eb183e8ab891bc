package memstorage

import (
	"context"
	"sync"
	"time"

	"github.com/makkenzo/sorvide-admin/internal/domain/activity"
	"github.com/makkenzo/sorvide-admin/internal/domain/license"
	"github.com/makkenzo/sorvide-admin/internal/domain/snapshot"
)

type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]entry[snapshot.Snapshot]
	now       func() time.Time
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{snapshots: make(map[string]entry[snapshot.Snapshot]), now: time.Now}
}

var _ snapshot.Repository = (*SnapshotStore)(nil)

func (s *SnapshotStore) Get(ctx context.Context, sessionID string) (*snapshot.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.snapshots[sessionID]
	if !ok || e.expired(s.now()) {
		return nil, nil
	}
	snap := clone(&e.value)
	return snap, nil
}

func (s *SnapshotStore) Put(ctx context.Context, sessionID string, snap *snapshot.Snapshot, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[sessionID] = entry[snapshot.Snapshot]{value: *clone(snap), expiresAt: deadline(s.now(), ttl)}
	return nil
}

func (s *SnapshotStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, sessionID)
	return nil
}

// clone copies the slices so callers never share backing arrays with the store.
func clone(s *snapshot.Snapshot) *snapshot.Snapshot {
	out := *s
	out.Licenses = append([]license.License(nil), s.Licenses...)
	out.Activities = append([]activity.Activity(nil), s.Activities...)
	out.Tombstones = append([]string(nil), s.Tombstones...)
	return &out
}
