package memstorage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/makkenzo/sorvide-admin/internal/domain/audit"
	"github.com/makkenzo/sorvide-admin/internal/domain/license"
	"github.com/makkenzo/sorvide-admin/internal/domain/notification"
	"github.com/makkenzo/sorvide-admin/internal/domain/session"
	"github.com/makkenzo/sorvide-admin/internal/domain/snapshot"
	"github.com/makkenzo/sorvide-admin/internal/ierr"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestSessionStoreTTL(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)}
	store := NewSessionStore()
	store.now = c.now

	if err := store.Save(ctx, &session.Session{ID: "s1", AdminToken: "tok"}, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.FindByID(ctx, "s1")
	if err != nil || got.AdminToken != "tok" {
		t.Fatalf("unexpected session %+v %v", got, err)
	}

	got.AdminToken = "mutated"
	again, _ := store.FindByID(ctx, "s1")
	if again.AdminToken != "tok" {
		t.Fatalf("store must hand out copies")
	}

	c.t = c.t.Add(time.Hour)
	if _, err := store.FindByID(ctx, "s1"); !errors.Is(err, ierr.ErrSessionNotFound) {
		t.Fatalf("expired session should be gone, got %v", err)
	}
}

func TestNotificationStoreKeepsOnlyLatest(t *testing.T) {
	ctx := context.Background()
	store := NewNotificationStore()

	_ = store.Put(ctx, "s1", &notification.Notification{Message: "Creating license..."}, time.Minute)
	_ = store.Put(ctx, "s1", &notification.Notification{Message: "License created"}, time.Minute)
	_ = store.Put(ctx, "s2", &notification.Notification{Message: "other session"}, time.Minute)

	n, err := store.Pop(ctx, "s1")
	if err != nil || n == nil || n.Message != "License created" {
		t.Fatalf("unexpected notification %+v %v", n, err)
	}
	if n, _ := store.Pop(ctx, "s1"); n != nil {
		t.Fatalf("pop must consume")
	}
	if n, _ := store.Pop(ctx, "s2"); n == nil {
		t.Fatalf("sessions must not share notifications")
	}
}

func TestNotificationStoreDropsStale(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)}
	store := NewNotificationStore()
	store.now = c.now

	_ = store.Put(ctx, "s1", &notification.Notification{Message: "old"}, time.Minute)
	c.t = c.t.Add(2 * time.Minute)
	if n, _ := store.Pop(ctx, "s1"); n != nil {
		t.Fatalf("stale notification returned: %+v", n)
	}
}

func TestSnapshotStoreIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore()

	snap := &snapshot.Snapshot{Licenses: []license.License{{LicenseKey: "A"}, {LicenseKey: "B"}}}
	_ = store.Put(ctx, "s1", snap, time.Hour)
	snap.Licenses[0].LicenseKey = "CHANGED"

	got, _ := store.Get(ctx, "s1")
	if got.Licenses[0].LicenseKey != "A" {
		t.Fatalf("store shares memory with caller")
	}
	got.RemoveLocal("B")
	again, _ := store.Get(ctx, "s1")
	if len(again.Licenses) != 2 || again.Degraded {
		t.Fatalf("local edits leaked into the store: %+v", again)
	}

	_ = store.Delete(ctx, "s1")
	if s, _ := store.Get(ctx, "s1"); s != nil {
		t.Fatalf("deleted snapshot still present")
	}
}

func TestAuditStore(t *testing.T) {
	ctx := context.Background()
	store := NewAuditStore()
	base := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		_ = store.Record(ctx, &audit.Entry{Action: audit.ActionCreateLicense, Outcome: audit.OutcomeSuccess, CreatedAt: base.Add(time.Duration(i) * time.Hour)})
	}

	recent, err := store.ListRecent(ctx, 3)
	if err != nil || len(recent) != 3 {
		t.Fatalf("unexpected list %v %v", recent, err)
	}
	if !recent[0].CreatedAt.Equal(base.Add(4*time.Hour)) || recent[0].ID.String() == "" {
		t.Fatalf("newest entry must come first: %+v", recent[0])
	}

	removed, err := store.DeleteBefore(ctx, base.Add(2*time.Hour))
	if err != nil || removed != 2 {
		t.Fatalf("unexpected prune result %d %v", removed, err)
	}
	all, _ := store.ListRecent(ctx, 0)
	if len(all) != 3 {
		t.Fatalf("expected 3 entries left, got %d", len(all))
	}
}
