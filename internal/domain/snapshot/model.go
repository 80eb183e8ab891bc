package snapshot

import (
	"context"
	"time"

	"github.com/makkenzo/sorvide-admin/internal/domain/activity"
	"github.com/makkenzo/sorvide-admin/internal/domain/license"
)

// Snapshot is the last known backend state for one operator session.
type Snapshot struct {
	Licenses   []license.License   `json:"licenses"`
	Activities []activity.Activity `json:"activities"`
	FetchedAt  time.Time           `json:"fetchedAt"`
	Generation int64               `json:"generation"`
	// Licenses is always the backend's complete list. Filter and Search are
	// the query the session last viewed it with.
	Filter license.Filter `json:"filter"`
	Search string         `json:"search,omitempty"`
	// Tombstones are keys removed locally while the backend could not confirm
	// the delete. They are reconciled on the next successful fetch.
	Tombstones []string `json:"tombstones,omitempty"`
	Degraded   bool     `json:"degraded"`
}

func (s *Snapshot) HasTombstone(key string) bool {
	for _, k := range s.Tombstones {
		if k == key {
			return true
		}
	}
	return false
}

// RemoveLocal drops key from the license list and tombstones it. It reports
// whether the key was present.
func (s *Snapshot) RemoveLocal(key string) bool {
	idx := -1
	for i := range s.Licenses {
		if s.Licenses[i].LicenseKey == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	s.Licenses = append(s.Licenses[:idx:idx], s.Licenses[idx+1:]...)
	if !s.HasTombstone(key) {
		s.Tombstones = append(s.Tombstones, key)
	}
	s.Degraded = true
	return true
}

// Reconciliation is the outcome of comparing tombstones with a fresh fetch.
type Reconciliation struct {
	Confirmed []string
	Diverged  []string
}

func (r Reconciliation) Empty() bool {
	return len(r.Confirmed) == 0 && len(r.Diverged) == 0
}

// Reconcile compares the pending tombstones against a fresh backend listing.
// The backend stays the source of truth: tombstoned keys it still returns are
// reported as diverged and kept visible.
func Reconcile(tombstones []string, fresh []license.License) Reconciliation {
	var r Reconciliation
	present := make(map[string]struct{}, len(fresh))
	for i := range fresh {
		present[fresh[i].LicenseKey] = struct{}{}
	}
	for _, key := range tombstones {
		if _, ok := present[key]; ok {
			r.Diverged = append(r.Diverged, key)
		} else {
			r.Confirmed = append(r.Confirmed, key)
		}
	}
	return r
}

type Repository interface {
	Get(ctx context.Context, sessionID string) (*Snapshot, error)
	Put(ctx context.Context, sessionID string, s *Snapshot, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string) error
}
