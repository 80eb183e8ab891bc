package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/makkenzo/sorvide-admin/internal/backend"
	"github.com/makkenzo/sorvide-admin/internal/config"
	"github.com/makkenzo/sorvide-admin/internal/dashboard"
	"github.com/makkenzo/sorvide-admin/internal/domain/activity"
	"github.com/makkenzo/sorvide-admin/internal/domain/license"
	"github.com/makkenzo/sorvide-admin/internal/domain/session"
	"github.com/makkenzo/sorvide-admin/internal/domain/snapshot"
	"github.com/makkenzo/sorvide-admin/internal/ierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DashboardService owns each session's snapshot of backend state. Reloads and
// mutations of one session run one at a time.
type DashboardService struct {
	api         backend.API
	snapshots   snapshot.Repository
	notifier    *Notifier
	auth        *AuthService
	locks       *keyedMutex
	opts        dashboard.Options
	snapshotTTL time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

func NewDashboardService(
	api backend.API,
	snapshots snapshot.Repository,
	notifier *Notifier,
	auth *AuthService,
	cfg *config.DashboardConfig,
	storageCfg *config.StorageConfig,
	logger *zap.Logger,
) (*DashboardService, error) {
	policy, err := dashboard.ParseRevenuePolicy(cfg.RevenuePolicy)
	if err != nil {
		return nil, err
	}
	return &DashboardService{
		api:       api,
		snapshots: snapshots,
		notifier:  notifier,
		auth:      auth,
		locks:     newKeyedMutex(),
		opts: dashboard.Options{
			LicensesPerPage:   cfg.LicensesPerPage,
			ActivitiesPerPage: cfg.ActivitiesPerPage,
			Prices:            dashboard.Prices{Monthly: cfg.MonthlyPrice, Yearly: cfg.YearlyPrice},
			Policy:            policy,
		},
		snapshotTTL: storageCfg.SnapshotTTL,
		now:         time.Now,
		logger:      logger.Named("DashboardService"),
	}, nil
}

func (s *DashboardService) Options() dashboard.Options {
	return s.opts
}

// View builds the dashboard for q. The backend is queried when the session has
// no snapshot yet or when refresh is set; filter and search are applied to the
// stored list. A failed fetch falls back to the last snapshot and marks the
// view stale.
func (s *DashboardService) View(ctx context.Context, sess *session.Session, q dashboard.Query, refresh bool) (*dashboard.View, error) {
	q = q.Normalized()
	var (
		snap  *snapshot.Snapshot
		stale bool
	)
	err := s.locked(sess.ID, func() error {
		current, err := s.snapshots.Get(ctx, sess.ID)
		if err != nil {
			s.logger.Warn("Failed to load snapshot", zap.String("sessionID", sess.ID), zap.Error(err))
		}
		if current != nil && !refresh {
			s.remember(ctx, sess, current, q)
			snap = current
			return nil
		}

		fresh, err := s.reloadLocked(ctx, sess, current, q.Filter, q.Search)
		if err != nil {
			if errors.Is(err, ierr.ErrUnauthorized) {
				return err
			}
			s.notifier.Error(ctx, sess.ID, "Network error: "+ierr.Message(err))
			snap, stale = current, true
			return nil
		}
		snap = fresh
		return nil
	})
	if err != nil {
		return nil, s.checkAuth(ctx, sess, err)
	}

	v := dashboard.Build(snap, q, s.opts, s.now())
	v.Stale = stale
	return v, nil
}

// remember stores q as the session's current query so later reloads and the
// activity API keep it. The caller must hold the session lock.
func (s *DashboardService) remember(ctx context.Context, sess *session.Session, snap *snapshot.Snapshot, q dashboard.Query) {
	if snap.Filter == q.Filter && snap.Search == q.Search {
		return
	}
	snap.Filter, snap.Search = q.Filter, q.Search
	if err := s.snapshots.Put(ctx, sess.ID, snap, s.snapshotTTL); err != nil {
		s.logger.Warn("Failed to store query", zap.String("sessionID", sess.ID), zap.Error(err))
	}
}

// Refresh forces a reload with the query of the current snapshot.
func (s *DashboardService) Refresh(ctx context.Context, sess *session.Session) error {
	err := s.locked(sess.ID, func() error {
		current, _ := s.snapshots.Get(ctx, sess.ID)
		filter, search := queryOf(current)
		_, err := s.reloadLocked(ctx, sess, current, filter, search)
		return err
	})
	if err != nil {
		if !errors.Is(err, ierr.ErrUnauthorized) {
			s.notifier.Error(ctx, sess.ID, "Network error: "+ierr.Message(err))
		}
		return s.checkAuth(ctx, sess, err)
	}
	s.notifier.Success(ctx, sess.ID, "Dashboard data loaded successfully")
	return nil
}

// Selected returns every license of the current snapshot that matches q,
// unpaginated. Used for export.
func (s *DashboardService) Selected(ctx context.Context, sess *session.Session, q dashboard.Query) ([]license.License, error) {
	v, err := s.View(ctx, sess, q, false)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshots.Get(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: could not load snapshot: %v", ierr.ErrInternalServer, err)
	}
	if snap == nil {
		return []license.License{}, nil
	}
	return license.Select(snap.Licenses, v.Query.Filter, v.Query.Search, s.now()), nil
}

// CurrentQuery is the license query of the session's snapshot with the
// given activity page. Reading it back never triggers a refetch.
func (s *DashboardService) CurrentQuery(ctx context.Context, sess *session.Session, activityPage int) dashboard.Query {
	current, _ := s.snapshots.Get(ctx, sess.ID)
	filter, search := queryOf(current)
	return dashboard.Query{Filter: filter, Search: search, ActivityPage: activityPage}
}

// Lookup finds key in the session's snapshot without calling the backend.
func (s *DashboardService) Lookup(ctx context.Context, sess *session.Session, key string) *license.License {
	snap, err := s.snapshots.Get(ctx, sess.ID)
	if err != nil || snap == nil {
		return nil
	}
	for i := range snap.Licenses {
		if snap.Licenses[i].LicenseKey == key {
			l := snap.Licenses[i]
			return &l
		}
	}
	return nil
}

// Revenue is computed from the current snapshot, fetching one if needed.
func (s *DashboardService) Revenue(ctx context.Context, sess *session.Session) (dashboard.Revenue, error) {
	v, err := s.View(ctx, sess, s.CurrentQuery(ctx, sess, 1), false)
	if err != nil {
		return dashboard.Revenue{}, err
	}
	return v.Revenue, nil
}

func (s *DashboardService) locked(sessionID string, fn func() error) error {
	unlock := s.locks.Lock(sessionID)
	defer unlock()
	return fn()
}

// mutate runs op and, when it succeeds, a full reload, all under the
// session lock.
func (s *DashboardService) mutate(ctx context.Context, sess *session.Session, op func(ctx context.Context) error) error {
	err := s.locked(sess.ID, func() error {
		if err := op(ctx); err != nil {
			return err
		}
		current, _ := s.snapshots.Get(ctx, sess.ID)
		filter, search := queryOf(current)
		if _, err := s.reloadLocked(ctx, sess, current, filter, search); err != nil {
			if errors.Is(err, ierr.ErrUnauthorized) {
				return err
			}
			s.logger.Warn("Reload after mutation failed", zap.String("sessionID", sess.ID), zap.Error(err))
		}
		return nil
	})
	return s.checkAuth(ctx, sess, err)
}

// reloadLocked fetches the complete license list and the activity feed
// concurrently and stores a new snapshot carrying the session's query. Stats
// and revenue need every license, so the query is never sent to the backend.
// The caller must hold the session lock. A failed activity fetch yields an
// empty feed; a failed license fetch fails the reload.
func (s *DashboardService) reloadLocked(ctx context.Context, sess *session.Session, prev *snapshot.Snapshot, filter license.Filter, search string) (*snapshot.Snapshot, error) {
	var (
		licenses    []license.License
		activities  []activity.Activity
		activityErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		licenses, err = s.api.ListLicenses(gctx, sess.AdminToken, license.FilterAll, "")
		return err
	})
	g.Go(func() error {
		activities, activityErr = s.api.ListActivity(gctx, sess.AdminToken)
		if errors.Is(activityErr, ierr.ErrUnauthorized) {
			return activityErr
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if activityErr != nil {
		s.logger.Warn("Activity fetch failed, showing empty feed", zap.String("sessionID", sess.ID), zap.Error(activityErr))
		activities = []activity.Activity{}
	}

	next := &snapshot.Snapshot{
		Licenses:   licenses,
		Activities: activities,
		FetchedAt:  s.now(),
		Filter:     filter,
		Search:     search,
	}
	if prev != nil {
		next.Generation = prev.Generation + 1
		s.reconcile(ctx, sess, prev, next)
	} else {
		next.Generation = 1
	}

	if err := s.snapshots.Put(ctx, sess.ID, next, s.snapshotTTL); err != nil {
		s.logger.Error("Failed to store snapshot", zap.String("sessionID", sess.ID), zap.Error(err))
	}
	s.logger.Debug("Dashboard reloaded",
		zap.String("sessionID", sess.ID),
		zap.Int64("generation", next.Generation),
		zap.Int("licenses", len(licenses)),
		zap.Int("activities", len(activities)),
	)
	return next, nil
}

// reconcile settles the tombstones of prev against the fresh listing. Keys
// still served by the backend are reported and stay visible; keys that are
// gone are confirmed.
func (s *DashboardService) reconcile(ctx context.Context, sess *session.Session, prev, next *snapshot.Snapshot) {
	if len(prev.Tombstones) == 0 {
		return
	}
	rec := snapshot.Reconcile(prev.Tombstones, next.Licenses)
	next.Tombstones = nil
	next.Degraded = false

	switch {
	case len(rec.Diverged) > 0:
		s.notifier.Warning(ctx, sess.ID, fmt.Sprintf("Still present on backend: %s. The delete did not complete.", strings.Join(rec.Diverged, ", ")))
	case len(rec.Confirmed) > 0:
		s.notifier.Info(ctx, sess.ID, fmt.Sprintf("Backend confirmed deletion of %s.", strings.Join(rec.Confirmed, ", ")))
	}
	s.logger.Info("Reconciled local deletes",
		zap.String("sessionID", sess.ID),
		zap.Strings("confirmed", rec.Confirmed),
		zap.Strings("diverged", rec.Diverged),
	)
}

// checkAuth closes the session when the backend rejected its token.
func (s *DashboardService) checkAuth(ctx context.Context, sess *session.Session, err error) error {
	if err != nil && errors.Is(err, ierr.ErrUnauthorized) {
		s.auth.ForceLogout(ctx, sess)
		return fmt.Errorf("%w: %w", ierr.ErrSessionExpired, err)
	}
	return err
}

func queryOf(s *snapshot.Snapshot) (license.Filter, string) {
	if s == nil {
		return license.FilterAll, ""
	}
	return license.ParseFilter(string(s.Filter)), s.Search
}
