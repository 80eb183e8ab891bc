package service

import (
	"context"
	"errors"

	"github.com/makkenzo/sorvide-admin/internal/backend"
	"github.com/makkenzo/sorvide-admin/internal/domain/activity"
	"github.com/makkenzo/sorvide-admin/internal/domain/audit"
	"github.com/makkenzo/sorvide-admin/internal/domain/session"
	"github.com/makkenzo/sorvide-admin/internal/ierr"
	"go.uber.org/zap"
)

type ActivityService struct {
	api       backend.API
	dashboard *DashboardService
	notifier  *Notifier
	audit     *AuditService
	logger    *zap.Logger
}

func NewActivityService(api backend.API, dashboardService *DashboardService, notifier *Notifier, auditService *AuditService, logger *zap.Logger) *ActivityService {
	return &ActivityService{
		api:       api,
		dashboard: dashboardService,
		notifier:  notifier,
		audit:     auditService,
		logger:    logger.Named("ActivityService"),
	}
}

// Clear wipes the backend activity log and empties the session's feed.
func (s *ActivityService) Clear(ctx context.Context, sess *session.Session) error {
	err := s.dashboard.locked(sess.ID, func() error {
		if err := s.api.ClearActivity(ctx, sess.AdminToken); err != nil {
			return err
		}
		snap, err := s.dashboard.snapshots.Get(ctx, sess.ID)
		if err != nil || snap == nil {
			return nil
		}
		snap.Activities = []activity.Activity{}
		if err := s.dashboard.snapshots.Put(ctx, sess.ID, snap, s.dashboard.snapshotTTL); err != nil {
			s.logger.Warn("Failed to store cleared snapshot", zap.String("sessionID", sess.ID), zap.Error(err))
		}
		return nil
	})
	if err = s.dashboard.checkAuth(ctx, sess, err); err != nil {
		s.audit.Record(ctx, sess, audit.ActionClearActivity, "", audit.OutcomeFailure, ierr.Message(err))
		if !errors.Is(err, ierr.ErrSessionExpired) {
			s.notifier.Error(ctx, sess.ID, "Failed to clear activity: "+ierr.Message(err))
		}
		return err
	}

	s.audit.Record(ctx, sess, audit.ActionClearActivity, "", audit.OutcomeSuccess, "")
	s.notifier.Success(ctx, sess.ID, "All activity cleared successfully")
	s.logger.Info("Activity log cleared", zap.String("sessionID", sess.ID))
	return nil
}
