package service

import (
	"context"
	"time"

	"github.com/makkenzo/sorvide-admin/internal/config"
	"github.com/makkenzo/sorvide-admin/internal/domain/audit"
	"github.com/makkenzo/sorvide-admin/internal/domain/session"
	"go.uber.org/zap"
)

type AuditService struct {
	repo   audit.Repository
	cfg    *config.AuditConfig
	now    func() time.Time
	logger *zap.Logger
}

func NewAuditService(repo audit.Repository, cfg *config.AuditConfig, logger *zap.Logger) *AuditService {
	return &AuditService{
		repo:   repo,
		cfg:    cfg,
		now:    time.Now,
		logger: logger.Named("AuditService"),
	}
}

// Record stores one operator action. A failing audit store is logged but
// does not undo or fail the action.
func (s *AuditService) Record(ctx context.Context, sess *session.Session, action audit.Action, licenseKey string, outcome audit.Outcome, detail string) {
	e := &audit.Entry{
		Action:     action,
		LicenseKey: licenseKey,
		Outcome:    outcome,
		Detail:     detail,
		CreatedAt:  s.now().UTC(),
	}
	if sess != nil {
		e.SessionID = sess.ID
		e.RemoteAddr = sess.RemoteAddr
	}
	if err := s.repo.Record(ctx, e); err != nil {
		s.logger.Error("Failed to record audit entry",
			zap.String("action", string(action)),
			zap.String("outcome", string(outcome)),
			zap.Error(err),
		)
	}
}

func (s *AuditService) Recent(ctx context.Context) ([]*audit.Entry, error) {
	limit := s.cfg.PageSize
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListRecent(ctx, limit)
}

// Prune removes entries older than the retention period.
func (s *AuditService) Prune(ctx context.Context) (int64, error) {
	if s.cfg.Retention <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.cfg.Retention)
	removed, err := s.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	s.logger.Info("Pruned audit entries", zap.Int64("removed", removed), zap.Time("cutoff", cutoff))
	return removed, nil
}
