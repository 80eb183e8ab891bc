package service

import (
	"context"
	"time"

	"github.com/makkenzo/sorvide-admin/internal/config"
	"github.com/makkenzo/sorvide-admin/internal/domain/notification"
	"go.uber.org/zap"
)

// Notifier holds the single pending toast of each session. Failures are
// logged and swallowed: a lost toast never fails the action it describes.
type Notifier struct {
	repo   notification.Repository
	cfg    *config.NotificationConfig
	now    func() time.Time
	logger *zap.Logger
}

func NewNotifier(repo notification.Repository, cfg *config.NotificationConfig, logger *zap.Logger) *Notifier {
	return &Notifier{
		repo:   repo,
		cfg:    cfg,
		now:    time.Now,
		logger: logger.Named("Notifier"),
	}
}

func (n *Notifier) Success(ctx context.Context, sessionID, msg string) {
	n.Notify(ctx, sessionID, notification.LevelSuccess, msg)
}

func (n *Notifier) Error(ctx context.Context, sessionID, msg string) {
	n.Notify(ctx, sessionID, notification.LevelError, msg)
}

func (n *Notifier) Warning(ctx context.Context, sessionID, msg string) {
	n.Notify(ctx, sessionID, notification.LevelWarning, msg)
}

func (n *Notifier) Info(ctx context.Context, sessionID, msg string) {
	n.Notify(ctx, sessionID, notification.LevelInfo, msg)
}

// Notify replaces whatever toast the session had pending.
func (n *Notifier) Notify(ctx context.Context, sessionID string, level notification.Level, msg string) {
	if sessionID == "" {
		return
	}
	toast := &notification.Notification{
		Level:     level,
		Message:   msg,
		Duration:  n.cfg.DefaultDuration,
		FadeOut:   n.cfg.FadeOut,
		CreatedAt: n.now(),
	}
	if err := n.repo.Put(ctx, sessionID, toast, n.cfg.PendingTTL); err != nil {
		n.logger.Warn("Failed to store notification", zap.String("sessionID", sessionID), zap.Error(err))
	}
}

// Take consumes the pending toast. It returns nil when there is none.
func (n *Notifier) Take(ctx context.Context, sessionID string) *notification.Notification {
	toast, err := n.repo.Pop(ctx, sessionID)
	if err != nil {
		n.logger.Warn("Failed to load notification", zap.String("sessionID", sessionID), zap.Error(err))
		return nil
	}
	return toast
}

func (n *Notifier) Clear(ctx context.Context, sessionID string) {
	if err := n.repo.Clear(ctx, sessionID); err != nil {
		n.logger.Warn("Failed to clear notification", zap.String("sessionID", sessionID), zap.Error(err))
	}
}
