package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/makkenzo/sorvide-admin/internal/backend"
	"github.com/makkenzo/sorvide-admin/internal/dashboard"
	"github.com/makkenzo/sorvide-admin/internal/domain/license"
	"go.uber.org/zap"
)

// DigestHandler summarizes the backend's licenses into gauges using the
// service token. Without a token the job does nothing.
type DigestHandler struct {
	api     backend.API
	token   string
	opts    dashboard.Options
	metrics *DigestMetrics
	now     func() time.Time
	logger  *zap.Logger
}

func NewDigestHandler(api backend.API, token string, opts dashboard.Options, metrics *DigestMetrics, logger *zap.Logger) *DigestHandler {
	return &DigestHandler{
		api:     api,
		token:   token,
		opts:    opts,
		metrics: metrics,
		now:     time.Now,
		logger:  logger.Named("DigestHandler"),
	}
}

func (h *DigestHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	if t.Type() != TypeDashboardDigest {
		return fmt.Errorf("unexpected task type: %s", t.Type())
	}

	var p DigestPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		h.logger.Error("Failed to unmarshal digest payload", zap.Error(err), zap.ByteString("payload", t.Payload()))
		return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
	}

	if h.token == "" {
		h.logger.Debug("No service token configured, skipping digest")
		return nil
	}

	licenses, err := h.api.ListLicenses(ctx, h.token, license.FilterAll, "")
	if err != nil {
		h.logger.Warn("Digest could not list licenses", zap.Error(err))
		return fmt.Errorf("list licenses: %w", err)
	}

	now := h.now()
	stats := dashboard.ComputeStats(licenses, now)
	revenue := dashboard.CalculateRevenue(licenses, h.opts.Policy, h.opts.Prices, now)

	h.metrics.licenses.WithLabelValues("total").Set(float64(stats.Total))
	h.metrics.licenses.WithLabelValues("active").Set(float64(stats.Active))
	h.metrics.licenses.WithLabelValues("expired").Set(float64(stats.Expired))
	h.metrics.licenses.WithLabelValues("expiring").Set(float64(stats.ExpiringSoon))
	h.metrics.revenue.WithLabelValues("monthly").Set(revenue.Monthly)
	h.metrics.revenue.WithLabelValues("lifetime").Set(revenue.Lifetime)
	h.metrics.updatedAt.Set(float64(now.Unix()))

	h.logger.Info("Dashboard digest finished",
		zap.Int("total", stats.Total),
		zap.Int("active", stats.Active),
		zap.Int("expired", stats.Expired),
		zap.Int("expiring", stats.ExpiringSoon),
		zap.Float64("monthlyRevenue", revenue.Monthly),
	)
	return nil
}
