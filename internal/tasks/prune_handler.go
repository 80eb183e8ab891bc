package tasks

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

type Pruner interface {
	Prune(ctx context.Context) (int64, error)
}

type AuditPruneHandler struct {
	pruner Pruner
	logger *zap.Logger
}

func NewAuditPruneHandler(pruner Pruner, logger *zap.Logger) *AuditPruneHandler {
	return &AuditPruneHandler{
		pruner: pruner,
		logger: logger.Named("AuditPruneHandler"),
	}
}

func (h *AuditPruneHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	if t.Type() != TypeAuditPrune {
		return fmt.Errorf("unexpected task type: %s", t.Type())
	}

	removed, err := h.pruner.Prune(ctx)
	if err != nil {
		h.logger.Error("Audit prune failed", zap.Error(err))
		return fmt.Errorf("prune audit log: %w", err)
	}
	h.logger.Info("Audit prune task finished", zap.Int64("removed", removed))
	return nil
}
