package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/makkenzo/sorvide-admin/internal/handler/dto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const statusDisabled = "disabled"

// HealthHandler reports the console's own dependencies. Either may be nil
// when the deployment runs on in-memory storage.
type HealthHandler struct {
	db     *pgxpool.Pool
	redis  *redis.Client
	logger *zap.Logger
}

func NewHealthHandler(db *pgxpool.Pool, redis *redis.Client, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		redis:  redis,
		logger: logger.Named("HealthHandler"),
	}
}

func (h *HealthHandler) Check(c *gin.Context) {
	dbStatus := h.ping(c.Request.Context(), "PostgreSQL", h.db != nil, func(ctx context.Context) error {
		return h.db.Ping(ctx)
	})
	redisStatus := h.ping(c.Request.Context(), "Redis", h.redis != nil, func(ctx context.Context) error {
		return h.redis.Ping(ctx).Err()
	})

	status, code := "ok", http.StatusOK
	if dbStatus == "error" || redisStatus == "error" {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(code, dto.HealthResponse{
		Status: status,
		Dependencies: dto.DependencyStatuses{
			Database: dbStatus,
			Redis:    redisStatus,
		},
	})
}

func (h *HealthHandler) ping(ctx context.Context, name string, enabled bool, fn func(context.Context) error) string {
	if !enabled {
		return statusDisabled
	}
	if err := fn(ctx); err != nil {
		h.logger.Error("Health check: "+name+" ping failed", zap.Error(err))
		return "error"
	}
	return "ok"
}
