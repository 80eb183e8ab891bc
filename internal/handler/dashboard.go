package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/sorvide-admin/internal/handler/dto"
	"github.com/makkenzo/sorvide-admin/internal/handler/middleware"
	"github.com/makkenzo/sorvide-admin/internal/service"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	dashboard *service.DashboardService
	activity  *service.ActivityService
	audit     *service.AuditService
	notifier  *service.Notifier
	logger    *zap.Logger
}

func NewDashboardHandler(
	dashboardService *service.DashboardService,
	activityService *service.ActivityService,
	auditService *service.AuditService,
	notifier *service.Notifier,
	logger *zap.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboardService,
		activity:  activityService,
		audit:     auditService,
		notifier:  notifier,
		logger:    logger.Named("DashboardHandler"),
	}
}

func (h *DashboardHandler) Get(c *gin.Context) {
	sess := middleware.GetSession(c)
	var req dto.DashboardRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		_ = c.Error(err)
		return
	}

	view, err := h.dashboard.View(c.Request.Context(), sess, req.Query(), req.Refresh)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.notifier.Clear(c.Request.Context(), sess.ID)
	c.JSON(http.StatusOK, view)
}

func (h *DashboardHandler) Activity(c *gin.Context) {
	sess := middleware.GetSession(c)
	var req dto.ActivityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		_ = c.Error(err)
		return
	}

	// The activity feed rides on whatever license query the session last used.
	view, err := h.dashboard.View(c.Request.Context(), sess, h.dashboard.CurrentQuery(c.Request.Context(), sess, req.Page), req.Refresh)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.notifier.Clear(c.Request.Context(), sess.ID)
	c.JSON(http.StatusOK, dto.ActivityListResponse{
		Activities: view.Activities,
		Page:       view.ActivityPage,
	})
}

func (h *DashboardHandler) ClearActivity(c *gin.Context) {
	sess := middleware.GetSession(c)
	if err := h.activity.Clear(c.Request.Context(), sess); err != nil {
		h.notifier.Clear(c.Request.Context(), sess.ID)
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: outcome(c, h.notifier, sess, "All activity cleared successfully")})
}

func (h *DashboardHandler) Revenue(c *gin.Context) {
	sess := middleware.GetSession(c)
	rev, err := h.dashboard.Revenue(c.Request.Context(), sess)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.notifier.Clear(c.Request.Context(), sess.ID)
	c.JSON(http.StatusOK, dto.RevenueResponse{
		Revenue:  rev,
		Currency: "USD",
		AsOf:     time.Now().UTC(),
	})
}

func (h *DashboardHandler) Audit(c *gin.Context) {
	entries, err := h.audit.Recent(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to load audit log", zap.Error(err))
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.AuditListResponse{Entries: entries})
}
