package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/sorvide-admin/internal/domain/session"
	"github.com/makkenzo/sorvide-admin/internal/handler/dto"
	"github.com/makkenzo/sorvide-admin/internal/handler/middleware"
	"github.com/makkenzo/sorvide-admin/internal/ierr"
	"github.com/makkenzo/sorvide-admin/internal/service"
	"go.uber.org/zap"
)

type LicenseHandler struct {
	licenses  *service.LicenseService
	dashboard *service.DashboardService
	notifier  *service.Notifier
	logger    *zap.Logger
}

func NewLicenseHandler(licenses *service.LicenseService, dashboardService *service.DashboardService, notifier *service.Notifier, logger *zap.Logger) *LicenseHandler {
	return &LicenseHandler{
		licenses:  licenses,
		dashboard: dashboardService,
		notifier:  notifier,
		logger:    logger.Named("LicenseHandler"),
	}
}

// outcome consumes the toast an action left and returns its text.
func outcome(c *gin.Context, n *service.Notifier, sess *session.Session, fallback string) string {
	if toast := n.Take(c.Request.Context(), sess.ID); toast != nil {
		return toast.Message
	}
	return fallback
}

func (h *LicenseHandler) List(c *gin.Context) {
	sess := middleware.GetSession(c)
	var req dto.ListLicensesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Warn("Failed to bind or validate query parameters", zap.Error(err))
		_ = c.Error(err)
		return
	}

	view, err := h.dashboard.View(c.Request.Context(), sess, req.Query(), req.Refresh)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.notifier.Clear(c.Request.Context(), sess.ID)

	c.JSON(http.StatusOK, dto.LicenseListResponse{
		Licenses: view.Licenses,
		Page:     view.LicensePage,
		Matching: view.Matching,
		Stale:    view.Stale,
	})
}

func (h *LicenseHandler) Get(c *gin.Context) {
	sess := middleware.GetSession(c)
	details, err := h.licenses.Details(c.Request.Context(), sess, c.Param("key"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (h *LicenseHandler) Create(c *gin.Context) {
	sess := middleware.GetSession(c)
	var req dto.CreateLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind or validate request body", zap.Error(err))
		_ = c.Error(fmt.Errorf("%w: invalid request body: %v", ierr.ErrValidation, err))
		return
	}

	key, err := h.licenses.CreateLicense(c.Request.Context(), sess, &req)
	if err != nil {
		h.notifier.Clear(c.Request.Context(), sess.ID)
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.CreateLicenseResponse{
		LicenseKey: key,
		Days:       req.Days,
		Message:    outcome(c, h.notifier, sess, service.CreatedMessage(key, req.Days)),
	})
}

func (h *LicenseHandler) Deactivate(c *gin.Context) {
	sess := middleware.GetSession(c)
	if err := h.licenses.DeactivateLicense(c.Request.Context(), sess, c.Param("key")); err != nil {
		h.notifier.Clear(c.Request.Context(), sess.ID)
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: outcome(c, h.notifier, sess, "License deactivated successfully")})
}

func (h *LicenseHandler) Delete(c *gin.Context) {
	sess := middleware.GetSession(c)
	key := c.Param("key")
	res, err := h.licenses.DeleteLicense(c.Request.Context(), sess, key)
	if err != nil {
		h.notifier.Clear(c.Request.Context(), sess.ID)
		_ = c.Error(err)
		return
	}

	status := http.StatusOK
	if res.Degraded {
		status = http.StatusAccepted
	}
	c.JSON(status, dto.DeleteLicenseResponse{
		LicenseKey: key,
		Degraded:   res.Degraded,
		Message:    outcome(c, h.notifier, sess, "License deleted successfully"),
	})
}

func (h *LicenseHandler) SendEmail(c *gin.Context) {
	sess := middleware.GetSession(c)
	var req dto.SendLicenseEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(fmt.Errorf("%w: invalid request body: %v", ierr.ErrValidation, err))
		return
	}
	if err := h.licenses.SendLicenseEmail(c.Request.Context(), sess, c.Param("key"), &req); err != nil {
		h.notifier.Clear(c.Request.Context(), sess.ID)
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: outcome(c, h.notifier, sess, "License email sent successfully!")})
}

func (h *LicenseHandler) SendTestEmail(c *gin.Context) {
	sess := middleware.GetSession(c)
	var req dto.SendTestEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind or validate request body", zap.Error(err))
		_ = c.Error(err)
		return
	}
	if err := h.licenses.SendTestEmail(c.Request.Context(), sess, &req); err != nil {
		h.notifier.Clear(c.Request.Context(), sess.ID)
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: outcome(c, h.notifier, sess, "Test email sent successfully!")})
}
