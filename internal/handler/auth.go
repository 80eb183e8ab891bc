package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/sorvide-admin/internal/handler/dto"
	"github.com/makkenzo/sorvide-admin/internal/handler/middleware"
	"github.com/makkenzo/sorvide-admin/internal/ierr"
	"github.com/makkenzo/sorvide-admin/internal/service"
	"go.uber.org/zap"
)

type AuthHandler struct {
	service  *service.AuthService
	notifier *service.Notifier
	logger   *zap.Logger
}

func NewAuthHandler(service *service.AuthService, notifier *service.Notifier, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service:  service,
		notifier: notifier,
		logger:   logger.Named("AuthHandler"),
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind login request", zap.Error(err))
		_ = c.Error(fmt.Errorf("%w: invalid request body: %v", ierr.ErrValidation, err))
		return
	}

	res, err := h.service.Login(c.Request.Context(), req.Password, c.ClientIP())
	if err != nil {
		h.logger.Info("Login rejected", zap.String("remoteAddr", c.ClientIP()), zap.Error(err))
		_ = c.Error(err)
		return
	}
	// API clients get the outcome in the response, not as a toast.
	h.notifier.Clear(c.Request.Context(), res.Session.ID)

	c.JSON(http.StatusOK, dto.LoginResponse{
		AccessToken: res.Token,
		ExpiresAt:   res.Session.ExpiresAt,
		Source:      string(res.Session.Source),
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	sess := middleware.GetSession(c)
	if err := h.service.Logout(c.Request.Context(), sess); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Logged out"})
}
