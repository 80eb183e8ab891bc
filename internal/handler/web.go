package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
	"github.com/makkenzo/sorvide-admin/internal/config"
	"github.com/makkenzo/sorvide-admin/internal/domain/license"
	"github.com/makkenzo/sorvide-admin/internal/domain/session"
	"github.com/makkenzo/sorvide-admin/internal/handler/dto"
	"github.com/makkenzo/sorvide-admin/internal/handler/middleware"
	"github.com/makkenzo/sorvide-admin/internal/ierr"
	"github.com/makkenzo/sorvide-admin/internal/service"
	"go.uber.org/zap"
)

// WebHandler serves the server-rendered console. Every action redirects back
// to a page (post/redirect/get); outcomes travel as the session's toast.
type WebHandler struct {
	auth      *service.AuthService
	dashboard *service.DashboardService
	licenses  *service.LicenseService
	activity  *service.ActivityService
	audit     *service.AuditService
	notifier  *service.Notifier
	cookie    *config.SessionConfig
	logger    *zap.Logger
}

func NewWebHandler(
	auth *service.AuthService,
	dashboardService *service.DashboardService,
	licenseService *service.LicenseService,
	activityService *service.ActivityService,
	auditService *service.AuditService,
	notifier *service.Notifier,
	cookie *config.SessionConfig,
	logger *zap.Logger,
) *WebHandler {
	return &WebHandler{
		auth:      auth,
		dashboard: dashboardService,
		licenses:  licenseService,
		activity:  activityService,
		audit:     auditService,
		notifier:  notifier,
		cookie:    cookie,
		logger:    logger.Named("WebHandler"),
	}
}

func (h *WebHandler) render(c *gin.Context, status int, name string, sess *session.Session, data gin.H) {
	data["CSRF"] = csrf.TemplateField(c.Request)
	if sess != nil {
		data["Toast"] = h.notifier.Take(c.Request.Context(), sess.ID)
	}
	c.HTML(status, name, data)
}

// fail redirects after a failed action. Validation problems become a toast
// here; the services already left one for backend failures.
func (h *WebHandler) fail(c *gin.Context, sess *session.Session, err error, back string) {
	if errors.Is(err, ierr.ErrSessionExpired) {
		middleware.ClearSessionCookie(c, h.cookie.CookieName, h.cookie.CookieSecure)
		c.Redirect(http.StatusSeeOther, middleware.ExpiredLoginPath)
		return
	}
	if errors.Is(err, ierr.ErrValidation) {
		h.notifier.Error(c.Request.Context(), sess.ID, ierr.Message(err))
	}
	c.Redirect(http.StatusSeeOther, back)
}

func (h *WebHandler) LoginPage(c *gin.Context) {
	if credential, err := c.Cookie(h.cookie.CookieName); err == nil && credential != "" {
		if _, err := h.auth.Restore(c.Request.Context(), credential); err == nil {
			c.Redirect(http.StatusSeeOther, "/")
			return
		}
	}
	h.render(c, http.StatusOK, "login.html", nil, gin.H{
		"Title":   "Login",
		"Expired": c.Query("expired") == "1",
	})
}

func (h *WebHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.Warn("Failed to bind login form", zap.Error(err))
	}

	res, err := h.auth.Login(c.Request.Context(), req.Password, c.ClientIP())
	if err != nil {
		status := http.StatusUnauthorized
		switch {
		case errors.Is(err, ierr.ErrValidation):
			status = http.StatusBadRequest
		case errors.Is(err, ierr.ErrInternalServer):
			status = http.StatusInternalServerError
		}
		h.render(c, status, "login.html", nil, gin.H{
			"Title": "Login",
			"Error": ierr.Message(err),
		})
		return
	}

	middleware.SetSessionCookie(c, h.cookie.CookieName, res.Token, int(h.cookie.Lifetime.Seconds()), h.cookie.CookieSecure)
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *WebHandler) Logout(c *gin.Context) {
	sess := middleware.GetSession(c)
	if err := h.auth.Logout(c.Request.Context(), sess); err != nil {
		h.logger.Warn("Logout failed", zap.Error(err))
	}
	middleware.ClearSessionCookie(c, h.cookie.CookieName, h.cookie.CookieSecure)
	c.Redirect(http.StatusSeeOther, middleware.LoginPath)
}

func (h *WebHandler) Dashboard(c *gin.Context) {
	sess := middleware.GetSession(c)
	var req dto.DashboardRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Debug("Ignoring malformed dashboard query", zap.Error(err))
	}

	if req.Refresh {
		if err := h.dashboard.Refresh(c.Request.Context(), sess); err != nil && errors.Is(err, ierr.ErrSessionExpired) {
			h.fail(c, sess, err, "/")
			return
		}
	}

	view, err := h.dashboard.View(c.Request.Context(), sess, req.Query(), false)
	if err != nil {
		h.fail(c, sess, err, "/")
		return
	}

	h.render(c, http.StatusOK, "dashboard.html", sess, gin.H{
		"Title":     "Dashboard",
		"View":      view,
		"Durations": license.AllowedDurations,
	})
}

func (h *WebHandler) LicenseDetails(c *gin.Context) {
	sess := middleware.GetSession(c)
	key := c.Param("key")

	details, err := h.licenses.Details(c.Request.Context(), sess, key)
	if err != nil {
		if !errors.Is(err, ierr.ErrSessionExpired) && !errors.Is(err, ierr.ErrValidation) {
			h.notifier.Error(c.Request.Context(), sess.ID, "Failed to load license: "+ierr.Message(err))
		}
		h.fail(c, sess, err, "/")
		return
	}

	h.render(c, http.StatusOK, "details.html", sess, gin.H{
		"Title":   details.Row.ShortKey,
		"Details": details,
	})
}

func (h *WebHandler) ConfirmDeactivate(c *gin.Context) {
	h.confirm(c, "deactivate")
}

func (h *WebHandler) ConfirmDelete(c *gin.Context) {
	h.confirm(c, "delete")
}

// confirm shows the warning page. The license comes from the session's
// snapshot; an unknown key still gets the generic warning.
func (h *WebHandler) confirm(c *gin.Context, action string) {
	sess := middleware.GetSession(c)
	key := c.Param("key")
	lic := h.dashboard.Lookup(c.Request.Context(), sess, key)

	title := "Deactivate license"
	if action == "delete" {
		title = "Delete license"
	}
	h.render(c, http.StatusOK, "confirm.html", nil, gin.H{
		"Title":    title,
		"Action":   action,
		"Key":      key,
		"License":  lic,
		"IsStripe": lic != nil && lic.IsStripe(),
	})
}

func (h *WebHandler) CreateLicense(c *gin.Context) {
	sess := middleware.GetSession(c)
	var req dto.CreateLicenseRequest
	if err := c.ShouldBind(&req); err != nil {
		h.fail(c, sess, ierr.Public(ierr.ErrValidation, "Invalid license form"), "/")
		return
	}
	if _, err := h.licenses.CreateLicense(c.Request.Context(), sess, &req); err != nil {
		h.fail(c, sess, err, "/")
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *WebHandler) Deactivate(c *gin.Context) {
	sess := middleware.GetSession(c)
	if err := h.licenses.DeactivateLicense(c.Request.Context(), sess, c.Param("key")); err != nil {
		h.fail(c, sess, err, "/")
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *WebHandler) Delete(c *gin.Context) {
	sess := middleware.GetSession(c)
	if _, err := h.licenses.DeleteLicense(c.Request.Context(), sess, c.Param("key")); err != nil {
		h.fail(c, sess, err, "/")
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *WebHandler) SendLicenseEmail(c *gin.Context) {
	sess := middleware.GetSession(c)
	key := c.Param("key")
	back := "/licenses/" + url.PathEscape(key)

	var req dto.SendLicenseEmailRequest
	if err := c.ShouldBind(&req); err != nil {
		h.fail(c, sess, ierr.Public(ierr.ErrValidation, "Invalid email form"), back)
		return
	}
	if err := h.licenses.SendLicenseEmail(c.Request.Context(), sess, key, &req); err != nil {
		h.fail(c, sess, err, back)
		return
	}
	c.Redirect(http.StatusSeeOther, back)
}

func (h *WebHandler) TestEmailPage(c *gin.Context) {
	sess := middleware.GetSession(c)
	h.render(c, http.StatusOK, "test_email.html", sess, gin.H{"Title": "Test email"})
}

func (h *WebHandler) SendTestEmail(c *gin.Context) {
	sess := middleware.GetSession(c)
	var req dto.SendTestEmailRequest
	if err := c.ShouldBind(&req); err != nil {
		h.fail(c, sess, ierr.Public(ierr.ErrValidation, "Email type must be payment or renewal"), "/test-email")
		return
	}
	if err := h.licenses.SendTestEmail(c.Request.Context(), sess, &req); err != nil {
		h.fail(c, sess, err, "/test-email")
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *WebHandler) ClearActivity(c *gin.Context) {
	sess := middleware.GetSession(c)
	if err := h.activity.Clear(c.Request.Context(), sess); err != nil {
		h.fail(c, sess, err, "/")
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *WebHandler) SystemHealth(c *gin.Context) {
	sess := middleware.GetSession(c)
	if _, err := h.licenses.Health(c.Request.Context(), sess); err != nil {
		h.logger.Warn("Backend health check failed", zap.Error(err))
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *WebHandler) AuditLog(c *gin.Context) {
	sess := middleware.GetSession(c)
	entries, err := h.audit.Recent(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to load audit log", zap.Error(err))
		h.notifier.Error(c.Request.Context(), sess.ID, "Failed to load audit log")
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	h.render(c, http.StatusOK, "audit.html", sess, gin.H{
		"Title":   "Audit log",
		"Entries": entries,
	})
}
