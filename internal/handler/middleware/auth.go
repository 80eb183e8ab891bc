package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/sorvide-admin/internal/domain/session"
	"github.com/makkenzo/sorvide-admin/internal/ierr"
	"github.com/makkenzo/sorvide-admin/internal/service"
	"go.uber.org/zap"
)

const (
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
	sessionContextKey   = "adminSession"

	LoginPath        = "/login"
	ExpiredLoginPath = "/login?expired=1"
)

// SessionRestorer resolves a session credential.
type SessionRestorer interface {
	Restore(ctx context.Context, credential string) (*session.Session, error)
}

var _ SessionRestorer = (*service.AuthService)(nil)

// AuthMiddleware guards the JSON API with a Bearer session credential.
func AuthMiddleware(auth SessionRestorer, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("AuthMiddleware")
	return func(c *gin.Context) {
		authHeader := c.GetHeader(authorizationHeader)
		if authHeader == "" {
			log.Debug("Authorization header is missing")
			_ = c.Error(fmt.Errorf("%w: authorization header required", ierr.ErrUnauthorized))
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, bearerPrefix) {
			log.Debug("Authorization header format is invalid")
			_ = c.Error(fmt.Errorf("%w: invalid authorization header format", ierr.ErrUnauthorized))
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, bearerPrefix)
		if tokenString == "" {
			log.Debug("Token is missing after Bearer prefix")
			_ = c.Error(fmt.Errorf("%w: token missing", ierr.ErrUnauthorized))
			c.Abort()
			return
		}

		sess, err := auth.Restore(c.Request.Context(), tokenString)
		if err != nil {
			log.Info("Session credential rejected", zap.Error(err))
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(sessionContextKey, sess)
		c.Next()
	}
}

// CookieAuthMiddleware guards the HTML pages. Requests without a usable
// session are sent to the login page; expired ones are told so.
func CookieAuthMiddleware(auth SessionRestorer, cookieName string, secure bool, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("CookieAuthMiddleware")
	return func(c *gin.Context) {
		credential, _ := c.Cookie(cookieName)
		sess, err := auth.Restore(c.Request.Context(), credential)
		if err != nil {
			target := LoginPath
			if errors.Is(err, ierr.ErrSessionExpired) {
				target = ExpiredLoginPath
			}
			if credential != "" {
				log.Info("Session cookie rejected", zap.Error(err))
				ClearSessionCookie(c, cookieName, secure)
			}
			c.Redirect(http.StatusSeeOther, target)
			c.Abort()
			return
		}

		c.Set(sessionContextKey, sess)
		c.Next()
	}
}

func SetSessionCookie(c *gin.Context, name, value string, maxAge int, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", secure, true)
}

func ClearSessionCookie(c *gin.Context, name string, secure bool) {
	SetSessionCookie(c, name, "", -1, secure)
}

func GetSession(c *gin.Context) *session.Session {
	value, exists := c.Get(sessionContextKey)
	if !exists {
		return nil
	}
	sess, ok := value.(*session.Session)
	if !ok {
		return nil
	}
	return sess
}
