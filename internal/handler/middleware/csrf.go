package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

const csrfFieldName = "csrf_token"

// CSRFMiddleware adapts gorilla/csrf to gin for the form-posting pages.
// Plain HTTP deployments (secure=false) skip the strict referer check that
// gorilla applies to TLS requests.
func CSRFMiddleware(authKey []byte, secure bool, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("CSRFMiddleware")
	protect := csrf.Protect(authKey,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.FieldName(csrfFieldName),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Warn("CSRF check failed", zap.String("path", r.URL.Path), zap.Error(csrf.FailureReason(r)))
			http.Error(w, "Forbidden - the form expired, reload the page and try again", http.StatusForbidden)
		})),
	)

	return func(c *gin.Context) {
		passed := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			c.Next()
		})

		req := c.Request
		if !secure {
			req = csrf.PlaintextHTTPRequest(req)
		}
		protect(next).ServeHTTP(c.Writer, req)
		if !passed {
			c.Abort()
		}
	}
}
