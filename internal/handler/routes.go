package handler

import (
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Web       *WebHandler
	Export    *ExportHandler
	Auth      *AuthHandler
	License   *LicenseHandler
	Dashboard *DashboardHandler
	Health    *HealthHandler
}

// Middlewares are applied per route group. CSRF and CORS are optional.
type Middlewares struct {
	Cookie gin.HandlerFunc
	Bearer gin.HandlerFunc
	Errors gin.HandlerFunc
	CSRF   gin.HandlerFunc
	CORS   gin.HandlerFunc
}

func RegisterRoutes(router *gin.Engine, hs *Handlers, mw Middlewares) {
	router.GET("/healthz", hs.Health.Check)

	web := router.Group("/")
	if mw.CSRF != nil {
		web.Use(mw.CSRF)
	}
	web.GET("/login", hs.Web.LoginPage)
	web.POST("/login", hs.Web.Login)

	pages := web.Group("/", mw.Cookie)
	{
		pages.GET("/", hs.Web.Dashboard)
		pages.POST("/logout", hs.Web.Logout)
		pages.POST("/licenses", hs.Web.CreateLicense)
		pages.GET("/licenses/export.csv", hs.Export.LicensesCSV)
		pages.GET("/licenses/:key", hs.Web.LicenseDetails)
		pages.GET("/licenses/:key/deactivate", hs.Web.ConfirmDeactivate)
		pages.POST("/licenses/:key/deactivate", hs.Web.Deactivate)
		pages.GET("/licenses/:key/delete", hs.Web.ConfirmDelete)
		pages.POST("/licenses/:key/delete", hs.Web.Delete)
		pages.POST("/licenses/:key/email", hs.Web.SendLicenseEmail)
		pages.GET("/test-email", hs.Web.TestEmailPage)
		pages.POST("/test-email", hs.Web.SendTestEmail)
		pages.POST("/activity/clear", hs.Web.ClearActivity)
		pages.POST("/system/health", hs.Web.SystemHealth)
		pages.GET("/audit", hs.Web.AuditLog)
	}

	apiV1 := router.Group("/api/v1")
	if mw.CORS != nil {
		apiV1.Use(mw.CORS)
	}
	apiV1.Use(mw.Errors)

	authRoutes := apiV1.Group("/auth")
	{
		authRoutes.POST("/login", hs.Auth.Login)
		authRoutes.POST("/logout", mw.Bearer, hs.Auth.Logout)
	}

	authed := apiV1.Group("", mw.Bearer)
	{
		authed.GET("/dashboard", hs.Dashboard.Get)
		authed.GET("/revenue", hs.Dashboard.Revenue)
		authed.GET("/activity", hs.Dashboard.Activity)
		authed.DELETE("/activity", hs.Dashboard.ClearActivity)
		authed.GET("/audit", hs.Dashboard.Audit)

		authed.GET("/licenses", hs.License.List)
		authed.POST("/licenses", hs.License.Create)
		authed.GET("/licenses/:key", hs.License.Get)
		authed.DELETE("/licenses/:key", hs.License.Delete)
		authed.POST("/licenses/:key/deactivate", hs.License.Deactivate)
		authed.POST("/licenses/:key/email", hs.License.SendEmail)
		authed.POST("/test-email", hs.License.SendTestEmail)
	}
}
