package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/makkenzo/sorvide-admin/internal/backend"
	"github.com/makkenzo/sorvide-admin/internal/config"
	"github.com/makkenzo/sorvide-admin/internal/domain/audit"
	"github.com/makkenzo/sorvide-admin/internal/domain/notification"
	"github.com/makkenzo/sorvide-admin/internal/domain/session"
	"github.com/makkenzo/sorvide-admin/internal/domain/snapshot"
	"github.com/makkenzo/sorvide-admin/internal/handler"
	"github.com/makkenzo/sorvide-admin/internal/handler/middleware"
	"github.com/makkenzo/sorvide-admin/internal/ierr"
	"github.com/makkenzo/sorvide-admin/internal/service"
	"github.com/makkenzo/sorvide-admin/internal/storage/memstorage"
	"github.com/makkenzo/sorvide-admin/internal/storage/postgres"
	redisstore "github.com/makkenzo/sorvide-admin/internal/storage/redis"
	"github.com/makkenzo/sorvide-admin/internal/tasks"
	"github.com/makkenzo/sorvide-admin/internal/util"
	"github.com/makkenzo/sorvide-admin/internal/worker"
	"github.com/makkenzo/sorvide-admin/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "./configs/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.NewZapLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	sugarLogger := appLogger.Sugar()

	sugarLogger.Info("Starting Sorvide admin console...")
	sugarLogger.Infof("Log level set to: %s", cfg.Log.Level)
	sugarLogger.Infof("Backend API: %s", cfg.Backend.BaseURL)

	appCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if cfg.Storage.Driver == "redis" || cfg.Worker.Enabled {
		redisClient, err = redisstore.NewRedisClient(appCtx, &cfg.Redis, appLogger)
		if err != nil {
			sugarLogger.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
	}

	var (
		sessionRepo      session.Repository
		snapshotRepo     snapshot.Repository
		notificationRepo notification.Repository
	)
	switch cfg.Storage.Driver {
	case "redis":
		sessionRepo = redisstore.NewSessionStore(redisClient, appLogger)
		snapshotRepo = redisstore.NewSnapshotStore(redisClient, appLogger)
		notificationRepo = redisstore.NewNotificationStore(redisClient, appLogger)
	case "memory":
		sugarLogger.Warn("Using in-memory session storage; sessions are lost on restart")
		sessionRepo = memstorage.NewSessionStore()
		snapshotRepo = memstorage.NewSnapshotStore()
		notificationRepo = memstorage.NewNotificationStore()
	default:
		sugarLogger.Fatalf("Unknown storage driver %q (expected redis or memory)", cfg.Storage.Driver)
	}

	var (
		dbPool    *pgxpool.Pool
		auditRepo audit.Repository
	)
	if cfg.Database.URL != "" {
		dbPool, err = postgres.NewPgxPool(appCtx, &cfg.Database, appLogger)
		if err != nil {
			sugarLogger.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		defer dbPool.Close()

		pgAudit := postgres.NewAuditRepository(dbPool, appLogger)
		if err := pgAudit.EnsureSchema(appCtx); err != nil {
			sugarLogger.Fatalf("Failed to prepare audit schema: %v", err)
		}
		auditRepo = pgAudit
	} else {
		sugarLogger.Warn("No database configured; audit log is kept in memory")
		auditRepo = memstorage.NewAuditStore()
	}

	signingKey, generated, err := util.KeyOrRandom(cfg.Session.SigningKey, 32)
	if err != nil {
		sugarLogger.Fatalf("Failed to prepare session signing key: %v", err)
	}
	if generated {
		sugarLogger.Warn("No session signing key configured; generated one, sessions will not survive a restart")
	}

	backendMetrics := backend.NewMetrics(prometheus.DefaultRegisterer)
	apiClient := backend.NewClient(&cfg.Backend, backendMetrics, appLogger)

	notifier := service.NewNotifier(notificationRepo, &cfg.Notification, appLogger)
	auditService := service.NewAuditService(auditRepo, &cfg.Audit, appLogger)
	authService := service.NewAuthService(apiClient, sessionRepo, snapshotRepo, notifier, auditService, &cfg.Session, &cfg.Auth, signingKey, appLogger)
	dashboardService, err := service.NewDashboardService(apiClient, snapshotRepo, notifier, authService, &cfg.Dashboard, &cfg.Storage, appLogger)
	if err != nil {
		sugarLogger.Fatalf("Invalid dashboard configuration: %v", err)
	}
	licenseService := service.NewLicenseService(apiClient, dashboardService, notifier, auditService, appLogger)
	activityService := service.NewActivityService(apiClient, dashboardService, notifier, auditService, appLogger)

	webHandler := handler.NewWebHandler(authService, dashboardService, licenseService, activityService, auditService, notifier, &cfg.Session, appLogger)
	handlers := &handler.Handlers{
		Web:       webHandler,
		Export:    handler.NewExportHandler(dashboardService, webHandler, appLogger),
		Auth:      handler.NewAuthHandler(authService, notifier, appLogger),
		License:   handler.NewLicenseHandler(licenseService, dashboardService, notifier, appLogger),
		Dashboard: handler.NewDashboardHandler(dashboardService, activityService, auditService, notifier, appLogger),
		Health:    handler.NewHealthHandler(dbPool, redisClient, appLogger),
	}

	middlewares := handler.Middlewares{
		Cookie: middleware.CookieAuthMiddleware(authService, cfg.Session.CookieName, cfg.Session.CookieSecure, appLogger),
		Bearer: middleware.AuthMiddleware(authService, appLogger),
		Errors: middleware.ErrorHandlerMiddleware(appLogger),
	}
	if cfg.CSRF.Enabled {
		csrfKey, generated, err := util.KeyOrRandom(cfg.CSRF.AuthKey, 32)
		if err != nil {
			sugarLogger.Fatalf("Failed to prepare CSRF key: %v", err)
		}
		if generated {
			sugarLogger.Warn("No CSRF key configured; generated one, open forms expire on restart")
		}
		middlewares.CSRF = middleware.CSRFMiddleware(csrfKey, cfg.Session.CookieSecure, appLogger)
	}
	if len(cfg.CORS.AllowOrigins) > 0 {
		middlewares.CORS = cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		})
	}

	templates, err := handler.Templates()
	if err != nil {
		sugarLogger.Fatalf("Failed to parse page templates: %v", err)
	}

	router := gin.New()
	router.SetHTMLTemplate(templates)
	router.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logMsg := "Panic recovered"
		if err, ok := recovered.(string); ok {
			logMsg = fmt.Sprintf("%s: %s", logMsg, err)
		} else if err, ok := recovered.(error); ok {
			logMsg = fmt.Sprintf("%s: %v", logMsg, err)
		}
		appLogger.Error(logMsg, zap.Stack("stack"))

		_ = c.Error(ierr.ErrInternalServer)
		c.AbortWithStatus(http.StatusInternalServerError)
	}))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handler.RegisterRoutes(router, handlers, middlewares)

	g, groupCtx := errgroup.WithContext(appCtx)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g.Go(func() error {
		sugarLogger.Infof("HTTP server listening on port %s", cfg.Server.Port)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugarLogger.Errorf("HTTP server ListenAndServe error: %v", err)
			return fmt.Errorf("http server failed: %w", err)
		}
		sugarLogger.Info("HTTP server stopped listening.")
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		sugarLogger.Info("Shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownPeriod)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			sugarLogger.Errorf("HTTP server graceful shutdown failed: %v", err)
			return fmt.Errorf("http server shutdown error: %w", err)
		}
		sugarLogger.Info("HTTP server shutdown complete.")
		return nil
	})

	if cfg.Worker.Enabled {
		if cfg.Backend.ServiceToken == "" {
			sugarLogger.Warn("No backend service token configured; the dashboard digest job will skip its runs")
		}
		workerHandlers := worker.Handlers{
			Digest: tasks.NewDigestHandler(apiClient, cfg.Backend.ServiceToken, dashboardService.Options(), tasks.NewDigestMetrics(prometheus.DefaultRegisterer), appLogger),
			Prune:  tasks.NewAuditPruneHandler(auditService, appLogger),
		}
		g.Go(func() error {
			if err := worker.Run(groupCtx, cfg, workerHandlers, appLogger); err != nil {
				sugarLogger.Error("Asynq worker failed", zap.Error(err))
				return fmt.Errorf("asynq worker error: %w", err)
			}
			sugarLogger.Info("Asynq workers finished gracefully.")
			return nil
		})
	}

	sugarLogger.Info("Application started. Waiting for interrupt signal (Ctrl+C) or component error...")

	waitErr := g.Wait()

	sugarLogger.Info("Shutdown sequence finished.")

	if waitErr != nil {
		if errors.Is(waitErr, context.Canceled) {
			sugarLogger.Info("Shutdown reason: Context canceled (likely due to OS signal).")
		} else {
			sugarLogger.Errorf("Application shutdown finished with unexpected error: %v", waitErr)
		}
	} else {
		sugarLogger.Info("Application shutdown successfully (all components finished without errors).")
	}

	sugarLogger.Info("Application exiting now.")
}
