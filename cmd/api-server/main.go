package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/skynet-legal/legaleagle-api/api/swagger"
	"github.com/skynet-legal/legaleagle-api/internal/handler"
	"github.com/skynet-legal/legaleagle-api/internal/middleware"
	"github.com/skynet-legal/legaleagle-api/internal/models"
	"github.com/skynet-legal/legaleagle-api/internal/repository"
	"github.com/skynet-legal/legaleagle-api/internal/service"
	"github.com/skynet-legal/legaleagle-api/pkg/cache"
	"github.com/skynet-legal/legaleagle-api/pkg/config"
	"github.com/skynet-legal/legaleagle-api/pkg/database"
	"github.com/skynet-legal/legaleagle-api/pkg/export"
	"github.com/skynet-legal/legaleagle-api/pkg/jobs"
	"github.com/skynet-legal/legaleagle-api/pkg/logger"
	corsmiddleware "github.com/skynet-legal/legaleagle-api/pkg/middleware/cors"
	reqidmiddleware "github.com/skynet-legal/legaleagle-api/pkg/middleware/requestid"
	"github.com/skynet-legal/legaleagle-api/pkg/storage"
)

// @title LegalEagle API
// @version 1.0.0
// @description Contract portfolio dashboard: AI document extraction, expiry tracking, renewal drafting and alert dispatch
// @BasePath /api/v1
// @schemes http

type renewalApprovalPayload struct {
	UserID      string
	AgreementID string
}

type autoNotifyPayload struct {
	UserID string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cacheEnabled := true
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, continuing without cache", "error", err)
		redisClient = nil
		cacheEnabled = false
	}

	docStore, err := storage.NewDocumentStore(cfg.Documents)
	if err != nil {
		logr.Sugar().Fatalw("failed to init document store", "error", err)
	}
	if err := docStore.EnsureBucket(ctx); err != nil {
		logr.Sugar().Warnw("document bucket check failed, uploads may not be archived", "error", err)
	}

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	agreementRepo := repository.NewAgreementRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	renewalRepo := repository.NewRenewalRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cacheEnabled)
	dashboardSvc := service.NewDashboardService(agreementRepo, cacheSvc, cfg.Dashboard.CacheTTL, logr)
	extractionSvc := service.NewExtractionService(cfg.Extraction, metricsSvc, logr)

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "legaleagle-api",
	})

	agreementSvc := service.NewAgreementService(agreementRepo, extractionSvc, docStore, userRepo, dashboardSvc, nil, logr, service.AgreementServiceConfig{
		MaxFileSize:  cfg.Documents.MaxFileSize,
		AllowedMIMEs: cfg.Documents.AllowedMIMEs,
	})
	settingsSvc := service.NewSettingsService(settingsRepo, userRepo, nil, logr)
	notificationSvc := service.NewNotificationService(agreementRepo, notificationRepo, settingsSvc, metricsSvc, logr, cfg.Notifier)

	// Submitted drafts flip their source agreement to pending approval on a
	// background queue; the service falls back to inline application when the
	// queue rejects the job.
	var renewalSvc *service.RenewalService
	renewalQueue := jobs.NewQueue("renewal-approvals", func(ctx context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(renewalApprovalPayload)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", job.Payload)
		}
		return renewalSvc.ApplyApproval(ctx, payload.UserID, payload.AgreementID)
	}, jobs.QueueConfig{Workers: 2, BufferSize: 64, MaxRetries: 3, RetryDelay: 2 * time.Second, Logger: logr})

	renewalSvc = service.NewRenewalService(renewalRepo, agreementRepo, extractionSvc, agreementSvc, queueEnqueuer{renewalQueue}, export.NewPDFExporter(), userRepo, nil, logr)

	notifyQueue := jobs.NewQueue("auto-notify", func(ctx context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(autoNotifyPayload)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", job.Payload)
		}
		enabled, err := settingsSvc.AutoNotifyEnabled(ctx, payload.UserID)
		if err != nil {
			return err
		}
		if !enabled {
			return nil
		}
		_, err = notificationSvc.Dispatch(ctx, payload.UserID)
		return err
	}, jobs.QueueConfig{Workers: 1, BufferSize: 32, MaxRetries: 1, RetryDelay: 30 * time.Second, Logger: logr})

	renewalQueue.Start(ctx)
	defer renewalQueue.Stop()
	notifyQueue.Start(ctx)
	defer notifyQueue.Stop()

	scheduler := service.NewNotifyScheduler(settingsRepo, func(userID string) error {
		return notifyQueue.Enqueue(jobs.Job{Type: "auto-notify", Payload: autoNotifyPayload{UserID: userID}})
	}, cfg.Notifier.AutoInterval, logr)
	go scheduler.Run(ctx)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	agreementHandler := handler.NewAgreementHandler(agreementSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	renewalHandler := handler.NewRenewalHandler(renewalSvc)
	settingsHandler := handler.NewSettingsHandler(settingsSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/auth/me", authHandler.Me)

	agreements := protected.Group("/agreements")
	agreements.POST("", agreementHandler.Upload)
	agreements.GET("", agreementHandler.List)
	agreements.DELETE("", agreementHandler.DeleteAll)
	agreements.GET("/:id", agreementHandler.Get)
	agreements.DELETE("/:id", agreementHandler.Delete)
	agreements.GET("/:id/document", agreementHandler.DocumentURL)
	agreements.POST("/:id/renewal", renewalHandler.Generate)

	renewals := protected.Group("/renewals")
	renewals.GET("/:id", renewalHandler.Get)
	renewals.PUT("/:id", renewalHandler.Edit)
	renewals.POST("/:id/sign", renewalHandler.Sign)
	renewals.POST("/:id/reopen", renewalHandler.Reopen)
	renewals.POST("/:id/submit", renewalHandler.Submit)
	renewals.GET("/:id/pdf", renewalHandler.PDF)

	notifications := protected.Group("/notifications")
	notifications.POST("/dispatch", middleware.Audit(userRepo, models.AuditActionNotifyDispatch, "notifications"), notificationHandler.Dispatch)
	notifications.GET("", notificationHandler.History)

	settings := protected.Group("/settings")
	settings.GET("", settingsHandler.List)
	settings.PUT("", settingsHandler.Update)
	settings.PUT("/bulk", settingsHandler.BulkUpdate)

	protected.GET("/dashboard/stats", dashboardHandler.Stats)
	protected.GET("/metrics/system", middleware.RequireRoles(models.RoleAdmin), metricsHandler.System)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("forced shutdown", "error", err)
	}
}

type queueEnqueuer struct {
	queue *jobs.Queue
}

func (q queueEnqueuer) EnqueueSubmit(userID, agreementID string) error {
	return q.queue.Enqueue(jobs.Job{
		Type:    "renewal-approval",
		Payload: renewalApprovalPayload{UserID: userID, AgreementID: agreementID},
	})
}
