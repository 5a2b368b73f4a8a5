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

	_ "github.com/noah-isme/cd-sync-api/api/swagger"
	"github.com/noah-isme/cd-sync-api/internal/client"
	"github.com/noah-isme/cd-sync-api/internal/handler"
	"github.com/noah-isme/cd-sync-api/internal/middleware"
	"github.com/noah-isme/cd-sync-api/internal/repository"
	"github.com/noah-isme/cd-sync-api/internal/service"
	"github.com/noah-isme/cd-sync-api/pkg/cache"
	"github.com/noah-isme/cd-sync-api/pkg/config"
	"github.com/noah-isme/cd-sync-api/pkg/database"
	"github.com/noah-isme/cd-sync-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/cd-sync-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/cd-sync-api/pkg/middleware/requestid"
	"github.com/noah-isme/cd-sync-api/pkg/scheduler"
)

// @title CD Sync API
// @version 0.1.0
// @description Relays frontend form submissions to ClickDimensions with a persisted retry queue
// @BasePath /
// @schemes http

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	// Redis only caches the remote schema; the service runs uncached when
	// it is unavailable.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, schema caching disabled", "error", err)
		redisClient = nil
	}

	queueRepo := repository.NewQueueRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cdClient := client.NewClickDimensions(cfg.ClickDimensions)
	captcha := client.NewRecaptcha(cfg.Recaptcha, logr)
	gotoClient := client.NewGotoWebinar(cfg.GotoWebinar)
	zoomClient := client.NewZoom(cfg.Zoom)
	notifier := client.NewNotifier(cfg.Notify, logr)

	metricsSvc := service.NewMetricsService()
	schemaSvc := service.NewSchemaService(cdClient, cacheRepo, cfg.ClickDimensions.SchemaCacheTTL, logr)
	validator := service.NewFieldValidator(cfg.ClickDimensions.BaseURL, logr)
	submissionSvc := service.NewSubmissionService(queueRepo, schemaSvc, validator, cdClient, gotoClient, zoomClient, notifier, metricsSvc, logr, service.SubmissionConfig{
		RefererHost:     cfg.ClickDimensions.RefererHost,
		MinCaptchaScore: cfg.Recaptcha.MinScore,
		FrontendTimeout: cfg.ClickDimensions.FrontendTimeout,
		RetryTimeout:    cfg.ClickDimensions.RetryTimeout,
	})
	retrySvc := service.NewRetryService(queueRepo, submissionSvc, gotoClient, zoomClient, metricsSvc, logr)
	cleanupSvc := service.NewCleanupService(queueRepo, cfg.Queue.RetentionDays, metricsSvc, logr)

	formHandler := handler.NewFormHandler(captcha, submissionSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/forms/submit", formHandler.Submit)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := scheduler.NewRunner(logr)
	runner.Every("queue-retry", cfg.Queue.RetryInterval, retrySvc.RunAll)
	runner.Daily("queue-retention", cleanupSvc.Run)
	runner.Start(ctx)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	runner.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}
