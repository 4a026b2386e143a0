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
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/coach-periodization-api/api/swagger"
	"github.com/noah-isme/coach-periodization-api/internal/handler"
	"github.com/noah-isme/coach-periodization-api/internal/middleware"
	"github.com/noah-isme/coach-periodization-api/internal/models"
	"github.com/noah-isme/coach-periodization-api/internal/repository"
	"github.com/noah-isme/coach-periodization-api/internal/service"
	"github.com/noah-isme/coach-periodization-api/pkg/cache"
	"github.com/noah-isme/coach-periodization-api/pkg/config"
	"github.com/noah-isme/coach-periodization-api/pkg/database"
	"github.com/noah-isme/coach-periodization-api/pkg/export"
	"github.com/noah-isme/coach-periodization-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/coach-periodization-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/coach-periodization-api/pkg/middleware/requestid"
)

// @title Coach Periodization API
// @version 1.0.0
// @description Period editor and load derivation for training plans
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, load cache disabled", zap.Error(err))
			redisClient = nil
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Periodization.LoadCacheTTL, logr,
		cfg.Periodization.LoadCacheEnabled && redisClient != nil)
	tokenSvc := service.NewTokenService(service.TokenConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		Expiry: cfg.JWT.Expiration,
	})

	periodizationSvc := service.NewPeriodizationService(
		repository.NewPlanRepository(db),
		repository.NewPeriodRepository(db),
		repository.NewAssignmentRepository(db),
		repository.NewOneRepMaxRepository(db),
		repository.NewExerciseRepository(db),
		cacheSvc,
		metricsSvc,
		validator.New(),
		logr,
		service.PeriodizationConfig{
			QueueMutations: cfg.Periodization.QueueMutations,
			PersistRetries: cfg.Periodization.PersistRetries,
			RMConcurrency:  cfg.Periodization.RMConcurrency,
			LoadCacheTTL:   cfg.Periodization.LoadCacheTTL,
		},
	)
	csvExporter := export.NewCSVExporter()
	csvExporter.Preamble = cfg.Periodization.CSVPreamble
	exportSvc := service.NewLoadExportService(periodizationSvc,
		service.LoadExportConfig{MaxRows: cfg.Periodization.ExportMaxRows},
		logr, csvExporter, export.NewPDFExporter())

	periodizationHandler := handler.NewPeriodizationHandler(periodizationSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, map[string]handler.ReadinessCheck{
		"postgres": db.PingContext,
		"redis":    cacheRepo.Ping,
	})

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(tokenSvc))
	api.GET("/metrics/summary", middleware.RequireRoles(models.RoleAdmin), metricsHandler.Summary)

	coaching := api.Group("")
	coaching.Use(middleware.RequireRoles(models.RoleCoach, models.RoleAdmin))
	periodizationHandler.Register(coaching)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
