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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/preschool-ops-api/api/swagger"
	"github.com/noah-isme/preschool-ops-api/internal/handler"
	internalmiddleware "github.com/noah-isme/preschool-ops-api/internal/middleware"
	"github.com/noah-isme/preschool-ops-api/internal/models"
	"github.com/noah-isme/preschool-ops-api/internal/repository"
	"github.com/noah-isme/preschool-ops-api/internal/service"
	"github.com/noah-isme/preschool-ops-api/pkg/cache"
	"github.com/noah-isme/preschool-ops-api/pkg/config"
	"github.com/noah-isme/preschool-ops-api/pkg/database"
	"github.com/noah-isme/preschool-ops-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/preschool-ops-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/preschool-ops-api/pkg/middleware/requestid"
	"github.com/noah-isme/preschool-ops-api/pkg/storage"
)

// @title Preschool Ops API
// @version 1.0.0
// @description Branch scoping and admissions pipeline for multi-tenant preschools
// @BasePath /api/v1
// @schemes http https
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
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	metrics := service.NewMetricsService()
	validate := validator.New()

	var cacheRepo service.CacheRepository
	if cfg.Leads.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, lead cache disabled", zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(client, "preschool-ops", logr)
			defer repo.Close()
			cacheRepo = repo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Leads.CacheTTL, logr, cacheRepo != nil)

	schoolRepo := repository.NewSchoolRepository(db)
	branchRepo := repository.NewBranchRepository(db)
	leadRepo := repository.NewLeadRepository(db)

	authSvc := service.NewAuthService(logr, service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})
	tenantSvc := service.NewTenantService(schoolRepo, logr)
	leadSvc := service.NewLeadService(leadRepo, branchRepo, cacheSvc, metrics, validate, logr)
	branchSvc := service.NewBranchService(branchRepo, validate, logr)
	backfillSvc := service.NewBackfillService(schoolRepo, branchRepo, repository.NewBackfillRepository(db), metrics, logr)

	reports, err := storage.NewLocalStorage(cfg.Backfill.ReportsDir)
	if err != nil {
		logr.Fatal("failed to prepare report storage", zap.Error(err))
	}
	runner := service.NewBackfillRunner(backfillSvc, reports, service.BackfillRunnerConfig{Schedule: cfg.Backfill.Schedule}, logr)
	if err := runner.Start(ctx); err != nil {
		logr.Fatal("failed to start backfill runner", zap.Error(err))
	}
	defer runner.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.JWT(authSvc))

	leadHandler := handler.NewLeadHandler(leadSvc)
	branchHandler := handler.NewBranchHandler(branchSvc)

	school := api.Group("/schools/:slug", internalmiddleware.Tenant(tenantSvc))
	school.GET("/leads", leadHandler.List)
	school.GET("/leads/board", leadHandler.Board)
	school.POST("/leads", leadHandler.Create)
	school.PATCH("/leads/:id", leadHandler.Update)
	school.PATCH("/leads/:id/status", leadHandler.UpdateStatus)

	school.GET("/branches", branchHandler.List)
	school.POST("/branches", internalmiddleware.RequireRoles(models.RoleAdmin), branchHandler.Create)
	school.DELETE("/branches/:id", internalmiddleware.RequireRoles(models.RoleAdmin), branchHandler.Delete)

	if cfg.Backfill.APIEnabled {
		backfillHandler := handler.NewBackfillHandler(runner)
		admin := api.Group("/admin", internalmiddleware.RequirePlatformOperator())
		admin.POST("/branch-backfill", backfillHandler.Trigger)
		admin.GET("/branch-backfill/last", backfillHandler.Last)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
