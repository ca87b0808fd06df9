package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/internship-api/api/swagger"
	"github.com/noah-isme/internship-api/internal/handler"
	"github.com/noah-isme/internship-api/internal/middleware"
	"github.com/noah-isme/internship-api/internal/repository"
	"github.com/noah-isme/internship-api/internal/service"
	"github.com/noah-isme/internship-api/pkg/cache"
	"github.com/noah-isme/internship-api/pkg/config"
	"github.com/noah-isme/internship-api/pkg/database"
	"github.com/noah-isme/internship-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/internship-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/internship-api/pkg/middleware/requestid"
)

// @title Internship Applications API
// @version 1.0.0
// @description Application lifecycle for internship postings
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

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, apply rate limit kept in memory", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	applications := repository.NewApplicationRepository(db)
	postings := repository.NewPostingRepository(db)
	profiles := repository.NewProfileRepository(db)

	events := service.NewApplicationEventService(repository.NewApplicationEventRepository(db), cfg.Events, metrics, logr)
	events.Start(context.WithoutCancel(ctx))
	defer events.Stop()

	applicationSvc := service.NewApplicationService(applications, postings, profiles, events, metrics, validate, logr)
	exportSvc := service.NewExportService(applicationSvc, logr, nil, nil)
	resolver := service.NewPrincipalResolver(cfg.JWT)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(middleware.Metrics(metrics))
	r.Use(corsmiddleware.New(cfg.CORS))

	handler.RegisterSystemRoutes(r, handler.NewMetricsHandler(metrics, checks))
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	applyLimit := middleware.RateLimit(repository.NewMemoryRateLimiter(), "apply", cfg.RateLimit, logr)
	if redisClient != nil {
		applyLimit = middleware.RateLimit(repository.NewRateLimitRepository(redisClient), "apply", cfg.RateLimit, logr)
	}
	handler.RegisterApplicationRoutes(r.Group(cfg.APIPrefix), handler.NewApplicationHandler(applicationSvc, exportSvc), middleware.JWT(resolver), applyLimit)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
