package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/scheduler-engine/api/swagger"
	"github.com/noah-isme/scheduler-engine/internal/algorithms"
	"github.com/noah-isme/scheduler-engine/internal/audit"
	"github.com/noah-isme/scheduler-engine/internal/auth"
	"github.com/noah-isme/scheduler-engine/internal/catalogue"
	internalhandler "github.com/noah-isme/scheduler-engine/internal/handler"
	internalmiddleware "github.com/noah-isme/scheduler-engine/internal/middleware"
	"github.com/noah-isme/scheduler-engine/internal/normalizer"
	"github.com/noah-isme/scheduler-engine/internal/persister"
	"github.com/noah-isme/scheduler-engine/internal/service"
	"github.com/noah-isme/scheduler-engine/internal/worker"
	"github.com/noah-isme/scheduler-engine/pkg/cache"
	"github.com/noah-isme/scheduler-engine/pkg/config"
	"github.com/noah-isme/scheduler-engine/pkg/database"
	"github.com/noah-isme/scheduler-engine/pkg/logger"
	corsmiddleware "github.com/noah-isme/scheduler-engine/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/scheduler-engine/pkg/middleware/requestid"
)

// @title Scheduler Engine API
// @version 0.1.0
// @description CSP/GA academic scheduling job queue
// @BasePath /api/v1
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

	metricsSvc := service.NewMetricsService()
	metricsHandler := internalhandler.NewMetricsHandler(metricsSvc)

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to initialise database", "error", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if client, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("catalogue response caching disabled", "error", err)
	} else {
		redisClient = client
		defer redisClient.Close()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	tokenValidator := auth.NewTokenValidator(cfg.JWT)
	catalogueClient := catalogue.NewClient(cfg.Catalogue, redisClient)
	norm := normalizer.New(catalogueClient, logr)
	factory := algorithms.NewFactory(cfg.Scheduler)
	persist := persister.New(catalogueClient)

	var auditRepo *audit.Repository
	if cfg.Audit.Enabled {
		auditRepo = audit.NewRepository(db)
	}

	manager := worker.NewManager(cfg.Scheduler.MaxWorkers, metricsSvc, logr)

	schedulerSvc := service.NewSchedulerService(norm, factory, persist, catalogueClient, auditRepo, manager, logr)
	schedulerHandler := internalhandler.NewSchedulerHandler(schedulerSvc)

	api := r.Group(cfg.APIPrefix)
	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(tokenValidator))

	schedulerGroup := secured.Group("/scheduler")
	schedulerGroup.POST("/jobs", schedulerHandler.SubmitJob)
	schedulerGroup.GET("/jobs/:job_id", schedulerHandler.JobStatus)
	schedulerGroup.DELETE("/jobs/:job_id", schedulerHandler.CancelJob)
	schedulerGroup.GET("/jobs/:job_id/audit", schedulerHandler.JobAudit)
	schedulerGroup.GET("/generations", schedulerHandler.ListGenerations)
	schedulerGroup.GET("/generations/:id", schedulerHandler.GetGeneration)
	schedulerGroup.DELETE("/generations/:id", internalmiddleware.RequireAdmin(), schedulerHandler.DeleteGeneration)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logr.Sugar().Info("shutdown signal received, draining in-flight jobs")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("http server shutdown error", "error", err)
	}
	if err := manager.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("worker manager did not drain before deadline", "error", err)
	}
}
