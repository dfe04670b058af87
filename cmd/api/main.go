package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campus-attend/attendance-api/api/swagger"
	"github.com/campus-attend/attendance-api/internal/handler"
	"github.com/campus-attend/attendance-api/internal/middleware"
	"github.com/campus-attend/attendance-api/internal/repository"
	"github.com/campus-attend/attendance-api/internal/service"
	"github.com/campus-attend/attendance-api/pkg/cache"
	"github.com/campus-attend/attendance-api/pkg/config"
	"github.com/campus-attend/attendance-api/pkg/database"
	"github.com/campus-attend/attendance-api/pkg/jobs"
	"github.com/campus-attend/attendance-api/pkg/logger"
	corsmiddleware "github.com/campus-attend/attendance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campus-attend/attendance-api/pkg/middleware/requestid"
	"github.com/campus-attend/attendance-api/pkg/scancode"
)

// @title Campus Attendance API
// @version 1.0.0
// @description Event attendance tracking with QR scanning and an idempotent ledger
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

	location, err := time.LoadLocation(cfg.Attendance.Timezone)
	if err != nil {
		logr.Sugar().Fatalw("invalid timezone", "timezone", cfg.Attendance.Timezone, "error", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, schedule caching disabled", "error", err)
	} else {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Scan.ScheduleCacheTTL, logr, true)
		defer cacheRepo.Close()
	}

	attendanceRepo := repository.NewAttendanceRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	eventRepo := repository.NewEventRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	termRepo := repository.NewTermRepository(db)

	codec := scancode.NewCodec(cfg.Scan.QRSecret)
	policy := service.ResolvePolicy{StrictSequential: cfg.Attendance.StrictSequential}

	scanSvc := service.NewScanService(codec, scheduleRepo, studentRepo, attendanceRepo,
		cacheSvc, metricsSvc, logr, policy, location, cfg.Scan.ScheduleCacheTTL)
	eventSvc := service.NewEventService(eventRepo, scheduleRepo, studentRepo, attendanceRepo,
		termRepo, cacheSvc, nil, logr, location, cfg.Attendance.ToleranceMinutes, cfg.Attendance.DurationMinutes)
	summarySvc := service.NewSummaryService(attendanceRepo, scheduleRepo, eventRepo, location, logr)
	termSvc := service.NewTermService(termRepo, logr)

	scanHandler := handler.NewScanHandler(scanSvc)
	eventHandler := handler.NewEventHandler(eventSvc)
	summaryHandler := handler.NewSummaryHandler(summarySvc)
	termHandler := handler.NewTermHandler(termSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/metrics/snapshot", metricsHandler.Snapshot)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		scans := api.Group("/scans", middleware.ScannerToken(cfg.Scan.DeviceTokenSecret))
		{
			scans.POST("", scanHandler.Record)
			scans.POST("/sync", scanHandler.Sync)
		}

		api.POST("/events", eventHandler.Create)
		api.GET("/events/:id", eventHandler.Get)
		api.POST("/events/:id/approve", eventHandler.Approve)
		api.POST("/events/archive-past", eventHandler.ArchivePast)

		api.PUT("/session-days/:dayId/schedule", eventHandler.UpdateSchedule)
		api.GET("/session-days/:dayId/summary", summaryHandler.DaySummary)
		api.GET("/session-days/:dayId/export", summaryHandler.Export)

		api.GET("/terms/active", termHandler.Active)
		api.POST("/terms/rollover", termHandler.Rollover)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var archiveQueue *jobs.Queue
	if cfg.Archive.Enabled {
		archiveQueue = jobs.NewQueue("archive-events", func(jobCtx context.Context, job jobs.Job) error {
			_, err := eventSvc.ArchivePast(jobCtx)
			return err
		}, jobs.QueueConfig{
			Workers:    cfg.Archive.Workers,
			MaxRetries: cfg.Archive.Retries,
			Logger:     logr,
		})
		archiveQueue.Start(ctx)
		defer archiveQueue.Stop()

		go func() {
			ticker := time.NewTicker(cfg.Archive.Interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					job := jobs.Job{ID: uuid.NewString(), Type: "archive-past-events"}
					if err := archiveQueue.Enqueue(job); err != nil {
						logr.Sugar().Warnw("failed to enqueue archive sweep", "error", err)
					}
				}
			}
		}()
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
