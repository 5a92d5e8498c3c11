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
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-timetable-api/api/swagger"
	"github.com/noah-isme/sma-timetable-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/pkg/cache"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/database"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
)

// @title SMA Timetable API
// @version 1.0.0
// @description Timetable generation, conflict detection and version history.
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, falling back to in-process locking", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	timetableRepo := repository.NewTimetableRepository(db)
	entryRepo := repository.NewTimetableEntryRepository(db)
	configRepo := repository.NewTimetableConfigRepository(db)
	versionRepo := repository.NewTimetableVersionRepository(db)
	changeRepo := repository.NewTimetableChangeLogRepository(db)
	sourceRepo := repository.NewTimetableAssignmentSourceRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Timetable.ConflictCacheTTL, logr, redisClient != nil)
	configSvc := service.NewTimetableConfigService(configRepo, db, service.TimetableConfigDefaults{
		PeriodsPerDay: cfg.Timetable.DefaultPeriodsPerDay,
		Days:          cfg.Timetable.DefaultDays,
	}, validate, logr)
	var locker service.TimetableLocker = service.NewKeyedTimetableLocker(cfg.Timetable.LockWait)
	if redisClient != nil {
		locker = repository.NewTimetableLockRepository(redisClient, repository.TimetableLockConfig{
			TTL:  cfg.Timetable.LockTTL,
			Wait: cfg.Timetable.LockWait,
		}, logr)
	}
	versionSvc := service.NewTimetableVersionService(timetableRepo, versionRepo, changeRepo, db, locker, validate, logr)

	timetableSvc := service.NewTimetableService(
		timetableRepo,
		entryRepo,
		configSvc,
		service.NewTimetableAssignmentLoader(sourceRepo, logr),
		service.NewTimetablePlacer(logr),
		versionSvc,
		locker,
		db,
		cacheSvc,
		metrics,
		validate,
		logr,
		service.TimetableServiceConfig{
			ConflictCacheTTL: cfg.Timetable.ConflictCacheTTL,
			Random:           service.NewRandomSource(cfg.Timetable.RandomSeed),
		},
	)
	exportSvc := service.NewExportService(timetableSvc, configSvc, validate, logr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Timetable.AuditEnabled {
		auditQueue := jobs.NewQueue("timetable-audit", timetableSvc.AuditConflicts, jobs.QueueConfig{
			Workers: cfg.Timetable.AuditWorkers,
			Logger:  logr,
		})
		auditQueue.Start(ctx)
		defer auditQueue.Stop()
		timetableSvc.SetAuditQueue(auditQueue)
	}

	metricsHandler := handler.NewMetricsHandler(metrics)
	metricsHandler.AddReadinessCheck("database", db.PingContext)
	if redisClient != nil {
		metricsHandler.AddReadinessCheck("redis", cacheRepo.Ping)
	}

	router := newRouter(cfg, logr, routeDeps{
		metrics:    metrics,
		tokens:     internalmiddleware.NewTokenValidator(cfg.JWT.Secret, cfg.JWT.Issuer),
		health:     metricsHandler,
		timetables: handler.NewTimetableHandler(timetableSvc, versionSvc, exportSvc),
		configs:    handler.NewTimetableConfigHandler(configSvc),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
