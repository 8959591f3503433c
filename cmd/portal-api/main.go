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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/arielvz/portal-alumnos-api/api/swagger"
	"github.com/arielvz/portal-alumnos-api/internal/backend"
	"github.com/arielvz/portal-alumnos-api/internal/handler"
	"github.com/arielvz/portal-alumnos-api/internal/middleware"
	"github.com/arielvz/portal-alumnos-api/internal/models"
	"github.com/arielvz/portal-alumnos-api/internal/repository"
	"github.com/arielvz/portal-alumnos-api/internal/service"
	"github.com/arielvz/portal-alumnos-api/pkg/cache"
	"github.com/arielvz/portal-alumnos-api/pkg/config"
	"github.com/arielvz/portal-alumnos-api/pkg/database"
	"github.com/arielvz/portal-alumnos-api/pkg/jobs"
	"github.com/arielvz/portal-alumnos-api/pkg/logger"
	corsmiddleware "github.com/arielvz/portal-alumnos-api/pkg/middleware/cors"
	reqidmiddleware "github.com/arielvz/portal-alumnos-api/pkg/middleware/requestid"
)

// @title Portal Alumnos API
// @version 0.1.0
// @description Backend-for-frontend for the student academic portal
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsSvc := service.NewMetricsService()
	bus := service.NewEventBus(cfg.Realtime.SubscriberBuffer, logr)

	// Redis backs the response cache and the active session. The server
	// still works without it: views go straight upstream and every
	// request must carry an explicit studentId.
	var (
		cacheSvc    *service.CacheService
		sessionRepo *repository.SessionRepository
	)
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching and sessions disabled", "error", err)
	} else {
		defer redisClient.Close() //nolint:errcheck
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, 5*time.Minute, logr, cfg.Cache.Enabled)
		sessionRepo = repository.NewSessionRepository(redisClient, cfg.Session.TTL)
	}

	var sessionSvc *service.SessionService
	if sessionRepo != nil {
		sessionSvc = service.NewSessionService(sessionRepo, bus, logr)
	} else {
		sessionSvc = service.NewSessionService(nil, bus, logr)
	}

	// Upload audits persist to Postgres through a background queue so a
	// slow database never stalls an upload response.
	var (
		auditQueue *jobs.Queue[*models.UploadAudit]
		auditRepo  *repository.UploadAuditRepository
	)
	if cfg.Audit.Enabled && cfg.Database.Enabled {
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			logr.Sugar().Warnw("postgres unavailable, upload audit disabled", "error", err)
		} else {
			defer db.Close() //nolint:errcheck
			auditRepo = repository.NewUploadAuditRepository(db)
			auditQueue = jobs.NewQueue("upload-audit", auditRepo.Create, jobs.QueueConfig{
				Workers:    cfg.Audit.Workers,
				BufferSize: cfg.Audit.BufferSize,
				Logger:     logr,
			})
			auditQueue.Start(ctx)
			defer auditQueue.Stop()

			// trim audit rows older than six months once per boot
			go func() {
				pruneCtx, cancel := context.WithTimeout(ctx, time.Minute)
				defer cancel()
				cutoff := time.Now().AddDate(0, -6, 0)
				if pruned, err := auditRepo.DeleteOlderThan(pruneCtx, cutoff); err != nil {
					logr.Sugar().Warnw("audit prune failed", "error", err)
				} else if pruned > 0 {
					logr.Sugar().Infow("audit rows pruned", "count", pruned)
				}
			}()
		}
	}

	backendClient := backend.NewClient(cfg.Backend, logr, metricsSvc)

	gradesSvc := service.NewGradesService(service.GradesServiceParams{
		Backend: backendClient,
		Cache:   cacheSvc,
		Logger:  logr,
		Config: service.GradesServiceConfig{
			CacheTTL:      cfg.Cache.GradesTTL,
			MapMinColumns: cfg.Map.MinColumns,
		},
	})
	scheduleSvc := service.NewScheduleService(service.ScheduleServiceParams{
		Backend:  backendClient,
		Cache:    cacheSvc,
		Logger:   logr,
		CacheTTL: cfg.Cache.ScheduleTTL,
	})
	creditsSvc := service.NewCreditsService(service.CreditsServiceParams{
		Backend: backendClient,
		Cache:   cacheSvc,
		Logger:  logr,
		Config: service.CreditsServiceConfig{
			RequiredEnglishLevel: cfg.Credits.RequiredEnglishLevel,
			EnglishLevelScale:    cfg.Credits.EnglishLevelScale,
			CacheTTL:             cfg.Cache.CreditsTTL,
		},
	})

	kardexParams := service.KardexServiceParams{
		Backend: backendClient,
		Session: sessionSvc,
		Cache:   cacheSvc,
		Bus:     bus,
		Logger:  logr,
		Config: service.KardexServiceConfig{
			MaxFileSizeBytes: cfg.Uploads.MaxFileSizeBytes,
			AllowedMIMEs:     cfg.Uploads.AllowedMIMEs,
		},
	}
	if auditQueue != nil {
		kardexParams.Audits = auditQueue
	}
	if auditRepo != nil {
		kardexParams.AuditLog = auditRepo
	}
	kardexSvc := service.NewKardexService(kardexParams)

	realtimeSvc := service.NewRealtimeService(service.RealtimeServiceParams{
		Backend:          backendClient,
		Bus:              bus,
		Metrics:          metricsSvc,
		Logger:           logr,
		SubscriberBuffer: cfg.Realtime.SubscriberBuffer,
	})
	exportSvc := service.NewExportService(gradesSvc, nil, nil, logr)

	gradesHandler := handler.NewGradesHandler(gradesSvc, sessionSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc, sessionSvc)
	creditsHandler := handler.NewCreditsHandler(creditsSvc, sessionSvc)
	kardexHandler := handler.NewKardexHandler(kardexSvc, sessionSvc, cfg.Uploads.MaxFileSizeBytes)
	sessionHandler := handler.NewSessionHandler(sessionSvc)
	realtimeHandler := handler.NewRealtimeHandler(realtimeSvc, sessionSvc, cfg.Realtime.HeartbeatInterval)
	exportHandler := handler.NewExportHandler(exportSvc, sessionSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/calificaciones", gradesHandler.Overview)
		api.GET("/calificaciones/historial", gradesHandler.History)
		api.GET("/calificaciones/mapa", gradesHandler.Map)
		api.GET("/calificaciones/export", exportHandler.Transcript)
		api.GET("/horario", scheduleHandler.View)
		api.GET("/creditos", creditsHandler.View)
		api.POST("/kardex/upload", kardexHandler.Upload)
		api.GET("/kardex/history", kardexHandler.History)
		api.GET("/session", sessionHandler.Active)
		api.DELETE("/session", sessionHandler.Clear)
		api.GET("/realtime/sse", realtimeHandler.Stream)
		api.GET("/system/metrics", metricsHandler.Snapshot)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

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
