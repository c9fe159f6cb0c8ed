package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Shourya-pant/timetable-scheduler/pkg/cache"
	"github.com/Shourya-pant/timetable-scheduler/pkg/config"
	"github.com/Shourya-pant/timetable-scheduler/pkg/database"
	"github.com/Shourya-pant/timetable-scheduler/pkg/logger"
	corsmiddleware "github.com/Shourya-pant/timetable-scheduler/pkg/middleware/cors"
	reqidmiddleware "github.com/Shourya-pant/timetable-scheduler/pkg/middleware/requestid"

	"github.com/Shourya-pant/timetable-scheduler/internal/coordinator"
	"github.com/Shourya-pant/timetable-scheduler/internal/handler"
	"github.com/Shourya-pant/timetable-scheduler/internal/models"
	"github.com/Shourya-pant/timetable-scheduler/internal/repository"
	"github.com/Shourya-pant/timetable-scheduler/internal/service"
)

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

	validate := validator.New()
	metrics := service.NewMetricsService()

	var reportCache *repository.CacheRepository
	if cfg.Reports.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, report caching disabled", "error", err)
		} else {
			reportCache = repository.NewCacheRepository(redisClient, logr)
			defer reportCache.Close() //nolint:errcheck
		}
	}

	coord := coordinator.New(logr)
	coordSvc := service.NewCoordinatorService(coord, reportCache, cfg.Reports.CacheTTL, metrics, validate, logr)

	timetableRepo := repository.NewTimetableRepository(db)
	slotRepo := repository.NewScheduledSlotRepository(db)
	rehydrateCoordinator(coord, slotRepo, logr)
	genSvc := service.NewGenerationService(timetableRepo, slotRepo, coord, metrics, validate, logr, service.GenerationConfig{
		TimeBudget:  cfg.Solver.TimeBudget,
		Workers:     cfg.Solver.WorkerConcurrency,
		QueueBuffer: cfg.Solver.QueueBuffer,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	genSvc.Start(ctx)
	defer genSvc.Stop()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metrics.ObserveHTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	handler.RegisterRoutes(r, handler.NewTimetableHandler(genSvc), handler.NewGlobalHandler(coordSvc))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}

// rehydrateCoordinator reloads each department's latest completed timetable
// so earlier runs stay visible to conflict detection after a restart.
// Reservations are not restored; departments re-reserve explicitly.
func rehydrateCoordinator(coord *coordinator.Coordinator, slots *repository.ScheduledSlotRepository, logr *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	global, err := slots.ListGlobalByDepartments(ctx, nil)
	if err != nil {
		logr.Sugar().Warnw("coordinator rehydration skipped", "error", err)
		return
	}
	byTimetable := make(map[string][]models.ScheduledSlot)
	for _, slot := range global {
		byTimetable[slot.TimetableID] = append(byTimetable[slot.TimetableID], slot)
	}
	ids := make([]string, 0, len(byTimetable))
	for timetableID := range byTimetable {
		ids = append(ids, timetableID)
	}
	sort.Strings(ids)
	for _, timetableID := range ids {
		ttSlots := byTimetable[timetableID]
		coord.RegisterTimetable(ttSlots[0].Department, timetableID, ttSlots)
	}
	if len(byTimetable) > 0 {
		logr.Sugar().Infow("coordinator rehydrated",
			"timetables", len(byTimetable), "global_slots", len(global))
	}
}
