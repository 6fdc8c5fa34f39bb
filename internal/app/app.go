// Package app wires configuration, storage and services into the runnable
// server and the CLI subcommands.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"repair-backend/internal/alarm"
	"repair-backend/internal/auth"
	"repair-backend/internal/cache"
	"repair-backend/internal/config"
	"repair-backend/internal/database"
	"repair-backend/internal/db"
	"repair-backend/internal/handlers"
	"repair-backend/internal/health"
	httpRouter "repair-backend/internal/http"
	"repair-backend/internal/logger"
	"repair-backend/internal/middleware"
	"repair-backend/internal/monitoring"
	"repair-backend/internal/report"
	"repair-backend/internal/repositories"
	"repair-backend/internal/services"
	"repair-backend/internal/timeutil"
	"repair-backend/migrations"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	Config *config.Config
	Pool   *pgxpool.Pool

	CaseService  *services.CaseService
	AlarmService *services.AlarmService
	Feed         *monitoring.AlarmFeed
}

// New loads nothing itself: it applies cfg to the process-wide zone and log
// level, connects to PostgreSQL and Redis, and builds the services.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if lvl, ok := logger.ParseLogLevel(cfg.Log.Level); ok {
		logger.SetLevel(lvl)
	}
	if err := timeutil.SetZone(cfg.Alarms.Timezone); err != nil {
		return nil, fmt.Errorf("set timezone: %w", err)
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.InfoKV(ctx, "Connected to PostgreSQL", "host", cfg.Database.Host, "db", cfg.Database.Name)

	if err := cache.Init(ctx, cache.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}); err != nil {
		logger.WarnKV(ctx, "Redis unavailable, alarm caching disabled", "addr", cfg.Redis.Addr, "error", err)
	}

	caseRepo := repositories.NewCaseRepository(pool)
	historyRepo := repositories.NewCaseStatusRepository(pool)
	alarmRepo := repositories.NewAlarmRepository(pool, alarm.Rules)
	evaluator := alarm.NewEvaluator(nil)

	alarmService := services.NewAlarmService(alarmRepo, historyRepo, evaluator)
	alarmService.SetFastPath(cfg.Alarms.FastPath)
	alarmService.SetWorkers(cfg.Alarms.Workers)
	if cache.GetClient() != nil {
		alarmService.SetCache(cache.NewAlarmCache(cfg.Redis.AlarmTTL))
	}

	feed := monitoring.NewAlarmFeed(alarmService, cfg.Alarms.FeedInterval)

	caseService := services.NewCaseService(caseRepo, historyRepo, evaluator)
	// cache invalidation must run before the feed recomputes
	caseService.AddObserver(alarmService)
	caseService.AddObserver(feed)

	return &App{
		Config:       cfg,
		Pool:         pool,
		CaseService:  caseService,
		AlarmService: alarmService,
		Feed:         feed,
	}, nil
}

func (a *App) Close() {
	if err := cache.Close(); err != nil {
		logger.WarnKV(context.Background(), "Closing Redis failed", "error", err)
	}
	a.Pool.Close()
}

func (a *App) poolStats() services.PoolStats {
	s := a.Pool.Stat()
	return services.PoolStats{
		Total:       s.TotalConns(),
		Idle:        s.IdleConns(),
		Acquired:    s.AcquiredConns(),
		AcquireWait: s.AcquireDuration(),
	}
}

// Migrate applies pending embedded migrations.
func (a *App) Migrate(ctx context.Context) error {
	return database.NewMigrator(a.Pool, migrations.FS, ".").RunMigrations(ctx)
}

// Handler builds the HTTP handler tree.
func (a *App) Handler(ctx context.Context) (http.Handler, error) {
	jwtManager := auth.NewJWTManager(a.Config)

	checker := health.NewHealthChecker(a.Pool)
	if cache.GetClient() != nil {
		checker.SetRedisCheck(cache.Ping)
	}

	alarmHandler := handlers.NewAlarmHandler(a.AlarmService)
	if a.Config.Reports.Enabled {
		archiver, err := report.NewArchiverFromConfig(ctx, a.Config)
		if err != nil {
			return nil, err
		}
		alarmHandler.SetArchiver(archiver)
	}

	router := httpRouter.NewRouter(
		handlers.NewCaseHandler(a.CaseService),
		alarmHandler,
		handlers.NewHealthHandler(checker),
		a.Feed,
		middleware.NewAuthMiddleware(jwtManager),
	)
	return middleware.NewCORS(a.Config)(router), nil
}

// Serve runs the HTTP server and the alarm feed until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	handler, err := a.Handler(ctx)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(a.Config.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	feedCtx, stopFeed := context.WithCancel(ctx)
	defer stopFeed()
	go a.Feed.Run(feedCtx)

	collector := services.NewMetricsCollector(a.poolStats, 15*time.Second)
	collector.Start(ctx)
	defer collector.Stop()

	errCh := make(chan error, 1)
	go func() {
		logger.InfoKV(ctx, "HTTP server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Infof(ctx, "Shutting down HTTP server")
	stopFeed()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
