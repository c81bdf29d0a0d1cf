package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"prospect_backend/internal/cockpit"
	"prospect_backend/internal/enrichment"
	"prospect_backend/internal/events"
	apphttp "prospect_backend/internal/http"
	"prospect_backend/internal/http/router"
	"prospect_backend/internal/notification"
	"prospect_backend/internal/scheduler"
	"prospect_backend/platform/config"
	"prospect_backend/platform/db"
	"prospect_backend/platform/logger"
	"prospect_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module subscribes to domain events and owns the SSE push channel
	notificationModule := notification.New(pool, log)
	notificationModule.RegisterHandlers(eventBus)

	cockpitModule := cockpit.NewModule(pool, eventBus, val, log)

	// Delayed re-read scheduling: durable via Redis when configured,
	// in-process timers otherwise. The embedded worker consumes due
	// tasks in the same process so session caches and SSE stay live.
	delayed, runWorker, closeScheduler := initRereadScheduler(cfg, eventBus, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	enrichmentModule := enrichment.NewModule(cockpitModule.Repository(), cockpitModule.Sessions(), delayed, eventBus, cfg, log)
	if cfg.IsEnrichmentEnabled() {
		log.Info("drafting service configured", "rereadDelay", cfg.GetEnrichmentRereadDelay())
	} else {
		log.Warn("ENRICHMENT_API_URL not configured; draft generation disabled")
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			cockpitModule,
			enrichmentModule,
			notificationModule,
		},
	}

	engine := router.New(app)

	if runWorker != nil {
		go runWorker(ctx)
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initRereadScheduler picks the scheduling backend. With Redis both the
// client and an embedded worker are returned; without it the in-process
// timer keeps the delayed re-read working on a single node.
func initRereadScheduler(cfg *config.Config, bus events.Bus, log *logger.Logger) (scheduler.RereadScheduler, func(context.Context), func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; using in-process reread timers")
		return scheduler.NewTimerScheduler(bus, log), nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize reread scheduler client", "error", err)
		return scheduler.NewTimerScheduler(bus, log), nil, nil
	}

	worker, err := scheduler.NewWorker(cfg, bus, log)
	if err != nil {
		log.Error("failed to initialize embedded scheduler worker", "error", err)
		return client, nil, func() { _ = client.Close() }
	}

	return client, worker.Run, func() { _ = client.Close() }
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
