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

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	if cfg.GetRedisURL() == "" {
		panic("REDIS_URL is required for the scheduler worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)

	notificationModule := notification.New(pool, log)
	notificationModule.RegisterHandlers(eventBus)

	val := validator.New()

	// Worker-side enrichment wiring (no HTTP handlers required). Due
	// re-read tasks are consumed from Redis and resolved against the
	// database even when the API process is down.
	cockpitModule := cockpit.NewModule(pool, eventBus, val, log)

	delayed, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = delayed.Close() }()

	_ = enrichment.NewModule(cockpitModule.Repository(), cockpitModule.Sessions(), delayed, eventBus, cfg, log)

	worker, err := scheduler.NewWorker(cfg, eventBus, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
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
