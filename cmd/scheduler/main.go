package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lead_pipeline_backend/internal/events"
	"lead_pipeline_backend/internal/leads"
	"lead_pipeline_backend/internal/leads/repository"
	"lead_pipeline_backend/internal/notification"
	"lead_pipeline_backend/internal/scheduler"
	"lead_pipeline_backend/platform/clock"
	"lead_pipeline_backend/platform/config"
	"lead_pipeline_backend/platform/logger"
	"lead_pipeline_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	if !cfg.IsSchedulerEnabled() {
		log.Error("REDIS_URL is required to run the scheduler")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		store      repository.Store
		closeStore func()
	)
	if err := withRetry(ctx, log, "open store", 5, 2*time.Second, func() error {
		s, closeFn, err := repository.Open(ctx, cfg)
		if err != nil {
			return err
		}
		store, closeStore = s, closeFn
		return nil
	}); err != nil {
		log.Error("failed to open store", "error", err)
		panic("failed to open store: " + err.Error())
	}
	defer closeStore()

	eventBus := events.NewInMemoryBus(log)
	clk := clock.System{}

	// Due reminders only need the log sink here; the API process owns live streams.
	notificationModule := notification.New(notification.NewLogSink(log), nil, nil, cfg, clk, log)
	notificationModule.RegisterHandlers(eventBus)

	leadsModule := leads.NewModule(store, eventBus, clk, validator.New(), cfg, log)

	worker, err := scheduler.NewWorker(cfg, leadsModule, eventBus, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
	eventBus.Wait()
	log.Info("scheduler stopped")
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
