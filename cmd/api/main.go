package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lead_pipeline_backend/internal/events"
	apphttp "lead_pipeline_backend/internal/http"
	"lead_pipeline_backend/internal/http/router"
	"lead_pipeline_backend/internal/leads"
	"lead_pipeline_backend/internal/leads/repository"
	"lead_pipeline_backend/internal/notification"
	"lead_pipeline_backend/internal/notification/sse"
	"lead_pipeline_backend/internal/scheduler"
	"lead_pipeline_backend/platform/clock"
	"lead_pipeline_backend/platform/config"
	"lead_pipeline_backend/platform/logger"
	"lead_pipeline_backend/platform/validator"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr, "storage", cfg.GetStorageDriver())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

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
	log.Info("store ready, migrations complete")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	reminderScheduler, closeScheduler := initReminderScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	// Shared validator instance for dependency injection
	val := validator.New()
	clk := clock.System{}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	stream := sse.New(log)
	defer stream.Close()

	sink := notification.MultiSink{notification.NewLogSink(log), notification.NewStreamSink(stream)}
	notificationModule := notification.New(sink, stream, reminderScheduler, cfg, clk, log)
	notificationModule.RegisterHandlers(eventBus)

	leadsModule := leads.NewModule(store, eventBus, clk, val, cfg, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   store,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadsModule,
			notificationModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		log.Error("failed to listen", "addr", cfg.HTTPAddr, "error", err)
		panic("failed to listen: " + err.Error())
	}

	// Streams never finish on their own.
	if err := apphttp.Serve(ctx, srv, ln, log, shutdownTimeout, stream.Close); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
	eventBus.Wait()
	log.Info("server stopped")
}

func initReminderScheduler(cfg *config.Config, log *logger.Logger) (scheduler.ReminderScheduler, func()) {
	if !cfg.IsSchedulerEnabled() {
		log.Warn("REDIS_URL not configured; task reminders disabled")
		return nil, nil
	}

	reminderClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize reminder scheduler client", "error", err)
		return nil, nil
	}

	return reminderClient, func() {
		_ = reminderClient.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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

	return fmt.Errorf("%s: %w", name, lastErr)
}
