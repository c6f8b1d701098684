// Command leadctl drives the lead pipeline from a terminal against the
// configured store.
package main

import (
	"context"
	"fmt"
	"os"

	"lead_pipeline_backend/internal/events"
	"lead_pipeline_backend/internal/leads"
	"lead_pipeline_backend/internal/leads/repository"
	"lead_pipeline_backend/internal/notification"
	"lead_pipeline_backend/internal/scheduler"
	"lead_pipeline_backend/platform/clock"
	"lead_pipeline_backend/platform/config"
	"lead_pipeline_backend/platform/logger"
	"lead_pipeline_backend/platform/validator"

	"github.com/spf13/cobra"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &cli{open: openApp}
	defer c.close()
	return c.rootCmd().ExecuteContext(ctx)
}

// app holds everything a command needs. close flushes pending event
// handlers before releasing the store.
type app struct {
	leads *leads.Module
	store repository.Store
	clock clock.Clock
	log   *logger.Logger
	close func()
}

type opener func(ctx context.Context, opts rootOptions) (*app, error)

type rootOptions struct {
	sqlitePath string
}

// cli opens the app lazily, once per process, before the first command runs.
type cli struct {
	open opener
	opts rootOptions
	app  *app
}

func (c *cli) close() {
	if c.app != nil {
		c.app.close()
		c.app = nil
	}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "leadctl",
		Short:         "Manage the sales lead pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.app != nil {
				return nil
			}
			a, err := c.open(cmd.Context(), c.opts)
			if err != nil {
				return err
			}
			c.app = a
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.opts.sqlitePath, "sqlite", "", "use the SQLite database at this path instead of STORAGE_DRIVER")

	root.AddCommand(
		c.seedCmd(),
		c.addCmd(),
		c.listCmd(),
		c.showCmd(),
		c.logCmd(),
		c.completeCmd(),
		c.ackCmd(),
		c.nextCmd(),
		c.agendaCmd(),
	)
	return root
}

func openApp(ctx context.Context, opts rootOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.sqlitePath != "" {
		cfg.StorageDriver = config.StorageDriverSQLite
		cfg.SQLitePath = opts.sqlitePath
	}

	log := logger.NewWithWriter(cfg.Env, os.Stderr)

	store, closeStore, err := repository.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	bus := events.NewInMemoryBus(log)
	clk := clock.System{}

	var (
		reminders scheduler.ReminderScheduler
		client    *scheduler.Client
	)
	if cfg.IsSchedulerEnabled() {
		client, err = scheduler.NewClient(cfg)
		if err != nil {
			log.Warn("task reminders disabled", "error", err)
		} else {
			reminders = client
		}
	}

	notification.New(newTerminalSink(os.Stderr), nil, reminders, cfg, clk, log).RegisterHandlers(bus)

	return &app{
		leads: leads.NewModule(store, bus, clk, validator.New(), cfg, log),
		store: store,
		clock: clk,
		log:   log,
		close: func() {
			bus.Wait()
			if client != nil {
				_ = client.Close()
			}
			closeStore()
		},
	}, nil
}
