package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"lead_pipeline_backend/platform/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// RunMigrations applies every pending migration in fsys against conn.
func RunMigrations(ctx context.Context, dialect goose.Dialect, conn *sql.DB, fsys fs.FS) error {
	provider, err := goose.NewProvider(dialect, conn, fsys)
	if err != nil {
		return fmt.Errorf("creating migration provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}

	return nil
}

// RunPostgresMigrations opens a short-lived database/sql handle over pgx and
// applies the migrations in fsys.
func RunPostgresMigrations(ctx context.Context, cfg config.DatabaseConfig, fsys fs.FS) error {
	conn, err := sql.Open("pgx", cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("opening migration connection: %w", err)
	}
	defer conn.Close()

	return RunMigrations(ctx, goose.DialectPostgres, conn, fsys)
}
