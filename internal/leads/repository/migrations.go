package repository

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"

	"lead_pipeline_backend/platform/config"
	"lead_pipeline_backend/platform/db"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// MigratePostgres applies the PostgreSQL schema.
func MigratePostgres(ctx context.Context, cfg config.DatabaseConfig) error {
	sub, err := fs.Sub(migrationsFS, "migrations/postgres")
	if err != nil {
		return err
	}
	return db.RunPostgresMigrations(ctx, cfg, sub)
}

// MigrateSQLite applies the SQLite schema.
func MigrateSQLite(ctx context.Context, conn *sql.DB) error {
	sub, err := fs.Sub(migrationsFS, "migrations/sqlite")
	if err != nil {
		return err
	}
	return db.RunMigrations(ctx, goose.DialectSQLite3, conn, sub)
}
