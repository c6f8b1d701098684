package repository

import (
	"context"
	"fmt"

	"lead_pipeline_backend/platform/config"
	"lead_pipeline_backend/platform/db"
)

// Open migrates and connects the store selected by cfg. The returned func
// releases the underlying connections.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, func(), error) {
	switch cfg.GetStorageDriver() {
	case config.StorageDriverPostgres:
		if err := MigratePostgres(ctx, cfg); err != nil {
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return NewPostgres(pool), pool.Close, nil

	case config.StorageDriverSQLite:
		conn, err := db.OpenSQLite(ctx, cfg.GetSQLitePath())
		if err != nil {
			return nil, nil, err
		}
		if err := MigrateSQLite(ctx, conn); err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("sqlite migrations: %w", err)
		}
		return NewSQLite(conn), func() { _ = conn.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.GetStorageDriver())
	}
}
