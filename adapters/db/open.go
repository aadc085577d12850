// Package db opens the batch history database and implements the batch
// repository on top of it. Postgres and SQLite share one implementation;
// queries are written with ? placeholders and rebound per driver.
package db

import (
	"context"
	"fmt"
	"time"

	"agentdash/internal/config"
	"agentdash/internal/errors"
	"agentdash/internal/migration"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Open connects to the configured database and runs migrations
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	var dialect migration.Dialect
	switch cfg.Driver {
	case config.DriverPostgres:
		dialect = migration.DialectPostgres
	case config.DriverSQLite:
		dialect = migration.DialectSQLite
	default:
		return nil, errors.ConfigInvalid(fmt.Sprintf("unsupported database driver %q", cfg.Driver))
	}
	if cfg.URL == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	db, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.URL)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to database", err)
	}

	if dialect == migration.DialectSQLite {
		// one writer; also keeps :memory: databases on a single connection
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, errors.DatabaseError("failed to enable foreign keys", err)
		}
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := migration.NewRunner(dialect).Run(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "database migration failed")
	}

	return db, nil
}
