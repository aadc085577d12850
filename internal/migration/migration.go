package migration

import (
	"context"
	"fmt"

	"agentdash/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// Dialect selects SQL types for the target database
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
	dialect Dialect
}

// NewRunner creates a new migration runner for dialect
func NewRunner(dialect Dialect) *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
		dialect: dialect,
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order. Every step is
// idempotent so Run is safe on every start.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if r.dialect != DialectPostgres && r.dialect != DialectSQLite {
		return errors.ConfigInvalid(fmt.Sprintf("unsupported migration dialect %q", r.dialect))
	}

	if err := r.createBatchesTable(ctx, db); err != nil {
		return errors.DatabaseError("failed to create batches table", err)
	}

	if err := r.createBatchRowsTable(ctx, db); err != nil {
		return errors.DatabaseError("failed to create batch_rows table", err)
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.DatabaseError("failed to create indexes", err)
	}

	return nil
}

func (r *MigrationRunner) timestampType() string {
	if r.dialect == DialectPostgres {
		return "TIMESTAMP WITH TIME ZONE"
	}
	return "TIMESTAMP"
}

func (r *MigrationRunner) createBatchesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS batches (
			id TEXT PRIMARY KEY,
			dataset_name TEXT NOT NULL DEFAULT '',
			dataset_fingerprint TEXT NOT NULL DEFAULT '',
			column_name TEXT NOT NULL,
			template TEXT NOT NULL,
			warnings TEXT NOT NULL DEFAULT '[]',
			row_count INTEGER NOT NULL DEFAULT 0,
			failed_count INTEGER NOT NULL DEFAULT 0,
			started_at %[1]s NOT NULL,
			completed_at %[1]s
		)
	`, r.timestampType()))
	return err
}

func (r *MigrationRunner) createBatchRowsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS batch_rows (
			batch_id TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
			row_index INTEGER NOT NULL,
			entity TEXT NOT NULL,
			query TEXT NOT NULL,
			result TEXT NOT NULL,
			outcome TEXT NOT NULL,
			PRIMARY KEY (batch_id, row_index)
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_batches_started_at ON batches(started_at DESC)
	`)
	return err
}
