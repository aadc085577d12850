package db

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	"agentdash/domain/core"
	"agentdash/domain/lookup"
	"agentdash/internal/errors"
	"agentdash/ports"

	"github.com/jmoiron/sqlx"
)

// rowsPerInsert keeps multi-row inserts under SQLite's bound-parameter limit
const rowsPerInsert = 500

// BatchRepositoryImpl implements ports.BatchRepository with sqlx
type BatchRepositoryImpl struct {
	db *sqlx.DB
}

// NewBatchRepository creates a batch repository on db
func NewBatchRepository(db *sqlx.DB) ports.BatchRepository {
	return &BatchRepositoryImpl{db: db}
}

type batchRecord struct {
	ID                 core.BatchID `db:"id"`
	DatasetName        string       `db:"dataset_name"`
	DatasetFingerprint string       `db:"dataset_fingerprint"`
	Column             string       `db:"column_name"`
	Template           string       `db:"template"`
	Warnings           string       `db:"warnings"`
	RowCount           int          `db:"row_count"`
	FailedCount        int          `db:"failed_count"`
	StartedAt          time.Time    `db:"started_at"`
	CompletedAt        sql.NullTime `db:"completed_at"`
}

type rowRecord struct {
	BatchID  core.BatchID   `db:"batch_id"`
	RowIndex int            `db:"row_index"`
	Entity   string         `db:"entity"`
	Query    string         `db:"query"`
	Result   string         `db:"result"`
	Outcome  lookup.Outcome `db:"outcome"`
}

// Save writes the batch and its rows in one transaction, replacing any
// earlier copy with the same id
func (r *BatchRepositoryImpl) Save(ctx context.Context, batch *lookup.Batch) error {
	warnings, err := json.Marshal(nonNil(batch.Warnings))
	if err != nil {
		return errors.Wrap(err, "failed to encode warnings")
	}
	_, _, failed := batch.Counts()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM batch_rows WHERE batch_id = ?`), batch.ID); err != nil {
		return errors.DatabaseError("failed to clear batch rows", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM batches WHERE id = ?`), batch.ID); err != nil {
		return errors.DatabaseError("failed to clear batch", err)
	}

	var completedAt sql.NullTime
	if !batch.CompletedAt.IsZero() {
		completedAt = sql.NullTime{Time: batch.CompletedAt, Valid: true}
	}

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO batches (id, dataset_name, dataset_fingerprint, column_name, template, warnings, row_count, failed_count, started_at, completed_at)
		VALUES (:id, :dataset_name, :dataset_fingerprint, :column_name, :template, :warnings, :row_count, :failed_count, :started_at, :completed_at)
	`, batchRecord{
		ID:                 batch.ID,
		DatasetName:        batch.DatasetName,
		DatasetFingerprint: batch.DatasetFingerprint.String(),
		Column:             batch.Column,
		Template:           batch.Template,
		Warnings:           string(warnings),
		RowCount:           len(batch.Rows),
		FailedCount:        failed,
		StartedAt:          batch.StartedAt,
		CompletedAt:        completedAt,
	})
	if err != nil {
		return errors.DatabaseError("failed to insert batch", err)
	}

	records := make([]rowRecord, len(batch.Rows))
	for i, row := range batch.Rows {
		records[i] = rowRecord{
			BatchID:  batch.ID,
			RowIndex: i,
			Entity:   row.Entity,
			Query:    row.Query,
			Result:   row.Result,
			Outcome:  row.Outcome,
		}
	}
	for start := 0; start < len(records); start += rowsPerInsert {
		end := min(start+rowsPerInsert, len(records))
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO batch_rows (batch_id, row_index, entity, query, result, outcome)
			VALUES (:batch_id, :row_index, :entity, :query, :result, :outcome)
		`, records[start:end])
		if err != nil {
			return errors.DatabaseError("failed to insert batch rows", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit batch", err)
	}
	return nil
}

// Get loads a batch with its rows in original order
func (r *BatchRepositoryImpl) Get(ctx context.Context, id core.BatchID) (*lookup.Batch, error) {
	var rec batchRecord
	err := r.db.GetContext(ctx, &rec, r.db.Rebind(`
		SELECT id, dataset_name, dataset_fingerprint, column_name, template, warnings, row_count, failed_count, started_at, completed_at
		FROM batches
		WHERE id = ?
	`), id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, core.NewBatchNotFoundError(id)
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to load batch", err)
	}

	var rows []lookup.ResultRow
	err = r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT entity, query, result, outcome
		FROM batch_rows
		WHERE batch_id = ?
		ORDER BY row_index
	`), id)
	if err != nil {
		return nil, errors.DatabaseError("failed to load batch rows", err)
	}

	var warnings []string
	if err := json.Unmarshal([]byte(rec.Warnings), &warnings); err != nil {
		return nil, errors.Wrap(err, "failed to decode warnings")
	}

	batch := &lookup.Batch{
		ID:                 rec.ID,
		DatasetName:        rec.DatasetName,
		DatasetFingerprint: core.Hash(rec.DatasetFingerprint),
		Column:             rec.Column,
		Template:           rec.Template,
		Rows:               nonNilRows(rows),
		StartedAt:          rec.StartedAt,
	}
	if len(warnings) > 0 {
		batch.Warnings = warnings
	}
	if rec.CompletedAt.Valid {
		batch.CompletedAt = rec.CompletedAt.Time
	}
	return batch, nil
}

// List returns batch summaries, newest first
func (r *BatchRepositoryImpl) List(ctx context.Context, limit int) ([]ports.BatchSummary, error) {
	query := `
		SELECT id, dataset_name, column_name, template, row_count, failed_count, started_at AS created_at
		FROM batches
		ORDER BY started_at DESC
	`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	summaries := make([]ports.BatchSummary, 0)
	if err := r.db.SelectContext(ctx, &summaries, r.db.Rebind(query), args...); err != nil {
		return nil, errors.DatabaseError("failed to list batches", err)
	}
	return summaries, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilRows(rows []lookup.ResultRow) []lookup.ResultRow {
	if rows == nil {
		return []lookup.ResultRow{}
	}
	return rows
}
