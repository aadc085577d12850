package ports

import (
	"context"
	"time"

	"agentdash/domain/core"
	"agentdash/domain/lookup"
)

// BatchSummary is the list view of a stored batch
type BatchSummary struct {
	ID          core.BatchID `json:"id" db:"id"`
	DatasetName string       `json:"dataset_name" db:"dataset_name"`
	Column      string       `json:"column" db:"column_name"`
	Template    string       `json:"template" db:"template"`
	RowCount    int          `json:"row_count" db:"row_count"`
	FailedCount int          `json:"failed_count" db:"failed_count"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
}

// BatchRepository stores finished batches for later download.
// It is a history, not a lookup cache.
type BatchRepository interface {
	Save(ctx context.Context, batch *lookup.Batch) error
	Get(ctx context.Context, id core.BatchID) (*lookup.Batch, error)
	List(ctx context.Context, limit int) ([]BatchSummary, error)
}
