package app

import (
	"context"
	"sort"
	"sync"

	"agentdash/domain/core"
	"agentdash/domain/lookup"
	"agentdash/ports"
)

// MemoryBatchRepository keeps batches for the lifetime of the process.
// It is the default history store when no database is configured.
type MemoryBatchRepository struct {
	mu      sync.RWMutex
	batches map[core.BatchID]*lookup.Batch
	order   []core.BatchID
	limit   int
}

// NewMemoryBatchRepository creates an in-memory store holding at most limit
// batches; the oldest is evicted first. limit <= 0 means unbounded.
func NewMemoryBatchRepository(limit int) *MemoryBatchRepository {
	return &MemoryBatchRepository{
		batches: make(map[core.BatchID]*lookup.Batch),
		limit:   limit,
	}
}

// Save stores a copy of the batch
func (r *MemoryBatchRepository) Save(ctx context.Context, batch *lookup.Batch) error {
	cp := copyBatch(batch)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.batches[batch.ID]; !exists {
		r.order = append(r.order, batch.ID)
	}
	r.batches[batch.ID] = cp

	if r.limit > 0 {
		for len(r.order) > r.limit {
			delete(r.batches, r.order[0])
			r.order = r.order[1:]
		}
	}
	return nil
}

// Get returns a stored batch
func (r *MemoryBatchRepository) Get(ctx context.Context, id core.BatchID) (*lookup.Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	batch, ok := r.batches[id]
	if !ok {
		return nil, core.NewBatchNotFoundError(id)
	}
	return copyBatch(batch), nil
}

// List returns summaries, newest first
func (r *MemoryBatchRepository) List(ctx context.Context, limit int) ([]ports.BatchSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := make([]ports.BatchSummary, 0, len(r.batches))
	for _, b := range r.batches {
		summaries = append(summaries, Summarize(b))
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

// Summarize builds the list view of a batch
func Summarize(b *lookup.Batch) ports.BatchSummary {
	_, _, failed := b.Counts()
	return ports.BatchSummary{
		ID:          b.ID,
		DatasetName: b.DatasetName,
		Column:      b.Column,
		Template:    b.Template,
		RowCount:    len(b.Rows),
		FailedCount: failed,
		CreatedAt:   b.StartedAt,
	}
}

func copyBatch(b *lookup.Batch) *lookup.Batch {
	cp := *b
	cp.Rows = append([]lookup.ResultRow(nil), b.Rows...)
	cp.Warnings = append([]string(nil), b.Warnings...)
	return &cp
}
