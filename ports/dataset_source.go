package ports

import (
	"context"

	"agentdash/domain/dataset"
)

// SheetFetcher loads a dataset from a remote spreadsheet URL
type SheetFetcher interface {
	Fetch(ctx context.Context, sheetURL string) (*dataset.Dataset, error)
}
