package app

import (
	"context"
	"io"
	"sync"

	"agentdash/adapters/excel"
	"agentdash/domain/core"
	"agentdash/domain/dataset"
	"agentdash/internal"
	"agentdash/internal/errors"
	"agentdash/ports"
)

// DatasetPreview is the header and first rows of a dataset, as text
type DatasetPreview struct {
	Name      string     `json:"name"`
	Source    string     `json:"source"`
	Headers   []string   `json:"headers"`
	Rows      [][]string `json:"rows"`
	RowCount  int        `json:"row_count"`
	Truncated bool       `json:"truncated"`
}

// DatasetService holds the dataset the dashboard session is working on
type DatasetService struct {
	mu      sync.RWMutex
	current *dataset.Dataset
	sheets  ports.SheetFetcher
	reader  excel.ReaderConfig
	logger  *internal.Logger
}

// NewDatasetService creates a dataset service. sheets may be nil when
// spreadsheet links are not supported.
func NewDatasetService(sheets ports.SheetFetcher, reader excel.ReaderConfig) *DatasetService {
	return &DatasetService{
		sheets: sheets,
		reader: reader,
		logger: internal.DefaultLogger.Named("DatasetService"),
	}
}

// LoadFile parses an uploaded CSV or XLSX file and makes it current
func (s *DatasetService) LoadFile(src io.Reader, filename string) (*dataset.Dataset, error) {
	ds, err := excel.Parse(src, filename, excel.DetectFileType(filename), s.reader)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	s.Load(ds)
	return ds, nil
}

// LoadSheet fetches a shared spreadsheet and makes it current
func (s *DatasetService) LoadSheet(ctx context.Context, sheetURL string) (*dataset.Dataset, error) {
	if s.sheets == nil {
		return nil, errors.InvalidInput("spreadsheet links are not enabled")
	}
	ds, err := s.sheets.Fetch(ctx, sheetURL)
	if err != nil {
		return nil, err
	}
	s.Load(ds)
	return ds, nil
}

// Load replaces the current dataset
func (s *DatasetService) Load(ds *dataset.Dataset) {
	s.mu.Lock()
	s.current = ds
	s.mu.Unlock()
	s.logger.Info("Loaded dataset %q from %s (%d rows, %d columns)", ds.Name, ds.Source, ds.RowCount(), ds.ColumnCount())
}

// Current returns the loaded dataset or core.ErrNoDataset
func (s *DatasetService) Current() (*dataset.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, core.ErrNoDataset
	}
	return s.current, nil
}

// Clear drops the current dataset
func (s *DatasetService) Clear() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

// Preview returns the first n rows of the current dataset
func (s *DatasetService) Preview(n int) (*DatasetPreview, error) {
	ds, err := s.Current()
	if err != nil {
		return nil, err
	}
	return PreviewOf(ds, n), nil
}

// PreviewOf builds a preview of ds with at most n rows; n <= 0 means all
func PreviewOf(ds *dataset.Dataset, n int) *DatasetPreview {
	rows := ds.Preview(n)
	return &DatasetPreview{
		Name:      ds.Name,
		Source:    string(ds.Source),
		Headers:   ds.Headers(),
		Rows:      rows,
		RowCount:  ds.RowCount(),
		Truncated: len(rows) < ds.RowCount(),
	}
}

func requireColumn(ds *dataset.Dataset, column string) (dataset.Column, error) {
	if ds == nil {
		return dataset.Column{}, core.ErrNoDataset
	}
	return ds.Column(column)
}
