package excel

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"agentdash/domain/core"
	"agentdash/domain/dataset"
	"agentdash/internal"

	"github.com/xuri/excelize/v2"
)

var readerLog = internal.DefaultLogger.Named("DataReader")

// utf8BOM is stripped from CSV exports written by spreadsheet tools
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType FileType
	config   ReaderConfig
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	return &DataReader{
		filePath: filePath,
		fileType: DetectFileType(filePath),
		config:   DefaultReaderConfig(),
	}
}

// WithConfig overrides the reader configuration
func (r *DataReader) WithConfig(cfg ReaderConfig) *DataReader {
	r.config = cfg
	return r
}

// DetectFileType picks the parser from a file name's extension.
// Anything other than .csv is treated as a workbook.
func DetectFileType(name string) FileType {
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		return FileTypeCSV
	}
	return FileTypeXLSX
}

// ReadData reads the file into a dataset named after the file
func (r *DataReader) ReadData() (*dataset.Dataset, error) {
	readerLog.Info("Starting to read %s file: %s", r.fileType, r.filePath)

	f, err := os.Open(r.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(string(r.fileType)), r.filePath)
		}
		return nil, fmt.Errorf("failed to open %s file: %w", r.fileType, err)
	}
	defer f.Close()

	return Parse(f, filepath.Base(r.filePath), r.fileType, r.config)
}

// Parse reads a CSV or XLSX stream into a dataset
func Parse(src io.Reader, name string, fileType FileType, cfg ReaderConfig) (*dataset.Dataset, error) {
	switch fileType {
	case FileTypeCSV:
		return parseCSV(src, name, cfg)
	case FileTypeXLSX:
		return parseXLSX(src, name, cfg)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", fileType)
	}
}

// ParseCSV reads delimited text into a dataset
func ParseCSV(src io.Reader, name string) (*dataset.Dataset, error) {
	return parseCSV(src, name, DefaultReaderConfig())
}

// ParseXLSX reads the first worksheet of a workbook into a dataset
func ParseXLSX(src io.Reader, name string) (*dataset.Dataset, error) {
	return parseXLSX(src, name, DefaultReaderConfig())
}

func parseCSV(src io.Reader, name string, cfg ReaderConfig) (*dataset.Dataset, error) {
	start := time.Now()
	raw, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV file: %w", err)
	}
	readerLog.Debug("CSV read in %.2fms (%d rows)", float64(time.Since(start).Nanoseconds())/1e6, len(rows))

	return processRows(name, dataset.SourceCSV, rows, cfg)
}

func parseXLSX(src io.Reader, name string, cfg ReaderConfig) (*dataset.Dataset, error) {
	start := time.Now()
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := cfg.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, core.ErrEmptyHeader
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	readerLog.Debug("Sheet %q read in %.2fms (%d rows)", sheet, float64(time.Since(start).Nanoseconds())/1e6, len(rows))

	return processRows(name, dataset.SourceXLSX, rows, cfg)
}

// processRows splits the header from the data rows and builds the dataset.
// Fully blank trailing rows, which workbooks often carry, are dropped.
func processRows(name string, source dataset.Source, rows [][]string, cfg ReaderConfig) (*dataset.Dataset, error) {
	if len(rows) == 0 || isBlankRow(rows[0]) {
		return nil, core.ErrEmptyHeader
	}

	data := rows[1:]
	for len(data) > 0 && isBlankRow(data[len(data)-1]) {
		data = data[:len(data)-1]
	}
	if cfg.MaxRows > 0 && len(data) > cfg.MaxRows {
		readerLog.Warn("%s has %d rows, keeping the first %d", name, len(data), cfg.MaxRows)
		data = data[:cfg.MaxRows]
	}

	ds, err := dataset.FromRows(name, source, rows[0], data)
	if err != nil {
		return nil, err
	}

	readerLog.Info("%s file processed (%d columns, %d rows)",
		strings.ToUpper(string(source)), ds.ColumnCount(), ds.RowCount())
	return ds, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
