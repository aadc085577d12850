package lookup

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// ExportHeader is the header row of every batch export
var ExportHeader = []string{"Entity", "Query", "Result"}

// ExportFilename is the suggested download name for CSV exports
const ExportFilename = "search_results.csv"

// WriteCSV writes the batch rows as delimited text with a header row
func (b *Batch) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range b.Rows {
		if err := cw.Write([]string{r.Entity, r.Query, r.Result}); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSV returns the batch export as bytes
func (b *Batch) CSV() ([]byte, error) {
	var buf bytes.Buffer
	if err := b.WriteCSV(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
