package excel

import (
	"bytes"
	"fmt"
	"io"

	"agentdash/domain/lookup"

	"github.com/xuri/excelize/v2"
)

// ResultsSheet is the worksheet name used for batch exports
const ResultsSheet = "Results"

// ExportFilename is the suggested download name for workbook exports
const ExportFilename = "search_results.xlsx"

// WriteBatch writes a batch as a single-sheet workbook with the same
// Entity, Query, Result header as the CSV export.
func WriteBatch(w io.Writer, batch *lookup.Batch) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ResultsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(lookup.ExportHeader))
	for i, h := range lookup.ExportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(ResultsSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetCellStyle(ResultsSheet, "A1", "C1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, row := range batch.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{row.Entity, row.Query, row.Result}
		if err := f.SetSheetRow(ResultsSheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	if err := f.SetColWidth(ResultsSheet, "A", "B", 30); err != nil {
		return err
	}
	if err := f.SetColWidth(ResultsSheet, "C", "C", 80); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// BatchXLSX returns the workbook export as bytes
func BatchXLSX(batch *lookup.Batch) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteBatch(&buf, batch); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
