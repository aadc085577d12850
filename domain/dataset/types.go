package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"agentdash/domain/core"
)

// Source records where a dataset was loaded from
type Source string

const (
	SourceCSV    Source = "csv"
	SourceXLSX   Source = "xlsx"
	SourceSheet  Source = "sheet"
	SourceInline Source = "inline"
)

// ValueKind classifies a cell
type ValueKind int

const (
	KindEmpty ValueKind = iota
	KindString
	KindNumber
)

// Value is a single scalar cell. Text always holds the cell's textual form
// as it appeared in the source; Number is set only for KindNumber.
type Value struct {
	Kind   ValueKind `json:"kind"`
	Text   string    `json:"text"`
	Number float64   `json:"number,omitempty"`
}

// StringValue wraps a text cell
func StringValue(s string) Value {
	if s == "" {
		return Value{Kind: KindEmpty}
	}
	return Value{Kind: KindString, Text: s}
}

// NumberValue wraps a numeric cell, keeping its source text
func NumberValue(text string, f float64) Value {
	if text == "" {
		text = strconv.FormatFloat(f, 'f', -1, 64)
	}
	return Value{Kind: KindNumber, Text: text, Number: f}
}

// ParseCell classifies raw cell text as empty, numeric, or string.
// Surrounding whitespace only affects the classification; non-empty cells
// keep their raw text, so " Chile" and "Chile" stay distinct values.
func ParseCell(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Value{Kind: KindEmpty}
	}
	// ParseFloat also accepts hex floats and underscores, which no spreadsheet emits as numbers
	if !strings.ContainsAny(s, "xXpP_") {
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return NumberValue(raw, f)
		}
	}
	return StringValue(raw)
}

// String returns the cell's text form
func (v Value) String() string { return v.Text }

// IsEmpty reports whether the cell is blank
func (v Value) IsEmpty() bool { return v.Kind == KindEmpty }

// Float returns the numeric value when the cell is a number
func (v Value) Float() (float64, bool) {
	if v.Kind != KindNumber {
		return 0, false
	}
	return v.Number, true
}

// Column is a named sequence of cells
type Column struct {
	Name   string  `json:"name"`
	Values []Value `json:"values"`
}

// Len returns the number of cells
func (c Column) Len() int { return len(c.Values) }

// Dataset is an ordered collection of equal-length named columns.
// It is read-only once constructed.
type Dataset struct {
	ID          core.DatasetID `json:"id"`
	Name        string         `json:"name"`
	Source      Source         `json:"source"`
	Fingerprint core.Hash      `json:"fingerprint"`
	LoadedAt    time.Time      `json:"loaded_at"`

	columns []Column
	index   map[string]int
	rows    int
}

// New validates columns and builds a dataset
func New(name string, source Source, columns []Column) (*Dataset, error) {
	if len(columns) == 0 {
		return nil, core.ErrEmptyHeader
	}

	index := make(map[string]int, len(columns))
	rows := columns[0].Len()
	for i, col := range columns {
		if _, dup := index[col.Name]; dup {
			return nil, fmt.Errorf("%w: %q", core.ErrDuplicateColumn, col.Name)
		}
		if col.Len() != rows {
			return nil, fmt.Errorf("%w: column %q has %d values, expected %d", core.ErrRaggedDataset, col.Name, col.Len(), rows)
		}
		index[col.Name] = i
	}

	ds := &Dataset{
		ID:       core.NewDatasetID(),
		Name:     name,
		Source:   source,
		LoadedAt: time.Now(),
		columns:  columns,
		index:    index,
		rows:     rows,
	}
	ds.Fingerprint = ds.computeFingerprint()
	return ds, nil
}

// FromRows builds a dataset from a header row and raw string records.
// Short records are padded with empty cells and long records are truncated
// to the header width so every column ends up the same length.
func FromRows(name string, source Source, header []string, records [][]string) (*Dataset, error) {
	if len(header) == 0 {
		return nil, core.ErrEmptyHeader
	}

	columns := make([]Column, len(header))
	for i, name := range headerNames(header) {
		columns[i] = Column{Name: name, Values: make([]Value, 0, len(records))}
	}

	for _, rec := range records {
		for i := range columns {
			raw := ""
			if i < len(rec) {
				raw = rec[i]
			}
			columns[i].Values = append(columns[i].Values, ParseCell(raw))
		}
	}

	return New(name, source, columns)
}

// headerNames names blank headers "Unnamed: <i>" and renames repeated
// headers "a", "a.1", "a.2", skipping suffixes another header already uses.
func headerNames(header []string) []string {
	names := make([]string, len(header))
	reserved := make(map[string]bool, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(h)
		if names[i] == "" {
			names[i] = fmt.Sprintf("Unnamed: %d", i)
		}
		reserved[names[i]] = true
	}

	assigned := make(map[string]bool, len(names))
	suffix := make(map[string]int)
	for i, name := range names {
		if !assigned[name] {
			assigned[name] = true
			continue
		}
		for k := suffix[name] + 1; ; k++ {
			candidate := fmt.Sprintf("%s.%d", name, k)
			if !assigned[candidate] && !reserved[candidate] {
				suffix[name] = k
				names[i] = candidate
				assigned[candidate] = true
				break
			}
		}
	}
	return names
}

// FromStrings is a convenience for building a single-source dataset from
// literal columns, mostly used by tests and the CLI's inline mode.
func FromStrings(name string, cols map[string][]string, order []string) (*Dataset, error) {
	columns := make([]Column, 0, len(order))
	for _, colName := range order {
		raw := cols[colName]
		values := make([]Value, len(raw))
		for i, s := range raw {
			values[i] = ParseCell(s)
		}
		columns = append(columns, Column{Name: colName, Values: values})
	}
	return New(name, SourceInline, columns)
}

// Headers returns column names in order
func (d *Dataset) Headers() []string {
	headers := make([]string, len(d.columns))
	for i, c := range d.columns {
		headers[i] = c.Name
	}
	return headers
}

// HasColumn reports whether a column exists
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Column returns a column by name
func (d *Dataset) Column(name string) (Column, error) {
	i, ok := d.index[name]
	if !ok {
		return Column{}, core.NewColumnNotFoundError(name)
	}
	return d.columns[i], nil
}

// RowCount returns the number of rows
func (d *Dataset) RowCount() int { return d.rows }

// ColumnCount returns the number of columns
func (d *Dataset) ColumnCount() int { return len(d.columns) }

// Row returns the cells of row i in column order
func (d *Dataset) Row(i int) []Value {
	row := make([]Value, len(d.columns))
	for j, c := range d.columns {
		row[j] = c.Values[i]
	}
	return row
}

// Preview returns up to n rows as text, for display. n <= 0 means all rows.
func (d *Dataset) Preview(n int) [][]string {
	if n <= 0 || n > d.rows {
		n = d.rows
	}
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		row := make([]string, len(d.columns))
		for j, c := range d.columns {
			row[j] = c.Values[i].Text
		}
		out[i] = row
	}
	return out
}

func (d *Dataset) computeFingerprint() core.Hash {
	var b strings.Builder
	for _, c := range d.columns {
		b.WriteString(c.Name)
		b.WriteByte(0x1f)
		for _, v := range c.Values {
			b.WriteString(v.Text)
			b.WriteByte(0x1e)
		}
	}
	return core.NewHash([]byte(b.String()))
}
