package app

import (
	"math"
	"sort"
	"strconv"

	"agentdash/domain/dataset"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// ColumnSummary is a describe-style summary of one column. The numeric
// fields are set only when every non-empty cell is a number.
type ColumnSummary struct {
	Column  string `json:"column"`
	Count   int    `json:"count"`
	Missing int    `json:"missing"`
	Unique  int    `json:"unique"`
	Top     string `json:"top,omitempty"`
	Freq    int    `json:"freq,omitempty"`
	Numeric bool   `json:"numeric"`

	Mean *float64 `json:"mean,omitempty"`
	Std  *float64 `json:"std,omitempty"`
	Min  *float64 `json:"min,omitempty"`
	P25  *float64 `json:"p25,omitempty"`
	P50  *float64 `json:"p50,omitempty"`
	P75  *float64 `json:"p75,omitempty"`
	Max  *float64 `json:"max,omitempty"`
}

// SummaryStat is one labelled line of a summary table
type SummaryStat struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Stats lists the summary in display order
func (s ColumnSummary) Stats() []SummaryStat {
	out := []SummaryStat{
		{"count", strconv.Itoa(s.Count)},
		{"missing", strconv.Itoa(s.Missing)},
		{"unique", strconv.Itoa(s.Unique)},
	}
	if s.Count > 0 {
		out = append(out, SummaryStat{"top", s.Top}, SummaryStat{"freq", strconv.Itoa(s.Freq)})
	}
	for _, f := range []struct {
		name string
		v    *float64
	}{
		{"mean", s.Mean}, {"std", s.Std}, {"min", s.Min},
		{"25%", s.P25}, {"50%", s.P50}, {"75%", s.P75}, {"max", s.Max},
	} {
		if f.v != nil {
			out = append(out, SummaryStat{f.name, formatStat(*f.v)})
		}
	}
	return out
}

// SummaryService computes column summaries
type SummaryService struct{}

// NewSummaryService creates a summary service
func NewSummaryService() *SummaryService {
	return &SummaryService{}
}

// Summarize describes one column of ds
func (s *SummaryService) Summarize(ds *dataset.Dataset, column string) (*ColumnSummary, error) {
	col, err := requireColumn(ds, column)
	if err != nil {
		return nil, err
	}

	summary := &ColumnSummary{Column: column}
	counts := make(map[string]int)
	var order []string
	numbers := make([]float64, 0, col.Len())
	allNumeric := true

	for _, v := range col.Values {
		if v.IsEmpty() {
			summary.Missing++
			continue
		}
		summary.Count++
		if _, seen := counts[v.Text]; !seen {
			order = append(order, v.Text)
		}
		counts[v.Text]++
		if f, ok := v.Float(); ok {
			numbers = append(numbers, f)
		} else {
			allNumeric = false
		}
	}

	summary.Unique = len(counts)
	for _, text := range order {
		if counts[text] > summary.Freq {
			summary.Top, summary.Freq = text, counts[text]
		}
	}

	if allNumeric && len(numbers) > 0 {
		summary.Numeric = true
		describeNumbers(summary, numbers)
	}
	return summary, nil
}

func describeNumbers(summary *ColumnSummary, data []float64) {
	mean, std := stat.MeanStdDev(data, nil)
	min, _ := stats.Min(data)
	max, _ := stats.Max(data)
	median, _ := stats.Median(data)

	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)

	summary.Mean = &mean
	// sample std is undefined for a single value
	if len(data) > 1 && !math.IsNaN(std) {
		summary.Std = &std
	}
	summary.Min = &min
	summary.Max = &max
	summary.P50 = &median
	p25 := linearQuantile(sorted, 0.25)
	p75 := linearQuantile(sorted, 0.75)
	summary.P25 = &p25
	summary.P75 = &p75
}

// linearQuantile interpolates between closest ranks, so the quartiles of
// [1 2 3 4] are 1.75 and 3.25. sorted must be ascending and non-empty.
func linearQuantile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func formatStat(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}
