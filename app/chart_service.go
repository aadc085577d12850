package app

import (
	"fmt"
	"sort"
	"strings"

	"agentdash/domain/core"
	"agentdash/domain/dataset"
)

// ChartKind selects how value counts are drawn
type ChartKind string

const (
	ChartBar  ChartKind = "bar"
	ChartLine ChartKind = "line"
	ChartPie  ChartKind = "pie"
)

// ChartKinds lists the supported kinds in menu order
var ChartKinds = []ChartKind{ChartBar, ChartLine, ChartPie}

// ParseChartKind validates a kind name, case-insensitively
func ParseChartKind(s string) (ChartKind, error) {
	kind := ChartKind(strings.ToLower(strings.TrimSpace(s)))
	for _, k := range ChartKinds {
		if k == kind {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", core.ErrUnknownChartKind, s)
}

// ValueCount is one bar, point or slice
type ValueCount struct {
	Value   string  `json:"value"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent,omitempty"`
}

// Chart is the data behind a value-count chart
type Chart struct {
	Column string       `json:"column"`
	Kind   ChartKind    `json:"kind"`
	Total  int          `json:"total"`
	Counts []ValueCount `json:"counts"`
}

// MaxCount returns the largest count, for scaling axes
func (c *Chart) MaxCount() int {
	m := 0
	for _, vc := range c.Counts {
		if vc.Count > m {
			m = vc.Count
		}
	}
	return m
}

// ChartService builds value-count charts
type ChartService struct{}

// NewChartService creates a chart service
func NewChartService() *ChartService {
	return &ChartService{}
}

// ValueCounts counts each non-empty value of column, most frequent first.
// Ties keep first-occurrence order. Pie charts also carry percentages.
func (s *ChartService) ValueCounts(ds *dataset.Dataset, column string, kind ChartKind) (*Chart, error) {
	kind, err := ParseChartKind(string(kind))
	if err != nil {
		return nil, err
	}
	col, err := requireColumn(ds, column)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	var counts []ValueCount
	total := 0
	for _, v := range col.Values {
		if v.IsEmpty() {
			continue
		}
		total++
		if i, ok := index[v.Text]; ok {
			counts[i].Count++
			continue
		}
		index[v.Text] = len(counts)
		counts = append(counts, ValueCount{Value: v.Text, Count: 1})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})

	if kind == ChartPie && total > 0 {
		for i := range counts {
			counts[i].Percent = 100 * float64(counts[i].Count) / float64(total)
		}
	}

	return &Chart{
		Column: column,
		Kind:   kind,
		Total:  total,
		Counts: counts,
	}, nil
}
