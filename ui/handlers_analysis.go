package ui

import (
	"agentdash/app"
	"agentdash/ui/templates/fragments"

	"github.com/gin-gonic/gin"
)

type summaryView struct {
	*app.ColumnSummary
	Table []app.SummaryStat `json:"stats"`
}

// handleSummary describes one column of the current dataset
func (s *Server) handleSummary(c *gin.Context) {
	ds, err := s.container.Datasets.Current()
	if err != nil {
		s.respondError(c, err)
		return
	}

	summary, err := s.container.Summary.Summarize(ds, c.Query("column"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.respond(c, fragments.Summary, summaryView{ColumnSummary: summary, Table: summary.Stats()})
}

// handleChart counts the values of one column for a bar, line or pie chart
func (s *Server) handleChart(c *gin.Context) {
	ds, err := s.container.Datasets.Current()
	if err != nil {
		s.respondError(c, err)
		return
	}

	kind, err := app.ParseChartKind(c.DefaultQuery("type", string(app.ChartBar)))
	if err != nil {
		s.respondError(c, err)
		return
	}

	chart, err := s.container.Charts.ValueCounts(ds, c.Query("column"), kind)
	if err != nil {
		s.respondError(c, err)
		return
	}

	if isHTMX(c) {
		s.respond(c, fragments.Chart, newChartView(chart))
		return
	}
	s.respond(c, fragments.Chart, chart)
}
