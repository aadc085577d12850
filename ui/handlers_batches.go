package ui

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"agentdash/adapters/excel"
	"agentdash/app"
	"agentdash/domain/core"
	"agentdash/domain/lookup"
	"agentdash/internal/config"
	"agentdash/internal/errors"
	"agentdash/ui/templates/fragments"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type searchForm struct {
	Column   string `form:"column" json:"column"`
	Template string `form:"template" json:"template"`
	Preset   string `form:"preset" json:"preset"`
	// SessionID names the progress stream, see /api/events
	SessionID string `form:"session_id" json:"session_id"`
}

type resultsView struct {
	*lookup.Batch
	Found  int `json:"found"`
	Empty  int `json:"empty"`
	Failed int `json:"failed"`
}

func newResultsView(batch *lookup.Batch) resultsView {
	found, empty, failed := batch.Counts()
	return resultsView{Batch: batch, Found: found, Empty: empty, Failed: failed}
}

// handleSearch runs one lookup per distinct value of the chosen column
func (s *Server) handleSearch(c *gin.Context) {
	var form searchForm
	if err := c.ShouldBind(&form); err != nil {
		s.respondError(c, errors.InvalidInput("invalid search form: "+err.Error()))
		return
	}

	ds, err := s.container.Datasets.Current()
	if err != nil {
		s.respondError(c, err)
		return
	}
	if strings.TrimSpace(form.Column) == "" {
		s.respondError(c, errors.InvalidInput("select a column to search"))
		return
	}

	template := form.Template
	if form.Preset != "" {
		preset, ok := config.FindPreset(s.container.Presets, form.Preset)
		if !ok {
			s.respondError(c, errors.InvalidInput(fmt.Sprintf("unknown template preset %q", form.Preset)))
			return
		}
		template = preset.Template
	}

	batch, err := s.container.Batches.Run(c.Request.Context(), app.BatchRequest{
		Dataset:  ds,
		Column:   form.Column,
		Template: template,
		Progress: s.events.Progress(form.SessionID),
	})
	s.events.Finished(form.SessionID, batch, err)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.respond(c, fragments.Results, newResultsView(batch))
}

// handlePresets lists the configured query templates
func (s *Server) handlePresets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"presets": s.container.Presets})
}

// handleListBatches returns stored batch summaries, newest first
func (s *Server) handleListBatches(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(historyPageSize)))
	if err != nil || limit < 0 {
		s.respondError(c, errors.InvalidInput("limit must be a non-negative integer"))
		return
	}

	batches, err := s.container.BatchRepo.List(c.Request.Context(), limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batches": batches})
}

// handleGetBatch returns one stored batch with all its rows
func (s *Server) handleGetBatch(c *gin.Context) {
	batch, err := s.loadBatch(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.respond(c, fragments.Results, newResultsView(batch))
}

// handleDownload sends a batch as CSV or XLSX
func (s *Server) handleDownload(c *gin.Context) {
	batch, err := s.loadBatch(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	switch format := strings.ToLower(c.DefaultQuery("format", "csv")); format {
	case "csv":
		data, err := batch.CSV()
		if err != nil {
			s.respondError(c, err)
			return
		}
		attach(c, lookup.ExportFilename)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
	case "xlsx":
		data, err := excel.BatchXLSX(batch)
		if err != nil {
			s.respondError(c, err)
			return
		}
		attach(c, excel.ExportFilename)
		c.Data(http.StatusOK, xlsxContentType, data)
	default:
		s.respondError(c, errors.InvalidInput(fmt.Sprintf("unsupported download format %q, use csv or xlsx", format)))
	}
}

// handleReport sends a batch as a Markdown report
func (s *Server) handleReport(c *gin.Context) {
	batch, err := s.loadBatch(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	attach(c, fmt.Sprintf("lookup-%s.md", batch.ID))
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(s.container.Reports.Markdown(batch)))
}

func (s *Server) loadBatch(c *gin.Context) (*lookup.Batch, error) {
	return s.container.BatchRepo.Get(c.Request.Context(), core.BatchID(c.Param("id")))
}

func attach(c *gin.Context, filename string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}
