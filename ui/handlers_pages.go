package ui

import (
	"html/template"
	"net/http"

	"agentdash/app"
	"agentdash/domain/core"
	"agentdash/domain/lookup"
	"agentdash/internal/config"
	"agentdash/ports"
	"agentdash/ui/templates/fragments"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// historyPageSize bounds the batch history page
const historyPageSize = 50

type pageData struct {
	Title      string
	Active     string
	Warning    string
	Dataset    *app.DatasetPreview
	Columns    []string
	Presets    []config.Preset
	Template   string
	SessionID  string
	ChartKinds []app.ChartKind
	Batches    []ports.BatchSummary
	Batch      *lookup.Batch
	Report     template.HTML
}

func (s *Server) newPage(title, active string) pageData {
	page := pageData{Title: title, Active: active}
	if preview, err := s.container.Datasets.Preview(previewRows); err == nil {
		page.Dataset = preview
		page.Columns = preview.Headers
	}
	return page
}

// handleUploadPage serves the Upload Data section
func (s *Server) handleUploadPage(c *gin.Context) {
	page := s.newPage("Upload Data", "upload")
	s.renderTemplate(c, http.StatusOK, fragments.UploadPage, page)
}

// handleSearchPage serves the Web Search Results section
func (s *Server) handleSearchPage(c *gin.Context) {
	page := s.newPage("Web Search Results", "search")
	if page.Dataset == nil {
		page.Warning = noDatasetMessage
	}
	page.Presets = s.container.Presets
	page.Template = s.container.Batches.Config().DefaultTemplate
	page.SessionID = uuid.NewString()
	s.renderTemplate(c, http.StatusOK, fragments.SearchPage, page)
}

// handleVisualizePage serves the Data Visualization section
func (s *Server) handleVisualizePage(c *gin.Context) {
	page := s.newPage("Data Visualization", "visualize")
	if page.Dataset == nil {
		page.Warning = noDatasetMessage
	}
	page.ChartKinds = app.ChartKinds
	s.renderTemplate(c, http.StatusOK, fragments.VisualizePage, page)
}

// handleBatchesPage lists earlier lookup batches
func (s *Server) handleBatchesPage(c *gin.Context) {
	batches, err := s.container.BatchRepo.List(c.Request.Context(), historyPageSize)
	if err != nil {
		s.respondError(c, err)
		return
	}
	page := s.newPage("Batch History", "batches")
	page.Batches = batches
	s.renderTemplate(c, http.StatusOK, fragments.BatchesPage, page)
}

// handleBatchPage shows one batch as a rendered report
func (s *Server) handleBatchPage(c *gin.Context) {
	batch, err := s.container.BatchRepo.Get(c.Request.Context(), core.BatchID(c.Param("id")))
	if err != nil {
		s.respondError(c, err)
		return
	}
	page := s.newPage("Batch "+batch.ID.String(), "batches")
	page.Batch = batch
	// The renderer runs with SkipHTML, so raw markup in cells never survives
	page.Report = template.HTML(s.container.Reports.HTML(batch))
	s.renderTemplate(c, http.StatusOK, fragments.BatchPage, page)
}
