package ui

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"agentdash/app"
	"agentdash/internal/errors"
	"agentdash/ui/templates/fragments"

	"github.com/gin-gonic/gin"
)

// uploadField is the multipart field carrying the dataset file
const uploadField = "dataset"

type sheetForm struct {
	URL string `form:"url" json:"url"`
}

type columnsView struct {
	Columns []string `json:"columns"`
}

// handleUpload loads a CSV or XLSX upload as the current dataset
func (s *Server) handleUpload(c *gin.Context) {
	limit := s.container.Config.Upload.MaxBytes()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	header, err := c.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			s.respondErrorStatus(c, http.StatusRequestEntityTooLarge,
				errors.InvalidInput(fmt.Sprintf("file exceeds the %d MB upload limit", s.container.Config.Upload.MaxMB)))
			return
		}
		s.respondError(c, errors.InvalidInput("choose a CSV or XLSX file to upload"))
		return
	}

	file, err := header.Open()
	if err != nil {
		s.respondError(c, errors.Wrap(err, "failed to open upload"))
		return
	}
	defer file.Close()

	ds, err := s.container.Datasets.LoadFile(file, header.Filename)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.respond(c, fragments.DatasetPreview, app.PreviewOf(ds, previewRows))
}

// handleSheet loads a shared Google Sheet as the current dataset
func (s *Server) handleSheet(c *gin.Context) {
	var form sheetForm
	if err := c.ShouldBind(&form); err != nil {
		s.respondError(c, errors.InvalidInput("invalid sheet form: "+err.Error()))
		return
	}
	if strings.TrimSpace(form.URL) == "" {
		s.respondError(c, errors.InvalidInput("paste a Google Sheets link"))
		return
	}

	ds, err := s.container.Datasets.LoadSheet(c.Request.Context(), strings.TrimSpace(form.URL))
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.respond(c, fragments.DatasetPreview, app.PreviewOf(ds, previewRows))
}

// handleDataset returns a preview of the current dataset
func (s *Server) handleDataset(c *gin.Context) {
	preview, err := s.container.Datasets.Preview(previewRows)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.respond(c, fragments.DatasetPreview, preview)
}

// handleClearDataset drops the current dataset
func (s *Server) handleClearDataset(c *gin.Context) {
	s.container.Datasets.Clear()
	if isHTMX(c) {
		s.renderTemplate(c, http.StatusOK, fragments.Alert, alertView{Level: "info", Message: "Dataset cleared."})
		return
	}
	c.Status(http.StatusNoContent)
}

// handleColumns lists the current dataset's columns
func (s *Server) handleColumns(c *gin.Context) {
	ds, err := s.container.Datasets.Current()
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.respond(c, fragments.ColumnOptions, columnsView{Columns: ds.Headers()})
}
