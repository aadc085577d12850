package api

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"agentdash/adapters/excel"
	"agentdash/app"
	"agentdash/domain/core"
	"agentdash/domain/dataset"
	"agentdash/domain/lookup"
	"agentdash/internal/config"
	"agentdash/internal/errors"

	"github.com/go-chi/chi/v5"
)

// inlineColumn names the column built from a bare values list
const inlineColumn = "value"

// datasetRequest is the shared body of every dataset-bearing endpoint.
// Exactly one of a multipart file, SheetURL or Values supplies the data.
type datasetRequest struct {
	SheetURL  string   `json:"sheet_url"`
	Column    string   `json:"column"`
	Template  string   `json:"template"`
	Preset    string   `json:"preset"`
	Type      string   `json:"type"`
	SessionID string   `json:"session_id"`
	Values    []string `json:"values"`

	ds *dataset.Dataset
}

// decodeDatasetRequest reads a JSON or multipart body and resolves its dataset
func (s *Server) decodeDatasetRequest(w http.ResponseWriter, r *http.Request) (*datasetRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.container.Config.Upload.MaxBytes())

	req := &datasetRequest{}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(s.container.Config.Upload.MaxBytes()); err != nil {
			return nil, errors.WithCode(errors.CodeInvalidInput, err)
		}
		req.SheetURL = r.FormValue("sheet_url")
		req.Column = r.FormValue("column")
		req.Template = r.FormValue("template")
		req.Preset = r.FormValue("preset")
		req.Type = r.FormValue("type")
		req.SessionID = r.FormValue("session_id")

		if file, header, err := r.FormFile("file"); err == nil {
			defer file.Close()
			ds, err := excel.Parse(file, header.Filename, excel.DetectFileType(header.Filename), excel.DefaultReaderConfig())
			if err != nil {
				return nil, errors.WithCode(errors.CodeInvalidInput, err)
			}
			req.ds = ds
			return req, nil
		}
	case "application/json", "":
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("invalid JSON body: %w", err))
		}
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported content type %q", mediaType))
	}

	switch {
	case strings.TrimSpace(req.SheetURL) != "":
		ds, err := s.container.SheetFetcher.Fetch(r.Context(), strings.TrimSpace(req.SheetURL))
		if err != nil {
			return nil, err
		}
		req.ds = ds
	case req.Values != nil:
		if req.Column == "" {
			req.Column = inlineColumn
		}
		ds, err := dataset.FromStrings("inline", map[string][]string{req.Column: req.Values}, []string{req.Column})
		if err != nil {
			return nil, errors.WithCode(errors.CodeInvalidInput, err)
		}
		req.ds = ds
	default:
		return nil, core.ErrNoDataset
	}
	return req, nil
}

// handleLookup runs a batch over the request's dataset. Clients sending
// Accept: text/csv get the export table instead of JSON.
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeDatasetRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	template := req.Template
	if req.Preset != "" {
		preset, ok := config.FindPreset(s.container.Presets, req.Preset)
		if !ok {
			s.writeError(w, r, errors.InvalidInput(fmt.Sprintf("unknown template preset %q", req.Preset)))
			return
		}
		template = preset.Template
	}

	batch, err := s.container.Batches.Run(r.Context(), app.BatchRequest{
		Dataset:  req.ds,
		Column:   req.Column,
		Template: template,
		Progress: s.events.Progress(req.SessionID),
	})
	s.events.Finished(req.SessionID, batch, err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if wantsCSV(r) {
		s.writeCSV(w, batch)
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

// handleSummary describes one column of the request's dataset
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeDatasetRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	summary, err := s.container.Summary.Summarize(req.ds, req.Column)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleChart returns the value counts behind a chart of one column
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeDatasetRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Type == "" {
		req.Type = string(app.ChartBar)
	}

	chart, err := s.container.Charts.ValueCounts(req.ds, req.Column, app.ChartKind(req.Type))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chart)
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"presets": s.container.Presets})
}

func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, r, errors.InvalidInput("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	batches, err := s.container.BatchRepo.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"batches": batches})
}

func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	batch, err := s.container.BatchRepo.Get(r.Context(), core.BatchID(chi.URLParam(r, "id")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if wantsCSV(r) {
		s.writeCSV(w, batch)
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

func (s *Server) handleExportBatch(w http.ResponseWriter, r *http.Request) {
	batch, err := s.container.BatchRepo.Get(r.Context(), core.BatchID(chi.URLParam(r, "id")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	switch format := strings.ToLower(r.URL.Query().Get("format")); format {
	case "", "csv":
		s.writeCSV(w, batch)
	case "xlsx":
		data, err := excel.BatchXLSX(batch)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", excel.ExportFilename))
		w.Write(data)
	case "md", "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte(s.container.Reports.Markdown(batch)))
	default:
		s.writeError(w, r, errors.InvalidInput(fmt.Sprintf("unsupported export format %q", format)))
	}
}

func wantsCSV(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/csv")
}

func (s *Server) writeCSV(w http.ResponseWriter, batch *lookup.Batch) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", lookup.ExportFilename))
	if err := batch.WriteCSV(w); err != nil {
		s.logger.Error("Failed to stream batch %s as CSV: %v", batch.ID, err)
	}
}
