// Package api exposes the lookup routine as a headless JSON API for scripts
// and other services. Every request carries its own dataset, so it never
// touches the dashboard's loaded data.
package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"agentdash/domain/core"
	"agentdash/internal"
	"agentdash/internal/container"
	"agentdash/internal/errors"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the JSON API
type Server struct {
	container *container.Container
	hub       *SSEHub
	events    *SSEEventBroadcaster
	router    chi.Router
	logger    *internal.Logger
}

// NewServer wires the API routes onto an initialized container
func NewServer(c *container.Container) *Server {
	hub := NewSSEHub()
	s := &Server{
		container: c,
		hub:       hub,
		events:    NewSSEEventBroadcaster(hub),
		logger:    internal.DefaultLogger.Named("API"),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/lookups", s.handleLookup)
		r.Post("/summary", s.handleSummary)
		r.Post("/charts", s.handleChart)
		r.Get("/presets", s.handlePresets)
		r.Get("/events", s.hub.HandleSSE)

		r.Route("/batches", func(r chi.Router) {
			r.Get("/", s.handleListBatches)
			r.Get("/{id}", s.handleGetBatch)
			r.Get("/{id}/export", s.handleExportBatch)
		})
	})
	return r
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub returns the progress hub, shared with other front ends in the process
func (s *Server) Hub() *SSEHub {
	return s.hub
}

// Close stops the progress hub
func (s *Server) Close() {
	s.hub.Close()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"search_key": s.container.Config.HasSearchKey(),
		"database":   s.container.DB != nil,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		internal.DefaultLogger.Named("API").Error("Failed to encode response: %v", err)
	}
}

// writeError answers with {"error", "code"} and the status mapped from err
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s failed: %v", r.Method, r.URL.Path, err)
	}

	message := err.Error()
	if stderrors.Is(err, core.ErrNoDataset) {
		message = "provide a dataset as a file, sheet_url or values"
	}
	writeJSON(w, status, map[string]string{"error": message, "code": errors.GetCode(err)})
}
