// Package ui serves the dashboard: dataset upload, batch web lookups,
// column summaries and charts, and the batch history.
package ui

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"agentdash/internal"
	"agentdash/internal/api"
	"agentdash/internal/container"
	"agentdash/ui/templates/fragments"

	"github.com/gin-gonic/gin"
)

//go:embed templates/layout/*.html templates/pages/*.html templates/fragments/*.html static
var embeddedFiles embed.FS

// previewRows is how many dataset rows the upload page shows
const previewRows = 10

// Server represents the dashboard web server
type Server struct {
	router    *gin.Engine
	container *container.Container
	templates *template.Template
	hub       *api.SSEHub
	events    *api.SSEEventBroadcaster
	logger    *internal.Logger
}

// NewServer builds the router and parses the embedded templates
func NewServer(c *container.Container) (*Server, error) {
	if c == nil || c.Datasets == nil || c.Batches == nil {
		return nil, fmt.Errorf("container must be initialized before building the UI")
	}

	s := &Server{
		router:    gin.New(),
		container: c,
		logger:    internal.DefaultLogger.Named("UI"),
	}

	if err := s.loadTemplates(); err != nil {
		return nil, err
	}

	s.hub = api.NewSSEHub()
	s.events = api.NewSSEEventBroadcaster(s.hub)

	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

func (s *Server) loadTemplates() error {
	templatesFS, err := fs.Sub(embeddedFiles, "templates")
	if err != nil {
		return fmt.Errorf("failed to create templates filesystem: %w", err)
	}

	s.templates = template.New("").Funcs(templateFuncs())
	for _, name := range fragments.GetAllTemplatePaths() {
		content, err := fs.ReadFile(templatesFS, name)
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", name, err)
		}
		if _, err := s.templates.New(name).Parse(string(content)); err != nil {
			return fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		s.logger.Debug("Parsed %s template %s", fragments.GetTemplateCategory(name), name)
	}
	return nil
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	// Pages
	s.router.GET("/", s.handleUploadPage)
	s.router.GET("/search", s.handleSearchPage)
	s.router.GET("/visualize", s.handleVisualizePage)
	s.router.GET("/batches", s.handleBatchesPage)
	s.router.GET("/batches/:id", s.handleBatchPage)
	s.router.GET("/healthz", s.handleHealth)

	routes := s.router.Group("/api")
	{
		// Dataset
		routes.POST("/datasets/upload", s.handleUpload)
		routes.POST("/datasets/sheet", s.handleSheet)
		routes.GET("/dataset", s.handleDataset)
		routes.DELETE("/dataset", s.handleClearDataset)
		routes.GET("/columns", s.handleColumns)

		// Analysis
		routes.GET("/summary", s.handleSummary)
		routes.GET("/chart", s.handleChart)

		// Lookups
		routes.POST("/search", s.handleSearch)
		routes.GET("/presets", s.handlePresets)
		routes.GET("/batches", s.handleListBatches)
		routes.GET("/batches/:id", s.handleGetBatch)
		routes.GET("/batches/:id/download", s.handleDownload)
		routes.GET("/batches/:id/report", s.handleReport)
		routes.GET("/events", gin.WrapF(s.hub.HandleSSE))
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close stops the progress stream hub
func (s *Server) Close() {
	s.hub.Close()
}

// Start starts the web server
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting dashboard on http://%s", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
