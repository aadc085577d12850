package ui

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"agentdash/domain/core"
	"agentdash/domain/lookup"
	"agentdash/internal/errors"
	"agentdash/ui/templates/fragments"

	"github.com/gin-gonic/gin"
)

// noDatasetMessage is shown wherever a page needs data that is not loaded yet
const noDatasetMessage = "Please upload data first in the 'Upload Data' section."

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"pct": func(p float64) string { return fmt.Sprintf("%.1f%%", p) },
		"subtract": func(a, b float64) float64 { return a - b },
		"num": func(f float64) string { return fmt.Sprintf("%.1f", f) },
		"join": strings.Join,
		"fmtTime": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.Local().Format("2006-01-02 15:04:05")
		},
		"duration": func(b *lookup.Batch) string {
			return b.Duration().Round(time.Millisecond).String()
		},
		"outcomeClass": func(o lookup.Outcome) string {
			switch o {
			case lookup.OutcomeFound:
				return "ok"
			case lookup.OutcomeEmpty:
				return "muted"
			default:
				return "bad"
			}
		},
		"warning": func(msg string) alertView {
			return alertView{Level: "warning", Message: msg}
		},
		"selected": func(a, b string) template.HTMLAttr {
			if a == b {
				return "selected"
			}
			return ""
		},
	}
}

// renderTemplate executes a template with the given data
func (s *Server) renderTemplate(c *gin.Context, status int, templateName string, data interface{}) {
	// Render to a buffer first so a failing template never sends half a page
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		s.logger.Error("Template error for %s (data %T): %v", templateName, data, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Template rendering failed", "details": err.Error()})
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if _, err := buf.WriteTo(c.Writer); err != nil {
		s.logger.Error("Error writing template response: %v", err)
	}
}

// respond answers htmx requests with an HTML fragment and everything else
// with JSON
func (s *Server) respond(c *gin.Context, fragment string, data interface{}) {
	if isHTMX(c) {
		s.renderTemplate(c, http.StatusOK, fragment, data)
		return
	}
	c.JSON(http.StatusOK, data)
}

type alertView struct {
	Level   string
	Message string
}

// respondError reports err as an alert fragment for htmx, so the swap still
// happens, or as a JSON error with the mapped status code
func (s *Server) respondError(c *gin.Context, err error) {
	s.respondErrorStatus(c, errors.HTTPStatus(err), err)
}

func (s *Server) respondErrorStatus(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}

	message := err.Error()
	if stderrors.Is(err, core.ErrNoDataset) {
		message = noDatasetMessage
	}

	if isHTMX(c) {
		level := "error"
		if status < http.StatusInternalServerError {
			level = "warning"
		}
		s.renderTemplate(c, http.StatusOK, fragments.Alert, alertView{Level: level, Message: message})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message, "code": errors.GetCode(err)})
}
