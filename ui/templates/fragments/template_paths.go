// Package fragments provides template path constants for organized template management
package fragments

import "strings"

// Template path constants, relative to ui/templates
const (
	// Layout templates
	Layout = "layout/layout.html"

	// Page templates
	UploadPage    = "pages/upload.html"
	SearchPage    = "pages/search.html"
	VisualizePage = "pages/visualize.html"
	BatchesPage   = "pages/batches.html"
	BatchPage     = "pages/batch.html"

	// Fragment templates
	Alert          = "fragments/alert.html"
	DatasetPreview = "fragments/dataset_preview.html"
	ColumnOptions  = "fragments/column_options.html"
	Results        = "fragments/results.html"
	Summary        = "fragments/summary.html"
	Chart          = "fragments/chart.html"
)

// GetAllTemplatePaths returns all template paths for registration
func GetAllTemplatePaths() []string {
	return []string{
		// Layout
		Layout,

		// Pages
		UploadPage,
		SearchPage,
		VisualizePage,
		BatchesPage,
		BatchPage,

		// Fragments
		Alert,
		DatasetPreview,
		ColumnOptions,
		Results,
		Summary,
		Chart,
	}
}

// GetTemplateCategory returns the category for a given template path
func GetTemplateCategory(templatePath string) string {
	switch {
	case strings.HasPrefix(templatePath, "layout/"):
		return "layout"
	case strings.HasPrefix(templatePath, "pages/"):
		return "pages"
	case strings.HasPrefix(templatePath, "fragments/"):
		return "fragments"
	default:
		return "unknown"
	}
}
