package app

import (
	"fmt"
	"strings"
	"time"

	"agentdash/domain/lookup"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// ReportService renders batches as human-readable reports
type ReportService struct{}

// NewReportService creates a report service
func NewReportService() *ReportService {
	return &ReportService{}
}

// Markdown renders a batch as a markdown document with a results table
func (s *ReportService) Markdown(batch *lookup.Batch) string {
	var b strings.Builder
	found, empty, failed := batch.Counts()

	fmt.Fprintf(&b, "# Lookup results: %s\n\n", escapeInline(batch.Column))
	fmt.Fprintf(&b, "- **Dataset:** %s\n", escapeInline(batch.DatasetName))
	fmt.Fprintf(&b, "- **Template:** `%s`\n", strings.ReplaceAll(batch.Template, "`", "'"))
	fmt.Fprintf(&b, "- **Started:** %s\n", batch.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "- **Duration:** %s\n", batch.Duration().Round(time.Millisecond))
	fmt.Fprintf(&b, "- **Rows:** %d (found %d, empty %d, failed %d)\n\n", len(batch.Rows), found, empty, failed)

	for _, w := range batch.Warnings {
		fmt.Fprintf(&b, "> Warning: %s\n\n", escapeInline(w))
	}

	if len(batch.Rows) == 0 {
		b.WriteString("_No values to look up._\n")
		return b.String()
	}

	b.WriteString("| " + strings.Join(lookup.ExportHeader, " | ") + " |\n")
	b.WriteString("|---|---|---|\n")
	for _, row := range batch.Rows {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", escapeCell(row.Entity), escapeCell(row.Query), escapeCell(row.Result))
	}
	return b.String()
}

// HTML renders the markdown report. Raw HTML in snippets is dropped.
func (s *ReportService) HTML(batch *lookup.Batch) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(s.Markdown(batch)))

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.SkipHTML | html.HrefTargetBlank,
	})
	return markdown.Render(doc, renderer)
}

var inlineEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`, "<", "&lt;", ">", "&gt;",
)

func escapeInline(s string) string {
	return inlineEscaper.Replace(s)
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = escapeInline(s)
	return strings.ReplaceAll(s, "|", `\|`)
}
