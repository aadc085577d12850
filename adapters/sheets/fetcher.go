// Package sheets loads datasets from shared Google Sheets links through the
// public CSV export endpoint.
package sheets

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"agentdash/adapters/excel"
	"agentdash/domain/dataset"
	"agentdash/internal"
	"agentdash/internal/errors"
)

// DefaultExportBase is where sheet exports are downloaded from
const DefaultExportBase = "https://docs.google.com/spreadsheets/d/"

var sheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)

// Fetcher downloads a sheet as CSV and parses it
type Fetcher struct {
	http       *http.Client
	exportBase string
	maxBytes   int64
	logger     *internal.Logger
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithHTTPClient overrides the transport
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.http = c }
}

// WithExportBase points exports at another host, used by tests
func WithExportBase(base string) Option {
	return func(f *Fetcher) { f.exportBase = strings.TrimRight(base, "/") + "/" }
}

// WithMaxBytes caps the download size
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) { f.maxBytes = n }
}

// NewFetcher creates a sheet fetcher
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		http:       &http.Client{Timeout: 30 * time.Second},
		exportBase: DefaultExportBase,
		maxBytes:   50 << 20,
		logger:     internal.DefaultLogger.Named("Sheets"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ParseSheetURL extracts the spreadsheet id and tab gid from a share link.
// A missing gid selects the first tab.
func ParseSheetURL(raw string) (id, gid string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", "", errors.InvalidInput("not a valid Google Sheets URL")
	}
	if !strings.HasSuffix(u.Host, "docs.google.com") {
		return "", "", errors.InvalidInput("URL is not a docs.google.com spreadsheet link")
	}
	m := sheetIDPattern.FindStringSubmatch(u.Path)
	if m == nil {
		return "", "", errors.InvalidInput("URL does not contain a spreadsheet id")
	}

	gid = u.Query().Get("gid")
	if gid == "" && strings.HasPrefix(u.Fragment, "gid=") {
		gid = strings.TrimPrefix(u.Fragment, "gid=")
	}
	if gid == "" {
		gid = "0"
	}
	return m[1], gid, nil
}

// ExportURL returns the CSV export link for a sheet
func (f *Fetcher) ExportURL(id, gid string) string {
	q := url.Values{}
	q.Set("format", "csv")
	q.Set("gid", gid)
	return f.exportBase + url.PathEscape(id) + "/export?" + q.Encode()
}

// Fetch downloads the sheet behind sheetURL and parses it as a dataset
func (f *Fetcher) Fetch(ctx context.Context, sheetURL string) (*dataset.Dataset, error) {
	id, gid, err := ParseSheetURL(sheetURL)
	if err != nil {
		return nil, err
	}
	exportURL := f.ExportURL(id, gid)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, exportURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	start := time.Now()
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, errors.ExternalServiceError("google sheets", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.ExternalServiceError("google sheets",
			fmt.Errorf("export returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}
	if ct := resp.Header.Get("Content-Type"); strings.HasPrefix(ct, "text/html") {
		// private sheets redirect to a sign-in page instead of failing
		return nil, errors.ExternalServiceError("google sheets",
			fmt.Errorf("sheet is not publicly shared"))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, errors.ExternalServiceError("google sheets", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, errors.InvalidInput(fmt.Sprintf("sheet exceeds the %s limit", sizeLabel(f.maxBytes)))
	}

	ds, err := excel.ParseCSV(bytes.NewReader(body), "sheet-"+id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse sheet export")
	}
	ds.Source = dataset.SourceSheet

	f.logger.Info("Fetched sheet %s gid=%s (%d rows) in %v", id, gid, ds.RowCount(), time.Since(start))
	return ds, nil
}

func sizeLabel(n int64) string {
	if n >= 1<<20 && n%(1<<20) == 0 {
		return fmt.Sprintf("%d MB", n>>20)
	}
	return fmt.Sprintf("%d byte", n)
}
