package serpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"agentdash/domain/lookup"
	"agentdash/internal"
	"agentdash/internal/errors"
)

// maxBodyBytes caps how much of a response we read
const maxBodyBytes = 8 << 20

// noResultsMarker is how SerpAPI reports a successful search with zero hits
const noResultsMarker = "hasn't returned any results"

// Client implements ports.LookupClient against SerpAPI
type Client struct {
	config Config
	http   *http.Client
	logger *internal.Logger
}

// NewClient creates a SerpAPI client
func NewClient(config Config) (*Client, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, errors.ConfigInvalid("missing SerpAPI API key")
	}
	if strings.TrimSpace(config.BaseURL) == "" {
		config.BaseURL = DefaultBaseURL
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	return &Client{
		config: config,
		http:   httpClient,
		logger: internal.DefaultLogger.Named("SerpAPI"),
	}, nil
}

type organicResult struct {
	Position int     `json:"position"`
	Title    *string `json:"title"`
	Link     *string `json:"link"`
	Snippet  *string `json:"snippet"`
}

type searchResponse struct {
	OrganicResults []organicResult `json:"organic_results"`
	Error          string          `json:"error"`
}

// Search performs one GET request for query. It never retries.
func (c *Client) Search(ctx context.Context, query string) lookup.Result {
	start := time.Now()
	result := c.search(ctx, query)
	c.logger.Debug("query=%q outcome=%s candidates=%d duration=%v",
		query, result.Outcome, len(result.Candidates), time.Since(start))
	return result
}

func (c *Client) search(ctx context.Context, query string) lookup.Result {
	reqURL, err := c.buildURL(query)
	if err != nil {
		return lookup.Failed(fmt.Errorf("build request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return lookup.Failed(fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return lookup.Failed(fmt.Errorf("serpapi request failed: %w", redactKey(err, c.config.APIKey)))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return lookup.Failed(fmt.Errorf("read response: %w", err))
	}

	var decoded searchResponse
	decodeErr := json.Unmarshal(raw, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && decoded.Error != "" {
			msg = decoded.Error
		}
		return lookup.Failure(fmt.Sprintf("serpapi http %d: %s", resp.StatusCode, truncate(msg, 200)))
	}
	if decodeErr != nil {
		return lookup.Failed(fmt.Errorf("unmarshal response: %w", decodeErr))
	}

	if decoded.Error != "" {
		if strings.Contains(decoded.Error, noResultsMarker) {
			return lookup.Empty()
		}
		return lookup.Failure(decoded.Error)
	}

	candidates := make([]lookup.Candidate, 0, len(decoded.OrganicResults))
	for i, r := range decoded.OrganicResults {
		pos := r.Position
		if pos == 0 {
			pos = i + 1
		}
		candidates = append(candidates, lookup.Candidate{
			Position: pos,
			Title:    r.Title,
			Link:     r.Link,
			Snippet:  cleanSnippet(r.Snippet),
		})
	}
	return lookup.Found(candidates...)
}

func (c *Client) buildURL(query string) (string, error) {
	base, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", err
	}
	params := base.Query()
	params.Set("q", query)
	if c.config.Locale != "" {
		params.Set("hl", c.config.Locale)
	}
	if c.config.Engine != "" {
		params.Set("engine", c.config.Engine)
	}
	params.Set("api_key", c.config.APIKey)
	base.RawQuery = params.Encode()
	return base.String(), nil
}

// redactKey keeps the API key out of error strings that end up in exports
func redactKey(err error, key string) error {
	if key == "" {
		return err
	}
	msg := err.Error()
	if !strings.Contains(msg, key) {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(msg, key, "REDACTED"))
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
