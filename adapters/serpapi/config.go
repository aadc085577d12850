package serpapi

import (
	"net/http"
	"time"

	"agentdash/internal/config"
)

// DefaultBaseURL is the public SerpAPI search endpoint
const DefaultBaseURL = "https://serpapi.com/search"

// Config holds everything the client needs; nothing is read from the
// environment at call time.
type Config struct {
	APIKey  string        `json:"-"`
	BaseURL string        `json:"base_url"`
	Locale  string        `json:"locale"`
	Engine  string        `json:"engine"`
	Timeout time.Duration `json:"timeout"`

	// HTTPClient overrides the transport, mainly for tests
	HTTPClient *http.Client `json:"-"`
}

// DefaultConfig returns sensible defaults for SerpAPI lookups
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Locale:  "en",
		Engine:  "google",
		Timeout: 30 * time.Second,
	}
}

// ConfigFromApp builds a client config from the application config
func ConfigFromApp(search config.SearchConfig) Config {
	cfg := DefaultConfig()
	cfg.APIKey = search.APIKey
	if search.BaseURL != "" {
		cfg.BaseURL = search.BaseURL
	}
	if search.Locale != "" {
		cfg.Locale = search.Locale
	}
	if search.Timeout > 0 {
		cfg.Timeout = search.Timeout
	}
	return cfg
}
