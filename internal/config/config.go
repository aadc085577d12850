package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"agentdash/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig
	API       APIConfig
	Search    SearchConfig
	Lookup    LookupConfig
	Database  DatabaseConfig
	Upload    UploadConfig
	Profiling ProfilingConfig
	LogLevel  string
}

// ServerConfig holds dashboard web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// APIConfig holds JSON API server settings
type APIConfig struct {
	Port string
}

// SearchConfig holds the search provider settings
type SearchConfig struct {
	APIKey  string
	BaseURL string
	Locale  string
	Timeout time.Duration
}

// LookupConfig holds batch lookup behaviour
type LookupConfig struct {
	Concurrency        int
	RequirePlaceholder bool
	DefaultTemplate    string
	PresetsFile        string
}

// Database drivers understood by the container
const (
	DriverNone     = ""
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig selects the batch history store
type DatabaseConfig struct {
	Driver string
	URL    string
}

// UploadConfig limits dataset uploads
type UploadConfig struct {
	MaxMB int
}

// MaxBytes returns the upload limit in bytes
func (u UploadConfig) MaxBytes() int64 {
	return int64(u.MaxMB) * 1024 * 1024
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:    *loadServerConfig(),
		API:       *loadAPIConfig(),
		Search:    *loadSearchConfig(),
		Lookup:    *loadLookupConfig(),
		Database:  *loadDatabaseConfig(),
		Upload:    UploadConfig{MaxMB: getEnvIntOrDefault("MAX_UPLOAD_MB", 50)},
		Profiling: *loadProfilingConfig(),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "debug"),
	}
}

func loadAPIConfig() *APIConfig {
	return &APIConfig{
		Port: getEnvOrDefault("API_PORT", "8090"),
	}
}

func loadSearchConfig() *SearchConfig {
	return &SearchConfig{
		APIKey:  os.Getenv("SERPAPI_API_KEY"),
		BaseURL: getEnvOrDefault("SERPAPI_BASE_URL", "https://serpapi.com/search"),
		Locale:  getEnvOrDefault("SEARCH_LOCALE", "en"),
		Timeout: getEnvDurationOrDefault("SEARCH_TIMEOUT", 30*time.Second),
	}
}

func loadLookupConfig() *LookupConfig {
	return &LookupConfig{
		Concurrency:        getEnvIntOrDefault("LOOKUP_CONCURRENCY", 1),
		RequirePlaceholder: getEnvBoolOrDefault("LOOKUP_REQUIRE_PLACEHOLDER", true),
		DefaultTemplate:    getEnvOrDefault("LOOKUP_DEFAULT_TEMPLATE", "What is {entity}"),
		PresetsFile:        getEnvOrDefault("TEMPLATE_PRESETS_FILE", ""),
	}
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Driver: strings.ToLower(getEnvOrDefault("DATABASE_DRIVER", DriverNone)),
		URL:    getEnvOrDefault("DATABASE_URL", ""),
	}
}

func loadProfilingConfig() *ProfilingConfig {
	return &ProfilingConfig{
		Port:    getEnvOrDefault("PPROF_PORT", "6060"),
		Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
	}
}

func validateConfig(config *Config) error {
	if config.Lookup.Concurrency < 1 {
		return errors.ConfigInvalid("LOOKUP_CONCURRENCY must be at least 1")
	}
	if strings.TrimSpace(config.Lookup.DefaultTemplate) == "" {
		return errors.ConfigInvalid("LOOKUP_DEFAULT_TEMPLATE cannot be empty")
	}
	if _, err := url.ParseRequestURI(config.Search.BaseURL); err != nil {
		return errors.ConfigInvalid("SERPAPI_BASE_URL must be an absolute URL")
	}
	if config.Search.Timeout <= 0 {
		return errors.ConfigInvalid("SEARCH_TIMEOUT must be positive")
	}
	switch config.Database.Driver {
	case DriverNone:
	case DriverPostgres, DriverSQLite:
		if config.Database.URL == "" {
			return errors.ConfigInvalid("DATABASE_URL is required when DATABASE_DRIVER is set")
		}
	default:
		return errors.ConfigInvalid("DATABASE_DRIVER must be postgres, sqlite or empty")
	}
	if config.Upload.MaxMB <= 0 {
		return errors.ConfigInvalid("MAX_UPLOAD_MB must be positive")
	}
	return nil
}

// HasSearchKey reports whether live lookups are possible
func (c *Config) HasSearchKey() bool {
	return strings.TrimSpace(c.Search.APIKey) != ""
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
