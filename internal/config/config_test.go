package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"agentdash/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "GIN_MODE", "API_PORT", "SERPAPI_API_KEY", "SERPAPI_BASE_URL",
		"SEARCH_LOCALE", "SEARCH_TIMEOUT", "LOOKUP_CONCURRENCY",
		"LOOKUP_REQUIRE_PLACEHOLDER", "LOOKUP_DEFAULT_TEMPLATE",
		"TEMPLATE_PRESETS_FILE", "DATABASE_DRIVER", "DATABASE_URL",
		"MAX_UPLOAD_MB", "PPROF_ENABLED", "PPROF_PORT", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "8090", cfg.API.Port)
	assert.Equal(t, "https://serpapi.com/search", cfg.Search.BaseURL)
	assert.Equal(t, "en", cfg.Search.Locale)
	assert.Equal(t, 30*time.Second, cfg.Search.Timeout)
	assert.Equal(t, 1, cfg.Lookup.Concurrency)
	assert.True(t, cfg.Lookup.RequirePlaceholder)
	assert.Equal(t, "What is {entity}", cfg.Lookup.DefaultTemplate)
	assert.Equal(t, DriverNone, cfg.Database.Driver)
	assert.Equal(t, int64(50*1024*1024), cfg.Upload.MaxBytes())
	assert.False(t, cfg.Profiling.Enabled)
	assert.False(t, cfg.HasSearchKey())
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERPAPI_API_KEY", "secret")
	t.Setenv("SEARCH_LOCALE", "es")
	t.Setenv("SEARCH_TIMEOUT", "5s")
	t.Setenv("LOOKUP_CONCURRENCY", "4")
	t.Setenv("LOOKUP_REQUIRE_PLACEHOLDER", "false")
	t.Setenv("DATABASE_DRIVER", "SQLite")
	t.Setenv("DATABASE_URL", "file:history.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.HasSearchKey())
	assert.Equal(t, "es", cfg.Search.Locale)
	assert.Equal(t, 5*time.Second, cfg.Search.Timeout)
	assert.Equal(t, 4, cfg.Lookup.Concurrency)
	assert.False(t, cfg.Lookup.RequirePlaceholder)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"zero concurrency", map[string]string{"LOOKUP_CONCURRENCY": "0"}},
		{"driver without url", map[string]string{"DATABASE_DRIVER": "postgres"}},
		{"unknown driver", map[string]string{"DATABASE_DRIVER": "mysql", "DATABASE_URL": "x"}},
		{"relative base url", map[string]string{"SERPAPI_BASE_URL": "serpapi.com"}},
		{"negative upload", map[string]string{"MAX_UPLOAD_MB": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestPresets(t *testing.T) {
	presets, err := LoadPresets("")
	require.NoError(t, err)
	p, ok := FindPreset(presets, "definition")
	require.True(t, ok)
	assert.Equal(t, "What is {entity}", p.Template)

	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
presets:
  - name: capital
    template: "What is the capital of {entity}?"
  - name: " ceo "
    template: "Who is the CEO of {entity}?"
`), 0o644))

	presets, err = LoadPresets(path)
	require.NoError(t, err)
	require.Len(t, presets, 2)
	_, ok = FindPreset(presets, "ceo")
	assert.True(t, ok)
	_, ok = FindPreset(presets, "definition")
	assert.False(t, ok)
}

func TestParsePresetsRejectsBadEntries(t *testing.T) {
	_, err := ParsePresets([]byte("presets:\n  - name: x\n"))
	assert.Error(t, err)

	_, err = ParsePresets([]byte("presets:\n  - name: x\n    template: a\n  - name: x\n    template: b\n"))
	assert.Error(t, err)

	_, err = ParsePresets([]byte("presets: [unclosed"))
	assert.Error(t, err)
}
