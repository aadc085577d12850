package container

import (
	"context"
	"testing"
	"time"

	"agentdash/app"
	"agentdash/domain/dataset"
	"agentdash/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Search: config.SearchConfig{BaseURL: "https://serpapi.com/search", Locale: "en", Timeout: time.Second},
		Lookup: config.LookupConfig{Concurrency: 2, RequirePlaceholder: true, DefaultTemplate: "What is {entity}"},
		Upload: config.UploadConfig{MaxMB: 1},
	}
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestInitWithoutDatabase(t *testing.T) {
	c, err := New(testConfig())
	require.NoError(t, err)
	require.NoError(t, c.Init(context.Background()))
	defer c.Close()

	assert.Nil(t, c.DB)
	assert.IsType(t, &app.MemoryBatchRepository{}, c.BatchRepo)
	assert.NotEmpty(t, c.Presets)
	assert.Equal(t, 2, c.Batches.Config().Concurrency)

	ds, err := dataset.FromStrings("t", map[string][]string{"Country": {"Chile"}}, []string{"Country"})
	require.NoError(t, err)
	batch, err := c.Batches.Run(context.Background(), app.BatchRequest{Dataset: ds, Column: "Country", Template: "What is {entity}"})
	require.NoError(t, err)
	require.Len(t, batch.Rows, 1)
	assert.Equal(t, "Error: search API key is not configured", batch.Rows[0].Result)

	list, err := c.BatchRepo.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestInitWithSQLite(t *testing.T) {
	cfg := testConfig()
	cfg.Database = config.DatabaseConfig{Driver: config.DriverSQLite, URL: ":memory:"}
	cfg.Search.APIKey = "k"

	c, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, c.Init(context.Background()))
	defer c.Close()

	assert.NotNil(t, c.DB)
	assert.NotNil(t, c.LookupClient)
}
