package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCmd(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSummaryCommand(t *testing.T) {
	path := writeCSV(t, "n\n1\n2\n3\n4\n")

	out, err := runCmd(t, newSummaryCmd(), "--file", path, "--column", "n")
	require.NoError(t, err)
	assert.Contains(t, out, "count")
	assert.Contains(t, out, "mean")
	assert.Contains(t, out, "2.5")
}

func TestChartCommand(t *testing.T) {
	path := writeCSV(t, "c\nx\ny\nx\n")

	out, err := runCmd(t, newChartCmd(), "--file", path, "--column", "c", "--type", "pie")
	require.NoError(t, err)
	assert.Contains(t, out, "66.7%")
	assert.Contains(t, out, "33.3%")

	_, err = runCmd(t, newChartCmd(), "--file", path, "--column", "c", "--type", "scatter")
	assert.Error(t, err)
}

func TestCommandsRequireFile(t *testing.T) {
	_, err := runCmd(t, newSummaryCmd(), "--column", "n")
	assert.ErrorContains(t, err, "--file is required")
}

func TestLookupWithoutSearchKeyReportsPerRowFailures(t *testing.T) {
	t.Setenv("SERPAPI_API_KEY", "")
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("LOOKUP_DEFAULT_TEMPLATE", "What is {entity}")
	path := writeCSV(t, "Country\nChile\nChile\nPeru\n")
	outPath := filepath.Join(t.TempDir(), "results.csv")

	_, err := runCmd(t, newLookupCmd(), "--file", path, "--column", "Country", "--out", outPath)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t,
		"Entity,Query,Result\nChile,What is Chile,Error: search API key is not configured\nPeru,What is Peru,Error: search API key is not configured\n",
		string(data))
}

func TestPresetsCommand(t *testing.T) {
	t.Setenv("TEMPLATE_PRESETS_FILE", "")

	out, err := runCmd(t, newPresetsCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "founded")
	assert.Contains(t, out, "When was {entity} founded?")
}
