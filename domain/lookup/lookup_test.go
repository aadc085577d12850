package lookup

import (
	"errors"
	"strings"
	"testing"

	"agentdash/domain/core"
	"agentdash/domain/dataset"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func mustDataset(t *testing.T, column string, values ...string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.FromStrings("test", map[string][]string{column: values}, []string{column})
	require.NoError(t, err)
	return ds
}

func TestExtractEntities_FirstOccurrenceOrder(t *testing.T) {
	ds := mustDataset(t, "letters", "a", "b", "a", "c", "b")

	entities, err := ExtractEntities(ds, "letters")
	require.NoError(t, err)

	got := make([]string, len(entities))
	for i, e := range entities {
		got[i] = e.Value
		assert.Equal(t, "letters", e.Column)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Errorf("entities mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractEntities_Idempotent(t *testing.T) {
	ds := mustDataset(t, "Country", "Chile", "Peru", "Chile", "Bolivia")

	first, err := ExtractEntities(ds, "Country")
	require.NoError(t, err)
	second, err := ExtractEntities(ds, "Country")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestExtractEntities_EmptyColumn(t *testing.T) {
	ds := mustDataset(t, "Country")

	entities, err := ExtractEntities(ds, "Country")
	require.NoError(t, err)
	assert.Empty(t, entities)
}

func TestExtractEntities_KeepsSurroundingWhitespace(t *testing.T) {
	ds := mustDataset(t, "Country", "Chile", " Chile", "Chile ", "Chile", "   ", "")

	entities, err := ExtractEntities(ds, "Country")
	require.NoError(t, err)

	got := make([]string, len(entities))
	for i, e := range entities {
		got[i] = e.Value
	}
	if diff := cmp.Diff([]string{"Chile", " Chile", "Chile ", ""}, got); diff != "" {
		t.Errorf("entities mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "What is  Chile", BuildQuery("What is {entity}", entities[1]))
}

func TestExtractEntities_NumbersByText(t *testing.T) {
	ds := mustDataset(t, "n", "3", "3.0", "3", "")

	entities, err := ExtractEntities(ds, "n")
	require.NoError(t, err)
	require.Len(t, entities, 3)
	assert.Equal(t, "3", entities[0].Value)
	assert.Equal(t, "3.0", entities[1].Value)
	assert.Equal(t, "", entities[2].Value)
}

func TestExtractEntities_Errors(t *testing.T) {
	_, err := ExtractEntities(nil, "Country")
	assert.True(t, errors.Is(err, core.ErrNoDataset))

	ds := mustDataset(t, "Country", "Chile")
	_, err = ExtractEntities(ds, "City")
	assert.True(t, errors.Is(err, core.ErrColumnNotFound))
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name     string
		template string
		entity   string
		want     string
	}{
		{"simple", "What is {entity}", "Chile", "What is Chile"},
		{"repeated token", "{entity} vs {entity}", "Peru", "Peru vs Peru"},
		{"no placeholder", "latest news", "Chile", "latest news"},
		{"empty entity", "What is {entity}?", "", "What is ?"},
		{"other braces untouched", "{name} {entity}", "Chile", "{name} Chile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Entity{Column: "c", Value: tt.entity}
			got := BuildQuery(tt.template, e)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, BuildQuery(tt.template, e), "builder must be deterministic")
		})
	}
}

func TestBuildQuery_NoPlaceholderIgnoresEntity(t *testing.T) {
	const template = "population of South America"
	assert.False(t, HasPlaceholder(template))
	for _, v := range []string{"Chile", "Peru", "42", ""} {
		assert.Equal(t, template, BuildQuery(template, Entity{Value: v}))
	}
	assert.True(t, HasPlaceholder(DefaultTemplate))
}

func TestReduce(t *testing.T) {
	tests := []struct {
		name    string
		result  Result
		want    string
		outcome Outcome
	}{
		{"failure", Failure("timeout"), "Error: timeout", OutcomeFailed},
		{"failure from error", Failed(errors.New("dial tcp: refused")), "Error: dial tcp: refused", OutcomeFailed},
		{"failure from nil error", Failed(nil), "Error: unknown error", OutcomeFailed},
		{"empty", Empty(), "No relevant results found", OutcomeEmpty},
		{"found with no candidates", Found(), "No relevant results found", OutcomeEmpty},
		{"snippet", Found(Candidate{Snippet: strPtr("Chile is a country")}), "Chile is a country", OutcomeFound},
		{
			"first candidate wins",
			Found(Candidate{Snippet: strPtr("first")}, Candidate{Snippet: strPtr("second")}),
			"first",
			OutcomeFound,
		},
		{
			"first candidate without snippet",
			Found(Candidate{Link: strPtr("https://example.com")}, Candidate{Snippet: strPtr("second")}),
			"No result found",
			OutcomeFound,
		},
		{"empty snippet is still a snippet", Found(Candidate{Snippet: strPtr("")}), "", OutcomeFound},
		{"zero value", Result{}, "No relevant results found", OutcomeEmpty},
		{"zero value with message", Result{Message: "boom"}, "Error: boom", OutcomeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() { Reduce(tt.result) })
			assert.Equal(t, tt.want, Reduce(tt.result))
			text, outcome := Resolve(tt.result)
			assert.Equal(t, tt.want, text)
			assert.Equal(t, tt.outcome, outcome)
		})
	}
}

func TestBatchCSV(t *testing.T) {
	b := &Batch{Rows: []ResultRow{
		{Entity: "Chile", Query: "What is Chile", Result: "Chile is a country", Outcome: OutcomeFound},
		{Entity: "Peru", Query: "What is Peru", Result: "No relevant results found", Outcome: OutcomeEmpty},
		{Entity: "A, B", Query: "What is \"A, B\"", Result: "Error: timeout", Outcome: OutcomeFailed},
	}}

	out, err := b.CSV()
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Entity,Query,Result", lines[0])
	assert.Equal(t, "Chile,What is Chile,Chile is a country", lines[1])
	assert.Equal(t, `"A, B","What is ""A, B""",Error: timeout`, lines[3])

	found, empty, failed := b.Counts()
	assert.Equal(t, 1, found)
	assert.Equal(t, 1, empty)
	assert.Equal(t, 1, failed)
}

func TestBatchCSV_HeaderOnlyWhenEmpty(t *testing.T) {
	out, err := (&Batch{}).CSV()
	require.NoError(t, err)
	assert.Equal(t, "Entity,Query,Result\n", string(out))
}
