package app

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"agentdash/domain/core"
	"agentdash/domain/dataset"
	"agentdash/domain/lookup"
	"agentdash/ports"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLookupClient struct {
	mock.Mock
}

func (m *mockLookupClient) Search(ctx context.Context, query string) lookup.Result {
	args := m.Called(ctx, query)
	return args.Get(0).(lookup.Result)
}

type mockBatchRepository struct {
	mock.Mock
}

func (m *mockBatchRepository) Save(ctx context.Context, batch *lookup.Batch) error {
	return m.Called(ctx, batch).Error(0)
}

func (m *mockBatchRepository) Get(ctx context.Context, id core.BatchID) (*lookup.Batch, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(*lookup.Batch)
	return b, args.Error(1)
}

func (m *mockBatchRepository) List(ctx context.Context, limit int) ([]ports.BatchSummary, error) {
	args := m.Called(ctx, limit)
	s, _ := args.Get(0).([]ports.BatchSummary)
	return s, args.Error(1)
}

func strPtr(s string) *string { return &s }

func newDataset(t *testing.T, column string, values ...string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.FromStrings("test", map[string][]string{column: values}, []string{column})
	require.NoError(t, err)
	return ds
}

type rowView struct {
	Query  string
	Result string
}

func views(rows []lookup.ResultRow) []rowView {
	out := make([]rowView, len(rows))
	for i, r := range rows {
		out[i] = rowView{Query: r.Query, Result: r.Result}
	}
	return out
}

func TestRunEndToEnd(t *testing.T) {
	client := new(mockLookupClient)
	client.On("Search", mock.Anything, "What is Chile").
		Return(lookup.Found(lookup.Candidate{Position: 1, Snippet: strPtr("Chile is a country")})).Once()
	client.On("Search", mock.Anything, "What is Peru").
		Return(lookup.Empty()).Once()

	svc := NewBatchService(client, nil, DefaultBatchConfig())
	batch, err := svc.Run(context.Background(), BatchRequest{
		Dataset:  newDataset(t, "Country", "Chile", "Peru", "Chile"),
		Column:   "Country",
		Template: "What is {entity}",
	})
	require.NoError(t, err)

	want := []rowView{
		{Query: "What is Chile", Result: "Chile is a country"},
		{Query: "What is Peru", Result: "No relevant results found"},
	}
	if diff := cmp.Diff(want, views(batch.Rows)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Chile", batch.Rows[0].Entity)
	assert.Equal(t, lookup.OutcomeFound, batch.Rows[0].Outcome)
	assert.Equal(t, lookup.OutcomeEmpty, batch.Rows[1].Outcome)
	assert.False(t, batch.ID.IsEmpty())
	assert.Empty(t, batch.Warnings)
	client.AssertExpectations(t)
	client.AssertNumberOfCalls(t, "Search", 2)

	csv, err := batch.CSV()
	require.NoError(t, err)
	assert.Equal(t, "Entity,Query,Result\nChile,What is Chile,Chile is a country\nPeru,What is Peru,No relevant results found\n", string(csv))
}

func TestRunPreservesOrderDespiteFailures(t *testing.T) {
	values := make([]string, 0, 60)
	for i := 0; i < 30; i++ {
		values = append(values, fmt.Sprintf("e%02d", i), fmt.Sprintf("e%02d", i/2))
	}
	ds := newDataset(t, "Name", values...)
	entities, err := lookup.ExtractEntities(ds, "Name")
	require.NoError(t, err)

	var calls atomic.Int32
	client := ports.LookupClientFunc(func(ctx context.Context, query string) lookup.Result {
		calls.Add(1)
		n := 0
		fmt.Sscanf(strings.TrimPrefix(query, "q "), "e%d", &n)
		time.Sleep(time.Duration((n*7)%5) * time.Millisecond)
		if n%3 == 0 {
			return lookup.Failure("timeout")
		}
		return lookup.Found(lookup.Candidate{Snippet: strPtr("about " + query)})
	})

	for _, concurrency := range []int{1, 4, 16} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			calls.Store(0)
			cfg := DefaultBatchConfig()
			cfg.Concurrency = concurrency
			batch, err := NewBatchService(client, nil, cfg).Run(context.Background(), BatchRequest{
				Dataset: ds, Column: "Name", Template: "q {entity}",
			})
			require.NoError(t, err)

			require.Len(t, batch.Rows, len(entities))
			assert.Equal(t, int32(len(entities)), calls.Load())
			for i, e := range entities {
				row := batch.Rows[i]
				assert.Equal(t, e.Value, row.Entity)
				assert.Equal(t, "q "+e.Value, row.Query)
				n := 0
				fmt.Sscanf(e.Value, "e%d", &n)
				if n%3 == 0 {
					assert.Equal(t, "Error: timeout", row.Result)
				} else {
					assert.Equal(t, "about q "+e.Value, row.Result)
				}
			}
		})
	}
}

func TestRunRejectsInvalidInput(t *testing.T) {
	client := new(mockLookupClient)
	svc := NewBatchService(client, nil, DefaultBatchConfig())
	ds := newDataset(t, "Country", "Chile")

	tests := []struct {
		name string
		req  BatchRequest
		want error
	}{
		{"no dataset", BatchRequest{Column: "Country", Template: "What is {entity}"}, core.ErrNoDataset},
		{"missing column", BatchRequest{Dataset: ds, Column: "City", Template: "What is {entity}"}, core.ErrColumnNotFound},
		{"no placeholder", BatchRequest{Dataset: ds, Column: "Country", Template: "What is this"}, core.ErrTemplatePlaceholder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch, err := svc.Run(context.Background(), tt.req)
			assert.Nil(t, batch)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, core.IsInputError(err))
		})
	}
	client.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestRunWithoutPlaceholderWhenAllowed(t *testing.T) {
	client := new(mockLookupClient)
	client.On("Search", mock.Anything, "latest news").Return(lookup.Empty())

	cfg := DefaultBatchConfig()
	cfg.RequirePlaceholder = false
	batch, err := NewBatchService(client, nil, cfg).Run(context.Background(), BatchRequest{
		Dataset: newDataset(t, "Country", "Chile", "Peru"), Column: "Country", Template: "latest news",
	})
	require.NoError(t, err)

	require.Len(t, batch.Rows, 2)
	assert.Equal(t, batch.Rows[0].Query, batch.Rows[1].Query)
	require.Len(t, batch.Warnings, 1)
	assert.Contains(t, batch.Warnings[0], "{entity}")
}

func TestRunBlankTemplate(t *testing.T) {
	client := new(mockLookupClient)
	client.On("Search", mock.Anything, "What is Chile").Return(lookup.Empty())
	ds := newDataset(t, "Country", "Chile")

	batch, err := NewBatchService(client, nil, DefaultBatchConfig()).Run(context.Background(), BatchRequest{
		Dataset: ds, Column: "Country", Template: "  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "What is {entity}", batch.Template)

	cfg := DefaultBatchConfig()
	cfg.DefaultTemplate = ""
	_, err = NewBatchService(client, nil, cfg).Run(context.Background(), BatchRequest{
		Dataset: ds, Column: "Country",
	})
	assert.ErrorIs(t, err, core.ErrEmptyTemplate)
}

func TestRunEmptyColumn(t *testing.T) {
	client := new(mockLookupClient)
	ds := newDataset(t, "Country")

	batch, err := NewBatchService(client, nil, DefaultBatchConfig()).Run(context.Background(), BatchRequest{
		Dataset: ds, Column: "Country", Template: "What is {entity}",
	})
	require.NoError(t, err)
	assert.Empty(t, batch.Rows)
	client.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestRunCanceledBeforeStart(t *testing.T) {
	client := new(mockLookupClient)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch, err := NewBatchService(client, nil, DefaultBatchConfig()).Run(ctx, BatchRequest{
		Dataset: newDataset(t, "Country", "Chile", "Peru"), Column: "Country", Template: "What is {entity}",
	})
	require.NoError(t, err)

	require.Len(t, batch.Rows, 2)
	for _, row := range batch.Rows {
		assert.Equal(t, "Error: context canceled", row.Result)
		assert.Equal(t, lookup.OutcomeFailed, row.Outcome)
	}
	client.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestRunCanceledMidway(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	client := ports.LookupClientFunc(func(ctx context.Context, query string) lookup.Result {
		calls.Add(1)
		cancel()
		return lookup.Found(lookup.Candidate{Snippet: strPtr("first")})
	})

	batch, err := NewBatchService(client, nil, DefaultBatchConfig()).Run(ctx, BatchRequest{
		Dataset: newDataset(t, "Country", "Chile", "Peru", "Bolivia"), Column: "Country", Template: "What is {entity}",
	})
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	want := []rowView{
		{Query: "What is Chile", Result: "first"},
		{Query: "What is Peru", Result: "Error: context canceled"},
		{Query: "What is Bolivia", Result: "Error: context canceled"},
	}
	if diff := cmp.Diff(want, views(batch.Rows)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestRunIsolatesPanickingClient(t *testing.T) {
	client := ports.LookupClientFunc(func(ctx context.Context, query string) lookup.Result {
		if query == "What is Peru" {
			panic("boom")
		}
		return lookup.Empty()
	})

	batch, err := NewBatchService(client, nil, DefaultBatchConfig()).Run(context.Background(), BatchRequest{
		Dataset: newDataset(t, "Country", "Chile", "Peru", "Bolivia"), Column: "Country", Template: "What is {entity}",
	})
	require.NoError(t, err)

	require.Len(t, batch.Rows, 3)
	assert.Equal(t, "Error: lookup panicked: boom", batch.Rows[1].Result)
	assert.Equal(t, "No relevant results found", batch.Rows[2].Result)
}

func TestRunSavesToRepository(t *testing.T) {
	client := ports.LookupClientFunc(func(ctx context.Context, query string) lookup.Result {
		return lookup.Empty()
	})
	repo := NewMemoryBatchRepository(0)

	batch, err := NewBatchService(client, repo, DefaultBatchConfig()).Run(context.Background(), BatchRequest{
		Dataset: newDataset(t, "Country", "Chile"), Column: "Country", Template: "What is {entity}",
	})
	require.NoError(t, err)

	stored, err := repo.Get(context.Background(), batch.ID)
	require.NoError(t, err)
	assert.Equal(t, batch.Rows, stored.Rows)
}

func TestRunIgnoresRepositoryFailure(t *testing.T) {
	client := ports.LookupClientFunc(func(ctx context.Context, query string) lookup.Result {
		return lookup.Empty()
	})
	repo := new(mockBatchRepository)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*lookup.Batch")).Return(fmt.Errorf("disk full"))

	batch, err := NewBatchService(client, repo, DefaultBatchConfig()).Run(context.Background(), BatchRequest{
		Dataset: newDataset(t, "Country", "Chile"), Column: "Country", Template: "What is {entity}",
	})
	require.NoError(t, err)
	assert.Len(t, batch.Rows, 1)
	repo.AssertExpectations(t)
}

func TestRunSavesCanceledBatch(t *testing.T) {
	client := new(mockLookupClient)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := new(mockBatchRepository)
	liveCtx := mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil })
	repo.On("Save", liveCtx, mock.AnythingOfType("*lookup.Batch")).Return(nil).Once()

	batch, err := NewBatchService(client, repo, DefaultBatchConfig()).Run(ctx, BatchRequest{
		Dataset: newDataset(t, "Country", "Chile", "Peru"), Column: "Country", Template: "What is {entity}",
	})
	require.NoError(t, err)
	require.Len(t, batch.Rows, 2)
	assert.Equal(t, lookup.OutcomeFailed, batch.Rows[0].Outcome)
	repo.AssertExpectations(t)
}

func TestRunReportsProgress(t *testing.T) {
	client := ports.LookupClientFunc(func(ctx context.Context, query string) lookup.Result {
		return lookup.Empty()
	})
	cfg := DefaultBatchConfig()
	cfg.Concurrency = 3

	var seen []int
	_, err := NewBatchService(client, nil, cfg).Run(context.Background(), BatchRequest{
		Dataset:  newDataset(t, "Country", "a", "b", "c", "d", "a"),
		Column:   "Country",
		Template: "{entity}",
		Progress: func(done, total int) {
			assert.Equal(t, 4, total)
			seen = append(seen, done)
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, seen)
}
