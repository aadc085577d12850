package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"agentdash/adapters/db"
	"agentdash/adapters/excel"
	"agentdash/app"
	"agentdash/domain/dataset"
	"agentdash/domain/lookup"
	"agentdash/internal/config"
	"agentdash/ports"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "agentdash-dev",
		Short: "agentdash development tools",
	}

	rootCmd.AddCommand(
		newSeedCmd(),
		newSmokeTestCmd(),
		newDeterminismTestCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// sampleColumns is a small dataset with repeats and a blank cell
var sampleColumns = map[string][]string{
	"Company": {"Acme", "Globex", "Acme", "Initech", "", "Globex", "Umbrella"},
	"Country": {"Chile", "Peru", "Chile", "Chile", "Peru", "Mexico", "Peru"},
	"Revenue": {"12.5", "40", "12.5", "7.25", "3", "40", "99"},
}

var sampleOrder = []string{"Company", "Country", "Revenue"}

func sampleDataset() (*dataset.Dataset, error) {
	return dataset.FromStrings("sample.csv", sampleColumns, sampleOrder)
}

// stubClient answers every query without network access
var stubClient = ports.LookupClientFunc(func(ctx context.Context, query string) lookup.Result {
	if strings.Contains(query, "Umbrella") {
		return lookup.Empty()
	}
	snippet := "stub snippet for " + query
	return lookup.Found(lookup.Candidate{Position: 1, Snippet: &snippet})
})

func newSeedCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write a sample CSV dataset for trying the dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeSample(out)
		},
	}
	cmd.Flags().StringVar(&out, "out", "sample.csv", "Output path")
	return cmd
}

func writeSample(path string) error {
	ds, err := sampleDataset()
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(strings.Join(ds.Headers(), ",") + "\n")
	for i := 0; i < ds.RowCount(); i++ {
		cells := make([]string, 0, ds.ColumnCount())
		for _, v := range ds.Row(i) {
			cells = append(cells, v.String())
		}
		b.WriteString(strings.Join(cells, ",") + "\n")
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return err
	}
	fmt.Printf("Wrote %d rows to %s\n", ds.RowCount(), path)
	return nil
}

func newSmokeTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Run smoke tests against a stub search client and an in-memory SQLite history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSmokeTests(cmd.Context())
		},
	}
	return cmd
}

func runSmokeTests(ctx context.Context) error {
	fmt.Println("Running smoke tests...")

	ds, err := sampleDataset()
	if err != nil {
		return fmt.Errorf("failed to build sample dataset: %w", err)
	}

	tests := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"batch_one_row_per_distinct_value", func(ctx context.Context) error {
			batch, err := app.NewBatchService(stubClient, nil, app.DefaultBatchConfig()).Run(ctx, app.BatchRequest{
				Dataset: ds, Column: "Company",
			})
			if err != nil {
				return err
			}
			got := make([]string, len(batch.Rows))
			for i, r := range batch.Rows {
				got[i] = r.Entity
			}
			want := []string{"Acme", "Globex", "Initech", "", "Umbrella"}
			if diff := cmp.Diff(want, got); diff != "" {
				return fmt.Errorf("entities mismatch (-want +got):\n%s", diff)
			}
			if batch.Rows[4].Result != lookup.NoResultsText {
				return fmt.Errorf("empty lookup rendered as %q", batch.Rows[4].Result)
			}
			return nil
		}},
		{"sqlite_history_round_trip", func(ctx context.Context) error {
			database, err := db.Open(ctx, config.DatabaseConfig{Driver: config.DriverSQLite, URL: ":memory:"})
			if err != nil {
				return err
			}
			defer database.Close()

			repo := db.NewBatchRepository(database)
			batch, err := app.NewBatchService(stubClient, repo, app.DefaultBatchConfig()).Run(ctx, app.BatchRequest{
				Dataset: ds, Column: "Country",
			})
			if err != nil {
				return err
			}
			stored, err := repo.Get(ctx, batch.ID)
			if err != nil {
				return err
			}
			if diff := cmp.Diff(batch.Rows, stored.Rows); diff != "" {
				return fmt.Errorf("stored rows mismatch (-run +stored):\n%s", diff)
			}
			return nil
		}},
		{"summary_and_chart", func(ctx context.Context) error {
			summary, err := app.NewSummaryService().Summarize(ds, "Revenue")
			if err != nil {
				return err
			}
			if !summary.Numeric || summary.Max == nil || *summary.Max != 99 {
				return fmt.Errorf("unexpected revenue summary: %+v", summary)
			}
			chart, err := app.NewChartService().ValueCounts(ds, "Country", app.ChartPie)
			if err != nil {
				return err
			}
			if len(chart.Counts) != 3 || chart.Counts[0].Value != "Chile" {
				return fmt.Errorf("unexpected country counts: %+v", chart.Counts)
			}
			return nil
		}},
		{"xlsx_export", func(ctx context.Context) error {
			batch, err := app.NewBatchService(stubClient, nil, app.DefaultBatchConfig()).Run(ctx, app.BatchRequest{
				Dataset: ds, Column: "Country",
			})
			if err != nil {
				return err
			}
			data, err := excel.BatchXLSX(batch)
			if err != nil {
				return err
			}
			back, err := excel.ParseXLSX(bytes.NewReader(data), "export.xlsx")
			if err != nil {
				return err
			}
			if back.RowCount() != len(batch.Rows) {
				return fmt.Errorf("exported %d rows, read back %d", len(batch.Rows), back.RowCount())
			}
			return nil
		}},
	}

	passed := 0
	for _, test := range tests {
		fmt.Printf("  Running %s...", test.name)
		if err := test.fn(ctx); err != nil {
			fmt.Printf(" FAILED: %v\n", err)
		} else {
			fmt.Println(" PASSED")
			passed++
		}
	}

	fmt.Printf("\nSmoke tests: %d/%d passed\n", passed, len(tests))
	if passed < len(tests) {
		return fmt.Errorf("some smoke tests failed")
	}

	return nil
}

func newDeterminismTestCmd() *cobra.Command {
	var column string
	var concurrency int

	cmd := &cobra.Command{
		Use:   "determinism",
		Short: "Check that sequential and concurrent batches produce identical tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return testDeterminism(cmd.Context(), column, concurrency)
		},
	}
	cmd.Flags().StringVar(&column, "column", "Company", "Sample column to search")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Worker count for the concurrent run")
	return cmd
}

func testDeterminism(ctx context.Context, column string, concurrency int) error {
	fmt.Printf("Testing determinism for column %s...\n", column)

	ds, err := sampleDataset()
	if err != nil {
		return err
	}

	sequential := app.DefaultBatchConfig()
	sequential.Concurrency = 1
	concurrent := app.DefaultBatchConfig()
	concurrent.Concurrency = concurrency

	first, err := app.NewBatchService(stubClient, nil, sequential).Run(ctx, app.BatchRequest{Dataset: ds, Column: column})
	if err != nil {
		return err
	}
	second, err := app.NewBatchService(stubClient, nil, concurrent).Run(ctx, app.BatchRequest{Dataset: ds, Column: column})
	if err != nil {
		return err
	}

	if diff := cmp.Diff(first.Rows, second.Rows); diff != "" {
		return fmt.Errorf("determinism test failed (-sequential +concurrent):\n%s", diff)
	}

	fmt.Printf("Determinism test passed - %d rows identical\n", len(first.Rows))
	return nil
}
