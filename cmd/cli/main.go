package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"agentdash/adapters/excel"
	"agentdash/app"
	"agentdash/domain/dataset"
	"agentdash/internal"
	"agentdash/internal/config"
	"agentdash/internal/container"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "agentdash",
		Short:         "Batch web lookups and column summaries for CSV/XLSX datasets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newLookupCmd(),
		newSummaryCmd(),
		newChartCmd(),
		newPresetsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the container
func setup(ctx context.Context) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	internal.DefaultLogger.SetLevel(internal.ParseLogLevel(cfg.LogLevel))

	c, err := container.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func readDataset(path string) (*dataset.Dataset, error) {
	if path == "" {
		return nil, fmt.Errorf("--file is required")
	}
	return excel.NewDataReader(path).ReadData()
}

func newLookupCmd() *cobra.Command {
	var file, column, template, preset, out, format string

	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Search the web once per distinct value of a column",
		Long: `Run one web search per distinct value of a column and write an
Entity, Query, Result table.

The search API key is read from SERPAPI_API_KEY.

Example: agentdash lookup --file data.csv --column Country --template "What is {entity}" --out results.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := setup(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			ds, err := readDataset(file)
			if err != nil {
				return err
			}
			if preset != "" {
				p, ok := config.FindPreset(c.Presets, preset)
				if !ok {
					return fmt.Errorf("unknown template preset %q", preset)
				}
				template = p.Template
			}

			batch, err := c.Batches.Run(ctx, app.BatchRequest{
				Dataset:  ds,
				Column:   column,
				Template: template,
				Progress: func(done, total int) {
					fmt.Fprintf(cmd.ErrOrStderr(), "\rSearching %d/%d", done, total)
					if done == total {
						fmt.Fprintln(cmd.ErrOrStderr())
					}
				},
			})
			if err != nil {
				return err
			}
			for _, w := range batch.Warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
			}

			if format == "" {
				format = strings.TrimPrefix(strings.ToLower(filepath.Ext(out)), ".")
			}
			return writeBatchOutput(cmd.OutOrStdout(), out, format, func(w io.Writer, format string) error {
				switch format {
				case "", "csv":
					return batch.WriteCSV(w)
				case "xlsx":
					return excel.WriteBatch(w, batch)
				case "json":
					enc := json.NewEncoder(w)
					enc.SetIndent("", "  ")
					return enc.Encode(batch)
				default:
					return fmt.Errorf("unsupported output format %q, use csv, xlsx or json", format)
				}
			})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "CSV or XLSX dataset")
	cmd.Flags().StringVar(&column, "column", "", "Column whose distinct values are searched")
	cmd.Flags().StringVar(&template, "template", "", "Query template containing {entity} (default from LOOKUP_DEFAULT_TEMPLATE)")
	cmd.Flags().StringVar(&preset, "preset", "", "Named template preset, overrides --template")
	cmd.Flags().StringVar(&out, "out", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&format, "format", "", "Output format: csv|xlsx|json (default from --out extension, else csv)")
	_ = cmd.MarkFlagRequired("column")

	return cmd
}

// writeBatchOutput writes to path, or to stdout when path is empty
func writeBatchOutput(stdout io.Writer, path, format string, write func(io.Writer, string) error) error {
	if path == "" {
		return write(stdout, format)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f, format); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func newSummaryCmd() *cobra.Command {
	var file, column string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print a describe-style summary of one column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := readDataset(file)
			if err != nil {
				return err
			}
			summary, err := app.NewSummaryService().Summarize(ds, column)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "column\t%s\n", summary.Column)
			for _, stat := range summary.Stats() {
				fmt.Fprintf(tw, "%s\t%s\n", stat.Name, stat.Value)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "CSV or XLSX dataset")
	cmd.Flags().StringVar(&column, "column", "", "Column to summarize")
	_ = cmd.MarkFlagRequired("column")

	return cmd
}

func newChartCmd() *cobra.Command {
	var file, column, kind string

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Print the value counts behind a bar, line or pie chart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			chartKind, err := app.ParseChartKind(kind)
			if err != nil {
				return err
			}
			ds, err := readDataset(file)
			if err != nil {
				return err
			}
			chart, err := app.NewChartService().ValueCounts(ds, column, chartKind)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			if chart.Kind == app.ChartPie {
				fmt.Fprintln(tw, "value\tcount\tpercent")
				for _, vc := range chart.Counts {
					fmt.Fprintf(tw, "%s\t%d\t%.1f%%\n", vc.Value, vc.Count, vc.Percent)
				}
			} else {
				fmt.Fprintln(tw, "value\tcount")
				for _, vc := range chart.Counts {
					fmt.Fprintf(tw, "%s\t%d\n", vc.Value, vc.Count)
				}
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "CSV or XLSX dataset")
	cmd.Flags().StringVar(&column, "column", "", "Column to count")
	cmd.Flags().StringVar(&kind, "type", string(app.ChartBar), "Chart type: bar|line|pie")
	_ = cmd.MarkFlagRequired("column")

	return cmd
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the configured query template presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			presets, err := config.LoadPresets(cfg.Lookup.PresetsFile)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "name\ttemplate\tdescription")
			for _, p := range presets {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Name, p.Template, p.Description)
			}
			return tw.Flush()
		},
	}
}
