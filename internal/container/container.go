package container

import (
	"context"
	"fmt"

	"agentdash/adapters/db"
	"agentdash/adapters/excel"
	"agentdash/adapters/serpapi"
	"agentdash/adapters/sheets"
	"agentdash/app"
	"agentdash/domain/lookup"
	"agentdash/internal"
	"agentdash/internal/config"
	"agentdash/ports"

	"github.com/jmoiron/sqlx"
)

// historyLimit bounds the in-memory batch history
const historyLimit = 50

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB *sqlx.DB

	// Adapters
	LookupClient ports.LookupClient
	SheetFetcher ports.SheetFetcher
	BatchRepo    ports.BatchRepository

	// Services
	Datasets *app.DatasetService
	Batches  *app.BatchService
	Summary  *app.SummaryService
	Charts   *app.ChartService
	Reports  *app.ReportService
	Presets  []config.Preset

	logger *internal.Logger
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	return &Container{
		Config: cfg,
		logger: internal.DefaultLogger.Named("Container"),
	}, nil
}

// Init builds every component. A database is opened only when one is configured.
func (c *Container) Init(ctx context.Context) error {
	if err := c.initRepositories(ctx); err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	if err := c.initAdapters(); err != nil {
		return fmt.Errorf("failed to initialize adapters: %w", err)
	}

	presets, err := config.LoadPresets(c.Config.Lookup.PresetsFile)
	if err != nil {
		return fmt.Errorf("failed to load template presets: %w", err)
	}
	c.Presets = presets

	c.initServices()

	c.logger.Info("Container initialized (database=%q, search key configured=%v)",
		c.Config.Database.Driver, c.Config.HasSearchKey())
	return nil
}

func (c *Container) initRepositories(ctx context.Context) error {
	if c.Config.Database.Driver == config.DriverNone {
		c.BatchRepo = app.NewMemoryBatchRepository(historyLimit)
		return nil
	}

	database, err := db.Open(ctx, c.Config.Database)
	if err != nil {
		return err
	}
	c.DB = database
	c.BatchRepo = db.NewBatchRepository(database)
	return nil
}

func (c *Container) initAdapters() error {
	if c.Config.HasSearchKey() {
		client, err := serpapi.NewClient(serpapi.ConfigFromApp(c.Config.Search))
		if err != nil {
			return err
		}
		c.LookupClient = client
	} else {
		c.logger.Warn("SERPAPI_API_KEY is not set, lookups will fail per row")
		c.LookupClient = ports.LookupClientFunc(func(ctx context.Context, query string) lookup.Result {
			return lookup.Failure("search API key is not configured")
		})
	}

	c.SheetFetcher = sheets.NewFetcher(sheets.WithMaxBytes(c.Config.Upload.MaxBytes()))
	return nil
}

func (c *Container) initServices() {
	c.Datasets = app.NewDatasetService(c.SheetFetcher, excel.DefaultReaderConfig())
	c.Batches = app.NewBatchService(c.LookupClient, c.BatchRepo, app.BatchConfigFromApp(c.Config.Lookup))
	c.Summary = app.NewSummaryService()
	c.Charts = app.NewChartService()
	c.Reports = app.NewReportService()
}

// Close releases the database connection, if any
func (c *Container) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
