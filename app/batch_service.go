package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"agentdash/domain/core"
	"agentdash/domain/dataset"
	"agentdash/domain/lookup"
	"agentdash/internal"
	"agentdash/internal/config"
	"agentdash/ports"

	"golang.org/x/sync/errgroup"
)

// BatchConfig controls how a batch is executed
type BatchConfig struct {
	// Concurrency is the number of lookups in flight; 1 runs them in entity order
	Concurrency int `json:"concurrency"`
	// RequirePlaceholder rejects templates that would send the same query for every entity
	RequirePlaceholder bool `json:"require_placeholder"`
	// DefaultTemplate replaces a blank template; empty means blank templates are rejected
	DefaultTemplate string `json:"default_template"`
}

// DefaultBatchConfig returns sequential execution with placeholder checks
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		Concurrency:        1,
		RequirePlaceholder: true,
		DefaultTemplate:    lookup.DefaultTemplate,
	}
}

// BatchConfigFromApp builds a batch config from the application config
func BatchConfigFromApp(cfg config.LookupConfig) BatchConfig {
	return BatchConfig{
		Concurrency:        cfg.Concurrency,
		RequirePlaceholder: cfg.RequirePlaceholder,
		DefaultTemplate:    cfg.DefaultTemplate,
	}
}

// ProgressFunc is called after each lookup finishes
type ProgressFunc func(done, total int)

// BatchRequest is one run of the lookup routine
type BatchRequest struct {
	Dataset  *dataset.Dataset
	Column   string
	Template string
	Progress ProgressFunc
}

// BatchService runs a lookup per distinct column value and assembles the results table
type BatchService struct {
	client ports.LookupClient
	repo   ports.BatchRepository
	config BatchConfig
	logger *internal.Logger
}

// NewBatchService creates a batch service. repo may be nil, in which case
// finished batches are not kept.
func NewBatchService(client ports.LookupClient, repo ports.BatchRepository, cfg BatchConfig) *BatchService {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &BatchService{
		client: client,
		repo:   repo,
		config: cfg,
		logger: internal.DefaultLogger.Named("BatchService"),
	}
}

// Config returns the service's execution settings
func (s *BatchService) Config() BatchConfig {
	return s.config
}

// Run executes the batch. It fails only on invalid input; every lookup
// failure becomes an "Error: ..." row and the table always has one row per
// distinct entity, in first-occurrence order.
func (s *BatchService) Run(ctx context.Context, req BatchRequest) (*lookup.Batch, error) {
	template, warnings, err := s.checkTemplate(req.Template)
	if err != nil {
		return nil, err
	}

	entities, err := lookup.ExtractEntities(req.Dataset, req.Column)
	if err != nil {
		return nil, err
	}

	batch := &lookup.Batch{
		ID:                 core.NewBatchID(),
		DatasetName:        req.Dataset.Name,
		DatasetFingerprint: req.Dataset.Fingerprint,
		Column:             req.Column,
		Template:           template,
		Warnings:           warnings,
		StartedAt:          time.Now(),
	}

	s.logger.Info("Batch %s: %d distinct values in column %q (concurrency=%d)",
		batch.ID, len(entities), req.Column, s.config.Concurrency)

	batch.Rows = s.execute(ctx, entities, template, req.Progress)
	batch.CompletedAt = time.Now()

	found, empty, failed := batch.Counts()
	s.logger.Info("Batch %s completed in %v: found=%d empty=%d failed=%d",
		batch.ID, batch.Duration(), found, empty, failed)

	// A canceled request still records its partial table.
	if s.repo != nil {
		if err := s.repo.Save(context.WithoutCancel(ctx), batch); err != nil {
			s.logger.Error("Failed to save batch %s: %v", batch.ID, err)
		}
	}

	return batch, nil
}

func (s *BatchService) checkTemplate(template string) (string, []string, error) {
	if strings.TrimSpace(template) == "" {
		if s.config.DefaultTemplate == "" {
			return "", nil, core.ErrEmptyTemplate
		}
		template = s.config.DefaultTemplate
	}

	var warnings []string
	if !lookup.HasPlaceholder(template) {
		if s.config.RequirePlaceholder {
			return "", nil, fmt.Errorf("%w: add %s where each value should go", core.ErrTemplatePlaceholder, lookup.Placeholder)
		}
		warnings = append(warnings, fmt.Sprintf("template has no %s placeholder, every row sends the same query", lookup.Placeholder))
	}
	return template, warnings, nil
}

// execute fills one row per entity. Workers write only their own index, so
// the slice needs no locking and output order is independent of completion order.
func (s *BatchService) execute(ctx context.Context, entities []lookup.Entity, template string, progress ProgressFunc) []lookup.ResultRow {
	rows := make([]lookup.ResultRow, len(entities))
	tracker := newProgressTracker(len(entities), progress)

	var g errgroup.Group
	g.SetLimit(s.config.Concurrency)

	for i, entity := range entities {
		query := lookup.BuildQuery(template, entity)
		if err := ctx.Err(); err != nil {
			rows[i] = newRow(entity, query, lookup.Failed(err))
			tracker.done()
			continue
		}
		g.Go(func() error {
			rows[i] = s.lookupOne(ctx, entity, query)
			tracker.done()
			return nil
		})
	}
	_ = g.Wait()

	return rows
}

func (s *BatchService) lookupOne(ctx context.Context, entity lookup.Entity, query string) (row lookup.ResultRow) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Lookup for %q panicked: %v", entity.Value, r)
			row = newRow(entity, query, lookup.Failure(fmt.Sprintf("lookup panicked: %v", r)))
		}
	}()

	if err := ctx.Err(); err != nil {
		return newRow(entity, query, lookup.Failed(err))
	}

	start := time.Now()
	result := s.client.Search(ctx, query)
	row = newRow(entity, query, result)
	s.logger.Debug("Looked up %q in %v: %s", entity.Value, time.Since(start), row.Outcome)
	return row
}

func newRow(entity lookup.Entity, query string, result lookup.Result) lookup.ResultRow {
	text, outcome := lookup.Resolve(result)
	return lookup.ResultRow{
		Entity:  entity.Value,
		Query:   query,
		Result:  text,
		Outcome: outcome,
	}
}
