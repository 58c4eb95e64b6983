package extract

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/clintrovert/praxis/pkg/types"
)

// ProjectLister enumerates the projects visible to the identity.
type ProjectLister interface {
	ListProjectKeys(ctx context.Context) ([]string, error)
}

// Orchestrator sequences discovery, per-project extraction, and aggregation.
type Orchestrator struct {
	lister    ProjectLister
	extractor *Extractor
	workers   int
	logger    *zap.Logger
}

// NewOrchestrator creates a new orchestrator. workers bounds how many
// projects are walked concurrently; the request rate budget is enforced by
// the shared Jira client, not per worker.
func NewOrchestrator(lister ProjectLister, extractor *Extractor, workers int, logger *zap.Logger) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		lister:    lister,
		extractor: extractor,
		workers:   workers,
		logger:    logger,
	}
}

// Run discovers all visible projects, extracts each one, and aggregates the
// results. Only discovery failure aborts; per-project failures are recorded
// in the summary and the run continues. Rows are concatenated in discovery
// order regardless of worker scheduling.
func (o *Orchestrator) Run(ctx context.Context) (*types.RunSummary, error) {
	keys, err := o.lister.ListProjectKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to discover projects: %w", err)
	}
	o.logger.Info("discovered projects", zap.Int("count", len(keys)))

	results := make([]types.ProjectResult, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			results[i] = o.extractor.Extract(gctx, key)
			o.observe(results[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &types.RunSummary{
		ProjectsDiscovered: len(keys),
		Results:            results,
	}
	for _, result := range results {
		switch result.Status {
		case types.StatusSuccess:
			summary.Succeeded++
		case types.StatusEmpty:
			summary.Empty++
		case types.StatusAccessDenied:
			summary.Denied++
		case types.StatusError:
			summary.Errored++
		}
		summary.Rows = append(summary.Rows, result.Rows...)
		summary.TotalRecords += result.RecordCount
	}
	return summary, nil
}

// observe reports one project's outcome; this is the run's progress surface.
func (o *Orchestrator) observe(result types.ProjectResult) {
	fields := []zap.Field{
		zap.String("project", result.ProjectKey),
		zap.String("status", string(result.Status)),
		zap.Int("records", result.RecordCount),
	}

	switch result.Status {
	case types.StatusError:
		fields = append(fields, zap.Bool("partial", result.Partial), zap.Error(result.Err))
		if errors.Is(result.Err, ErrPageLimitExceeded) || errors.Is(result.Err, ErrRecordLimitExceeded) {
			o.logger.Error("project hit extraction ceiling", fields...)
			return
		}
		o.logger.Error("project extraction failed", fields...)
	case types.StatusAccessDenied:
		o.logger.Warn("project access denied", fields...)
	default:
		o.logger.Info("project extracted", fields...)
	}
}
