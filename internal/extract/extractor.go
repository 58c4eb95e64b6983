package extract

import (
	"context"

	jira "github.com/andygrunwald/go-jira"
	"go.uber.org/zap"

	jiraapi "github.com/clintrovert/praxis/internal/jira"
	"github.com/clintrovert/praxis/pkg/types"
)

// Extractor runs one project's walk to completion, normalizes every issue,
// and classifies the outcome.
type Extractor struct {
	searcher    Searcher
	cfg         WalkerConfig
	keepPartial bool
	logger      *zap.Logger
}

// NewExtractor creates a project extractor. keepPartial controls whether
// rows accumulated before a mid-walk failure are retained in the result.
func NewExtractor(searcher Searcher, cfg WalkerConfig, keepPartial bool, logger *zap.Logger) *Extractor {
	return &Extractor{
		searcher:    searcher,
		cfg:         cfg,
		keepPartial: keepPartial,
		logger:      logger,
	}
}

// Extract walks one project and returns its finalized result. Failures are
// folded into the result; nothing escapes past here, so one broken project
// cannot take down the run.
func (e *Extractor) Extract(ctx context.Context, projectKey string) types.ProjectResult {
	result := types.ProjectResult{
		ProjectKey: projectKey,
		Rows:       []types.NormalizedRow{},
	}

	walker := NewWalker(e.searcher, projectKey, e.cfg, e.logger)
	err := walker.Walk(ctx, func(issue jira.Issue) error {
		result.Rows = append(result.Rows, Normalize(issue, e.searcher.BrowseURL(issue.Key)))
		return nil
	})

	switch {
	case err == nil && len(result.Rows) == 0:
		result.Status = types.StatusEmpty
	case err == nil:
		result.Status = types.StatusSuccess
	case jiraapi.IsAccessDenied(err):
		// Rows from a denied project are not trustworthy and must not
		// enter the consolidated report.
		result.Status = types.StatusAccessDenied
		result.Rows = nil
		result.Err = err
	default:
		result.Status = types.StatusError
		result.Err = err
		if e.keepPartial {
			result.Partial = len(result.Rows) > 0
		} else {
			result.Rows = nil
		}
	}

	result.RecordCount = len(result.Rows)
	return result
}
