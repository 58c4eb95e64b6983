package extract

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	jira "github.com/andygrunwald/go-jira"
	"go.uber.org/zap"

	jiraapi "github.com/clintrovert/praxis/internal/jira"
	"github.com/clintrovert/praxis/internal/retry"
)

// ErrPageLimitExceeded signals that a project walk hit the page ceiling
// before the API reported the end of the result set.
var ErrPageLimitExceeded = errors.New("extract: page limit exceeded")

// ErrRecordLimitExceeded signals that a project accumulated more records
// than the configured safety limit.
var ErrRecordLimitExceeded = errors.New("extract: record limit exceeded")

// errCursorStalled guards against an API that keeps returning issues at or
// above the current cursor; without it the walk could loop forever.
var errCursorStalled = errors.New("extract: pagination cursor did not advance")

// Searcher is the Jira surface the extraction layer depends on.
type Searcher interface {
	SearchPage(ctx context.Context, jql string, pageSize int) ([]jira.Issue, error)
	BrowseURL(issueKey string) string
}

// WalkerConfig bounds a project walk.
type WalkerConfig struct {
	IssueTypes []string
	PageSize   int
	MaxPages   int
	MaxRecords int
	Retry      retry.Policy
}

// Walker pages through one project's issues using a strictly decreasing
// issue-ID cursor. Offset pagination silently truncates, loops, or skips on
// large or drifting result sets; anchoring every page below the lowest ID
// already seen keeps the walk complete and finite regardless of issues
// created while the scan runs.
type Walker struct {
	searcher   Searcher
	projectKey string
	cfg        WalkerConfig
	logger     *zap.Logger
}

// NewWalker creates a walker for a single project.
func NewWalker(searcher Searcher, projectKey string, cfg WalkerConfig, logger *zap.Logger) *Walker {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 500
	}
	if cfg.MaxRecords <= 0 {
		cfg.MaxRecords = 50000
	}
	return &Walker{
		searcher:   searcher,
		projectKey: projectKey,
		cfg:        cfg,
		logger:     logger,
	}
}

// Walk fetches every page for the project and passes each previously unseen
// issue to yield, in emission order. It returns nil on normal termination
// (a short or empty page) and the terminal failure otherwise.
func (w *Walker) Walk(ctx context.Context, yield func(jira.Issue) error) error {
	seen := make(map[string]struct{})
	var cursor int64
	started := false

	for page := 0; ; page++ {
		if page >= w.cfg.MaxPages {
			return fmt.Errorf("%w: %d pages fetched for %s", ErrPageLimitExceeded, page, w.projectKey)
		}
		if len(seen) >= w.cfg.MaxRecords {
			return fmt.Errorf("%w: %d records fetched for %s", ErrRecordLimitExceeded, len(seen), w.projectKey)
		}

		jql := w.pageJQL(cursor, started)

		var issues []jira.Issue
		err := w.cfg.Retry.Do(ctx, func() error {
			batch, fetchErr := w.searcher.SearchPage(ctx, jql, w.cfg.PageSize)
			if fetchErr != nil {
				if jiraapi.IsTransient(fetchErr) {
					w.logger.Warn("transient page fetch failure, retrying",
						zap.String("project", w.projectKey),
						zap.Int("page", page),
						zap.Error(fetchErr),
					)
					return fetchErr
				}
				return retry.Permanent(fetchErr)
			}
			issues = batch
			return nil
		})
		if err != nil {
			return err
		}

		if len(issues) == 0 {
			return nil
		}

		lowest, err := lowestIssueID(issues)
		if err != nil {
			return err
		}
		if started && lowest >= cursor {
			return fmt.Errorf("%w: cursor %d, lowest page ID %d", errCursorStalled, cursor, lowest)
		}
		cursor = lowest
		started = true

		for _, issue := range issues {
			if _, ok := seen[issue.Key]; ok {
				continue
			}
			seen[issue.Key] = struct{}{}
			if err := yield(issue); err != nil {
				return err
			}
		}

		// A short page means the result set is exhausted.
		if len(issues) < w.cfg.PageSize {
			return nil
		}
	}
}

// pageJQL builds the search query for the next page. The first page is
// unfiltered; afterwards the window is anchored strictly below the cursor.
func (w *Walker) pageJQL(cursor int64, started bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "project = %q", w.projectKey)
	if len(w.cfg.IssueTypes) > 0 {
		quoted := make([]string, 0, len(w.cfg.IssueTypes))
		for _, issueType := range w.cfg.IssueTypes {
			quoted = append(quoted, strconv.Quote(issueType))
		}
		fmt.Fprintf(&sb, " AND issuetype in (%s)", strings.Join(quoted, ", "))
	}
	if started {
		fmt.Fprintf(&sb, " AND id < %d", cursor)
	}
	sb.WriteString(" ORDER BY id DESC")
	return sb.String()
}

func lowestIssueID(issues []jira.Issue) (int64, error) {
	lowest := int64(math.MaxInt64)
	for i := range issues {
		id, err := strconv.ParseInt(issues[i].ID, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("extract: issue %s has non-numeric ID %q: %w", issues[i].Key, issues[i].ID, err)
		}
		if id < lowest {
			lowest = id
		}
	}
	return lowest, nil
}
