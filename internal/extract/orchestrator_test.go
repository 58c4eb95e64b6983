package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"

	jira "github.com/andygrunwald/go-jira"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	jiraapi "github.com/clintrovert/praxis/internal/jira"
	"github.com/clintrovert/praxis/pkg/types"
)

type fakeLister struct {
	keys []string
	err  error
}

func (l *fakeLister) ListProjectKeys(context.Context) ([]string, error) {
	return l.keys, l.err
}

// routingSearcher serves a separate scripted response sequence per project,
// so concurrent walks stay isolated.
type routingSearcher struct {
	mu      sync.Mutex
	scripts map[string][]searchResponse
}

func (s *routingSearcher) SearchPage(_ context.Context, jql string, _ int) ([]jira.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, responses := range s.scripts {
		if !strings.Contains(jql, fmt.Sprintf("project = %q", key)) {
			continue
		}
		if len(responses) == 0 {
			return nil, nil
		}
		s.scripts[key] = responses[1:]
		return responses[0].issues, responses[0].err
	}
	return nil, nil
}

func (s *routingSearcher) BrowseURL(issueKey string) string {
	return "https://tracker.example.com/browse/" + issueKey
}

func TestOrchestratorSmallFullRun(t *testing.T) {
	t.Parallel()

	searcher := &routingSearcher{scripts: map[string][]searchResponse{
		"SDI": {
			{issues: issuePage("SDI", 1000, 100)},
			{issues: issuePage("SDI", 543, 43)},
		},
		"MBD": {
			{issues: nil},
		},
	}}
	extractor := NewExtractor(searcher, walkerConfig(100), true, zap.NewNop())
	orchestrator := NewOrchestrator(&fakeLister{keys: []string{"SDI", "MBD"}}, extractor, 1, zap.NewNop())

	summary, err := orchestrator.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.ProjectsDiscovered)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Empty)
	assert.Zero(t, summary.Denied)
	assert.Zero(t, summary.Errored)
	assert.Equal(t, 143, summary.TotalRecords)
	assert.Len(t, summary.Rows, 143)
	require.Len(t, summary.Results, 2)
	assert.Equal(t, types.StatusSuccess, summary.Results[0].Status)
	assert.Equal(t, types.StatusEmpty, summary.Results[1].Status)
}

func TestOrchestratorAccessDenialIsolation(t *testing.T) {
	t.Parallel()

	searcher := &routingSearcher{scripts: map[string][]searchResponse{
		"AAA": {{issues: issuePage("AAA", 105, 5)}},
		"BBB": {{err: &jiraapi.StatusError{StatusCode: http.StatusForbidden, Endpoint: "search"}}},
		"CCC": {{issues: issuePage("CCC", 203, 3)}},
	}}
	extractor := NewExtractor(searcher, walkerConfig(100), true, zap.NewNop())
	orchestrator := NewOrchestrator(&fakeLister{keys: []string{"AAA", "BBB", "CCC"}}, extractor, 1, zap.NewNop())

	summary, err := orchestrator.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Denied)
	assert.Equal(t, 8, summary.TotalRecords)

	denied := summary.Results[1]
	assert.Equal(t, "BBB", denied.ProjectKey)
	assert.Equal(t, types.StatusAccessDenied, denied.Status)
	assert.Empty(t, denied.Rows)

	for _, row := range summary.Rows {
		assert.NotEqual(t, "BBB", row.ProjectKey)
	}
}

func TestOrchestratorDiscoveryFailureAborts(t *testing.T) {
	t.Parallel()

	orchestrator := NewOrchestrator(
		&fakeLister{err: errors.New("boom")},
		NewExtractor(&routingSearcher{}, walkerConfig(100), true, zap.NewNop()),
		1,
		zap.NewNop(),
	)

	_, err := orchestrator.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to discover projects")
}

func TestOrchestratorRowsFollowDiscoveryOrder(t *testing.T) {
	t.Parallel()

	searcher := &routingSearcher{scripts: map[string][]searchResponse{
		"AAA": {{issues: issuePage("AAA", 102, 2)}},
		"BBB": {{issues: issuePage("BBB", 202, 2)}},
	}}
	extractor := NewExtractor(searcher, walkerConfig(100), true, zap.NewNop())
	orchestrator := NewOrchestrator(&fakeLister{keys: []string{"AAA", "BBB"}}, extractor, 1, zap.NewNop())

	summary, err := orchestrator.Run(context.Background())
	require.NoError(t, err)

	keys := make([]string, 0, len(summary.Rows))
	for _, row := range summary.Rows {
		keys = append(keys, row.IssueKey)
	}
	assert.Equal(t, []string{"AAA-102", "AAA-101", "BBB-202", "BBB-201"}, keys)
}

func TestOrchestratorConcurrentWorkers(t *testing.T) {
	t.Parallel()

	searcher := &routingSearcher{scripts: map[string][]searchResponse{
		"AAA": {{issues: issuePage("AAA", 110, 10)}},
		"BBB": {{issues: issuePage("BBB", 210, 10)}},
		"CCC": {{issues: nil}},
		"DDD": {{err: &jiraapi.StatusError{StatusCode: http.StatusForbidden, Endpoint: "search"}}},
	}}
	extractor := NewExtractor(searcher, walkerConfig(100), true, zap.NewNop())
	orchestrator := NewOrchestrator(
		&fakeLister{keys: []string{"AAA", "BBB", "CCC", "DDD"}},
		extractor,
		3,
		zap.NewNop(),
	)

	summary, err := orchestrator.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, summary.ProjectsDiscovered)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Empty)
	assert.Equal(t, 1, summary.Denied)
	assert.Equal(t, 20, summary.TotalRecords)

	// Per-project ordering holds even when walks run concurrently.
	keys := make([]string, 0, len(summary.Rows))
	for _, row := range summary.Rows {
		keys = append(keys, row.IssueKey)
	}
	assert.Equal(t, "AAA-110", keys[0])
	assert.Equal(t, "BBB-210", keys[10])
}
