package jira

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	jira "github.com/andygrunwald/go-jira"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// SearchFields is the field set requested for every issue, matching the
// columns of the consolidated report.
var SearchFields = []string{
	"key", "summary", "status", "created", "updated", "id", "project",
	"issuetype", "reporter", "assignee", "priority", "components", "labels",
	"resolution", "fixVersions", "issuelinks", "timeoriginalestimate",
}

// Options configures the Jira API client.
type Options struct {
	BaseURL  string
	Email    string
	APIToken string
	// ProxyURL is passed through to the HTTP transport unchanged.
	ProxyURL string
	// RequestsPerSecond caps the outbound request rate for the whole
	// process, regardless of how many project walks run concurrently.
	RequestsPerSecond float64
}

// Client wraps the Jira REST API behind the operations the extractor needs.
// All requests go through one shared rate limiter so the per-identity
// budget holds even with concurrent project walks.
type Client struct {
	client  *jira.Client
	limiter *rate.Limiter
	logger  *zap.Logger
	baseURL string
}

// NewClient creates a new Jira client.
func NewClient(opts Options, logger *zap.Logger) (*Client, error) {
	tp := jira.BasicAuthTransport{
		Username: opts.Email,
		Password: opts.APIToken,
	}

	if opts.ProxyURL != "" {
		proxy, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse proxy URL: %w", err)
		}
		tp.Transport = &http.Transport{Proxy: http.ProxyURL(proxy)}
	}

	client, err := jira.NewClient(tp.Client(), opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create jira client: %w", err)
	}

	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}

	return &Client{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  logger,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
	}, nil
}

// BrowseURL returns the human-facing URL for an issue key.
func (c *Client) BrowseURL(issueKey string) string {
	return c.baseURL + "/browse/" + issueKey
}

// CheckAuth verifies the configured identity against the myself endpoint.
// A 401/403 here means the credentials themselves are bad, which is fatal
// for the whole run rather than a per-project condition.
func (c *Client) CheckAuth(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	self, resp, err := c.client.User.GetSelfWithContext(ctx)
	if err != nil {
		werr := wrapAPIError(resp, "myself", err)
		if IsAccessDenied(werr) {
			return fmt.Errorf("%w: check JIRA_EMAIL and JIRA_API_TOKEN", ErrAuthentication)
		}
		return werr
	}

	c.logger.Info("authenticated",
		zap.String("account_id", self.AccountID),
		zap.String("display_name", self.DisplayName),
	)
	return nil
}

// ListProjectKeys returns the keys of every project visible to the
// authenticated identity, in catalog order.
func (c *Client) ListProjectKeys(ctx context.Context) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	list, resp, err := c.client.Project.GetListWithContext(ctx)
	if err != nil {
		werr := wrapAPIError(resp, "project catalog", err)
		if IsAccessDenied(werr) {
			return nil, fmt.Errorf("%w: project catalog rejected the identity", ErrAuthentication)
		}
		return nil, werr
	}

	keys := make([]string, 0, len(*list))
	for _, project := range *list {
		keys = append(keys, project.Key)
	}
	return keys, nil
}

// SearchPage executes one JQL search request and returns at most pageSize
// issues. Pagination is the caller's concern: every call starts at offset
// zero because the walker moves the window through the JQL itself.
func (c *Client) SearchPage(ctx context.Context, jql string, pageSize int) ([]jira.Issue, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	opts := &jira.SearchOptions{
		MaxResults:    pageSize,
		Fields:        SearchFields,
		ValidateQuery: "strict",
	}
	issues, resp, err := c.client.Issue.SearchWithContext(ctx, jql, opts)
	if err != nil {
		return nil, wrapAPIError(resp, "search", err)
	}
	return issues, nil
}

// wrapAPIError converts a failed go-jira call into the local error taxonomy.
func wrapAPIError(resp *jira.Response, endpoint string, err error) error {
	if resp != nil && resp.Response != nil && resp.StatusCode >= http.StatusBadRequest {
		return &StatusError{StatusCode: resp.StatusCode, Endpoint: endpoint}
	}
	return fmt.Errorf("jira: %s request failed: %w", endpoint, err)
}
