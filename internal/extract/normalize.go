package extract

import (
	"strings"
	"time"

	jira "github.com/andygrunwald/go-jira"

	"github.com/clintrovert/praxis/pkg/types"
)

// Fallback values for absent issue data. A row never drops a column; every
// unresolvable field degrades to one of these.
const (
	fallbackIssueType  = "N/A (Corrupt)"
	fallbackSummary    = "No Summary"
	fallbackStatus     = "N/A"
	fallbackPriority   = "Normal"
	fallbackResolution = "Unresolved"
	fallbackReporter   = "Unknown"
	fallbackAssignee   = "Unassigned"
	fallbackDate       = "N/A"
)

const dateLayout = "2006-01-02"

// Normalize flattens one raw Jira issue into the report row schema. It never
// fails: a malformed issue yields fallback values, not an error, so one bad
// record cannot abort the extraction of a whole page.
func Normalize(issue jira.Issue, browseURL string) types.NormalizedRow {
	row := types.NormalizedRow{
		IssueKey:        issue.Key,
		IssueType:       fallbackIssueType,
		Summary:         fallbackSummary,
		CreatedDate:     fallbackDate,
		UpdatedDate:     fallbackDate,
		ReporterName:    fallbackReporter,
		AssigneeName:    fallbackAssignee,
		Status:          fallbackStatus,
		Priority:        fallbackPriority,
		Resolution:      fallbackResolution,
		LinkedIssueKeys: []string{},
		BrowseURL:       browseURL,
	}

	fields := issue.Fields
	if fields == nil {
		return row
	}

	row.ProjectKey = fields.Project.Key

	if fields.Type.Name != "" {
		row.IssueType = fields.Type.Name
	} else if fields.Type.ID != "" {
		row.IssueType = fields.Type.ID
	}
	if fields.Summary != "" {
		row.Summary = fields.Summary
	}
	if fields.Status != nil && fields.Status.Name != "" {
		row.Status = fields.Status.Name
	}
	if fields.Priority != nil && fields.Priority.Name != "" {
		row.Priority = fields.Priority.Name
	}
	if fields.Resolution != nil && fields.Resolution.Name != "" {
		row.Resolution = fields.Resolution.Name
	}

	if fields.Reporter != nil {
		row.ReporterAccountID = fields.Reporter.AccountID
		row.ReporterName = displayName(fields.Reporter, fallbackReporter)
	}
	if fields.Assignee != nil {
		row.AssigneeAccountID = fields.Assignee.AccountID
		row.AssigneeName = displayName(fields.Assignee, fallbackAssignee)
	}

	if created := time.Time(fields.Created); !created.IsZero() {
		row.CreatedDate = created.Format(dateLayout)
		row.CreatedMonth = int(created.Month())
		row.CreatedYear = created.Year()
	}
	if updated := time.Time(fields.Updated); !updated.IsZero() {
		row.UpdatedDate = updated.Format(dateLayout)
	}

	row.Components = joinComponentNames(fields.Components)
	row.Labels = strings.Join(fields.Labels, ", ")
	row.FixVersions = joinVersionNames(fields.FixVersions)
	row.LinkedIssueKeys = flattenLinks(fields.IssueLinks)
	row.OriginalEstimateSeconds = fields.TimeOriginalEstimate

	return row
}

// displayName prefers the human-readable name and falls back to the
// permanent account ID, so deactivated accounts still yield a usable value.
func displayName(user *jira.User, fallback string) string {
	if user.DisplayName != "" {
		return user.DisplayName
	}
	if user.AccountID != "" {
		return user.AccountID
	}
	return fallback
}

// flattenLinks collects linked issue keys in both directions, outward
// first, preserving API order within each direction.
func flattenLinks(links []*jira.IssueLink) []string {
	keys := make([]string, 0, len(links))
	for _, link := range links {
		if link != nil && link.OutwardIssue != nil && link.OutwardIssue.Key != "" {
			keys = append(keys, link.OutwardIssue.Key)
		}
	}
	for _, link := range links {
		if link != nil && link.InwardIssue != nil && link.InwardIssue.Key != "" {
			keys = append(keys, link.InwardIssue.Key)
		}
	}
	return keys
}

func joinComponentNames(components []*jira.Component) string {
	names := make([]string, 0, len(components))
	for _, component := range components {
		if component != nil && component.Name != "" {
			names = append(names, component.Name)
		}
	}
	return strings.Join(names, ", ")
}

func joinVersionNames(versions []*jira.FixVersion) string {
	names := make([]string, 0, len(versions))
	for _, version := range versions {
		if version != nil && version.Name != "" {
			names = append(names, version.Name)
		}
	}
	return strings.Join(names, ", ")
}
