package types

// NormalizedRow is the flat, fixed-schema record emitted for one Jira issue.
// Every field is always populated: absent source data degrades to a
// documented fallback value instead of being omitted, so the report schema
// is stable across runs.
type NormalizedRow struct {
	ProjectKey              string
	IssueKey                string
	IssueType               string
	Summary                 string
	CreatedDate             string
	CreatedMonth            int
	CreatedYear             int
	UpdatedDate             string
	ReporterName            string
	ReporterAccountID       string
	AssigneeName            string
	AssigneeAccountID       string
	Status                  string
	Priority                string
	Resolution              string
	Components              string
	Labels                  string
	FixVersions             string
	LinkedIssueKeys         []string
	OriginalEstimateSeconds int
	BrowseURL               string
}
