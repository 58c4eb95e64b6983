package types

// ProjectStatus classifies the outcome of extracting a single project.
type ProjectStatus string

const (
	StatusSuccess      ProjectStatus = "SUCCESS"
	StatusEmpty        ProjectStatus = "EMPTY"
	StatusAccessDenied ProjectStatus = "ACCESS_DENIED"
	StatusError        ProjectStatus = "ERROR"
)

// ProjectResult is the finalized outcome of one project's extraction.
type ProjectResult struct {
	ProjectKey  string
	Status      ProjectStatus
	RecordCount int
	Rows        []NormalizedRow
	// Partial marks an ERROR result whose already-accumulated rows were kept.
	Partial bool
	Err     error
}

// RunSummary aggregates all project results for one invocation.
type RunSummary struct {
	ProjectsDiscovered int
	Succeeded          int
	Empty              int
	Denied             int
	Errored            int
	TotalRecords       int
	Results            []ProjectResult
	Rows               []NormalizedRow
}
