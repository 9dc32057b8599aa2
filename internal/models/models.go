// Package models defines the core domain types for devease.
package models

// Account is a local user account as returned by the login endpoint.
type Account struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	Approved bool   `json:"approved"`
}

// LoginResult is the payload of a successful authentication call.
type LoginResult struct {
	Token    string `json:"token"`
	Email    string `json:"email"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	Approved bool   `json:"approved"`
}

// Account returns the account embedded in a login result.
func (r LoginResult) Account() Account {
	return Account{
		Email:    r.Email,
		Username: r.Username,
		IsAdmin:  r.IsAdmin,
		Approved: r.Approved,
	}
}

// ConnectResult is the payload of a successful provider connect call.
type ConnectResult struct {
	SessionID    string `json:"session_id"`
	Organization string `json:"organization"`
	ProjectCount int    `json:"project_count"`
}

// Project is a provider project. The name is the identifier.
type Project struct {
	Name string `json:"name"`
}

// Pipeline is one pipeline within a project, with its latest run summary.
type Pipeline struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	LatestStatus string `json:"latest_status"`
	LatestResult string `json:"latest_result"`
}

// Run is one execution of a pipeline.
type Run struct {
	ID        int    `json:"id"`
	State     string `json:"state,omitempty"`
	Result    string `json:"result,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Analytics holds aggregate counters and histograms for one project.
// Replaced wholesale when the active project changes, never merged.
type Analytics struct {
	TotalRuns           int            `json:"total_runs"`
	SuccessCount        int            `json:"success_count"`
	FailureCount        int            `json:"failure_count"`
	SuccessRate         float64        `json:"success_rate"`
	BuildTrend          map[string]int `json:"build_trend"`
	FailureDistribution map[string]int `json:"failure_distribution"`
	CodePushFrequency   map[string]int `json:"code_push_frequency"`
}

// StatusAllSuccessful is the provider's sentinel for a pipeline with no
// failed runs in the inspected window.
const StatusAllSuccessful = "All Builds Successful"

// FailedRun is one entry of a failure-intelligence response.
type FailedRun struct {
	RunID        int    `json:"run_id"`
	FailedTask   string `json:"failed_task"`
	ErrorMessage string `json:"error_message"`
	Timestamp    string `json:"timestamp"`
	LogsSummary  string `json:"logs_summary"`
}

// FailureInsight is the failure-intelligence payload for a pipeline.
type FailureInsight struct {
	PipelineID   int            `json:"pipeline_id"`
	PipelineName string         `json:"pipeline_name"`
	Status       string         `json:"status"`
	FailedRuns   []FailedRun    `json:"failed_runs"`
	Summary      map[string]int `json:"failure_summary,omitempty"`
	AISummary    string         `json:"ai_summary,omitempty"`
}

// Dashboard is a named grouping of resources.
type Dashboard struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedBy   string `json:"created_by"`
}

// Resource is a link owned by an account, scoped to a dashboard or a
// project+environment pair. Editable by its owner or an admin.
type Resource struct {
	ID           string `json:"id"`
	DashboardID  string `json:"dashboard_id,omitempty"`
	OwnerEmail   string `json:"owner_email"`
	Project      string `json:"project"`
	Environment  string `json:"environment"`
	Name         string `json:"name"`
	URL          string `json:"url"`
	ResourceType string `json:"resource_type,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// Editable reports whether the given account may modify the resource.
// The backend enforces this; the client only uses it for affordances.
func (r Resource) Editable(acct Account) bool {
	return acct.IsAdmin || r.OwnerEmail == acct.Email
}
