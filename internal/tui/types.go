package tui

import (
	"github.com/devease/devease/internal/insight"
	"github.com/devease/devease/internal/models"
)

// backendClient is the slice of the API client the dashboard uses. It is
// an interface so update-loop tests can drive the orchestrator without a
// server.
type backendClient interface {
	Login(identifier, password string) (*models.LoginResult, error)
	Register(email, username, password string) error
	Connect(organization, pat string) (*models.ConnectResult, error)
	Projects(sessionID string) ([]models.Project, error)
	Pipelines(sessionID, project string) ([]models.Pipeline, error)
	Runs(sessionID, project string, pipelineID int) ([]models.Run, error)
	Analytics(sessionID, project string) (*models.Analytics, error)
	ErrorIntelligence(sessionID, project string, pipelineID, runID int) (*models.FailureInsight, error)
	Dashboards(token string) ([]models.Dashboard, error)
	CreateDashboard(token, name, description string) (*models.Dashboard, error)
	Resources(token, dashboardID, project, environment string) ([]models.Resource, error)
	CreateResource(token string, res models.Resource) (*models.Resource, error)
	UpdateResource(token string, res models.Resource) (*models.Resource, error)
}

// Completion messages. Each carries the key it was fetched under so the
// handler can drop completions that a newer selection or session has
// superseded.

type loginResultMsg struct {
	result *models.LoginResult
	err    error
}

type registerResultMsg struct {
	err error
}

type homeDataMsg struct {
	dashboards []models.Dashboard
	resources  []models.Resource
	err        error
}

type dashboardSavedMsg struct {
	err error
}

type resourceSavedMsg struct {
	err error
}

type connectResultMsg struct {
	result *models.ConnectResult
	err    error
}

type projectsLoadedMsg struct {
	sessionID string
	projects  []models.Project
	err       error
}

type pipelinesLoadedMsg struct {
	project   string
	pipelines []models.Pipeline
	err       error
}

type analyticsLoadedMsg struct {
	project   string
	analytics *models.Analytics
	err       error
}

type runsLoadedMsg struct {
	project    string
	pipelineID int
	runs       []models.Run
	err        error
}

type insightLoadedMsg struct {
	pipelineID  int
	runID       int
	explanation *insight.Explanation
	err         error
}
