package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/devease/devease/internal/api"
	"github.com/devease/devease/internal/models"
	"github.com/devease/devease/internal/runcache"
	"github.com/devease/devease/internal/workflow"
)

type fakeBackend struct {
	runsCalls      int
	pipelinesCalls int
	insightCalls   int

	runsErr error
}

func (f *fakeBackend) Login(identifier, password string) (*models.LoginResult, error) {
	return &models.LoginResult{Token: "tok-1", Email: "dev@example.com", Username: "dev", Approved: true}, nil
}

func (f *fakeBackend) Register(email, username, password string) error { return nil }

func (f *fakeBackend) Connect(organization, pat string) (*models.ConnectResult, error) {
	return &models.ConnectResult{SessionID: "sess-1", Organization: organization, ProjectCount: 1}, nil
}

func (f *fakeBackend) Projects(sessionID string) ([]models.Project, error) {
	return []models.Project{{Name: "payments"}}, nil
}

func (f *fakeBackend) Pipelines(sessionID, project string) ([]models.Pipeline, error) {
	f.pipelinesCalls++
	return []models.Pipeline{
		{ID: 101, Name: "ci", LatestStatus: "completed", LatestResult: "failed"},
		{ID: 102, Name: "deploy", LatestStatus: "completed", LatestResult: "succeeded"},
	}, nil
}

func (f *fakeBackend) Runs(sessionID, project string, pipelineID int) ([]models.Run, error) {
	f.runsCalls++
	if f.runsErr != nil {
		return nil, f.runsErr
	}
	return []models.Run{
		{ID: 9, State: "completed", Result: "failed", CreatedAt: "2026-08-27T09:00:00Z"},
		{ID: 8, State: "completed", Result: "succeeded", CreatedAt: "2026-08-26T09:00:00Z"},
	}, nil
}

func (f *fakeBackend) Analytics(sessionID, project string) (*models.Analytics, error) {
	return &models.Analytics{TotalRuns: 2, SuccessCount: 1, FailureCount: 1, SuccessRate: 50}, nil
}

func (f *fakeBackend) ErrorIntelligence(sessionID, project string, pipelineID, runID int) (*models.FailureInsight, error) {
	f.insightCalls++
	return &models.FailureInsight{
		FailedRuns: []models.FailedRun{{RunID: 9, FailedTask: "Tests", ErrorMessage: "boom", Timestamp: "t", LogsSummary: "1 failed"}},
	}, nil
}

func (f *fakeBackend) Dashboards(token string) ([]models.Dashboard, error) {
	return []models.Dashboard{{ID: "d1", Name: "team"}}, nil
}

func (f *fakeBackend) CreateDashboard(token, name, description string) (*models.Dashboard, error) {
	return &models.Dashboard{ID: "d2", Name: name}, nil
}

func (f *fakeBackend) Resources(token, dashboardID, project, environment string) ([]models.Resource, error) {
	return nil, nil
}

func (f *fakeBackend) CreateResource(token string, res models.Resource) (*models.Resource, error) {
	return &res, nil
}

func (f *fakeBackend) UpdateResource(token string, res models.Resource) (*models.Resource, error) {
	return &res, nil
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// feed applies a message and returns the command, keeping the test's
// hands on the single-threaded update loop.
func feed(a *App, msg tea.Msg) tea.Cmd {
	_, cmd := a.Update(msg)
	return cmd
}

func approvedLogin() loginResultMsg {
	return loginResultMsg{result: &models.LoginResult{
		Token: "tok-1", Email: "dev@example.com", Username: "dev", Approved: true,
	}}
}

// toDashboard drives the app from cold start to the project dashboard
// with pipelines loaded.
func toDashboard(t *testing.T, f *fakeBackend) *App {
	t.Helper()
	a := newApp(f)
	feed(a, approvedLogin())
	if a.machine.Step() != workflow.StepHome {
		t.Fatalf("after login: step = %v", a.machine.Step())
	}
	feed(a, keyRune('c'))
	feed(a, connectResultMsg{result: &models.ConnectResult{SessionID: "sess-1", Organization: "org", ProjectCount: 1}})
	feed(a, projectsLoadedMsg{sessionID: "sess-1", projects: []models.Project{{Name: "payments"}}})
	if a.machine.Step() != workflow.StepProjectList {
		t.Fatalf("after connect: step = %v", a.machine.Step())
	}
	feed(a, tea.KeyMsg{Type: tea.KeyEnter})
	if a.machine.Step() != workflow.StepProjectDashboard {
		t.Fatalf("after select: step = %v", a.machine.Step())
	}
	feed(a, pipelinesLoadedMsg{project: "payments", pipelines: []models.Pipeline{
		{ID: 101, Name: "ci", LatestStatus: "completed", LatestResult: "failed"},
		{ID: 102, Name: "deploy", LatestStatus: "completed", LatestResult: "succeeded"},
	}})
	return a
}

func TestLoginPendingThenApproved(t *testing.T) {
	a := newApp(&fakeBackend{})
	feed(a, loginResultMsg{result: &models.LoginResult{Token: "tok-1", Username: "dev", Approved: false}})
	if a.machine.Step() != workflow.StepAccountPending {
		t.Fatalf("unapproved login: step = %v", a.machine.Step())
	}
	cmd := feed(a, approvedLogin())
	if a.machine.Step() != workflow.StepHome {
		t.Fatalf("approved re-login: step = %v", a.machine.Step())
	}
	if cmd == nil {
		t.Fatal("landing on Home should fetch dashboards")
	}
	feed(a, cmd())
	if len(a.dashboards) != 1 {
		t.Fatalf("dashboard list not populated, got %d", len(a.dashboards))
	}
}

func TestExpandFetchesRunsOnce(t *testing.T) {
	f := &fakeBackend{}
	a := toDashboard(t, f)

	cmd := feed(a, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("first expand should issue a fetch")
	}
	feed(a, cmd())
	if f.runsCalls != 1 {
		t.Fatalf("runs fetched %d times, want 1", f.runsCalls)
	}

	// Collapse and re-expand: cached, no new fetch.
	feed(a, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd := feed(a, tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Fatal("re-expand should not issue a fetch")
	}
	if f.runsCalls != 1 {
		t.Fatalf("runs fetched %d times after re-expand, want 1", f.runsCalls)
	}
	if runs, state := a.cache.Get(101); state != runcache.Populated || len(runs) != 2 {
		t.Fatalf("cache state = %v, %d runs", state, len(runs))
	}
}

func TestExpandWhileLoadingDoesNotDoubleFetch(t *testing.T) {
	f := &fakeBackend{}
	a := toDashboard(t, f)

	cmd := feed(a, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("first expand should issue a fetch")
	}
	// Collapse and expand again before the first fetch completes.
	feed(a, tea.KeyMsg{Type: tea.KeyEnter})
	if again := feed(a, tea.KeyMsg{Type: tea.KeyEnter}); again != nil {
		t.Fatal("expand during in-flight load issued a second fetch")
	}
	// The original completion still lands and populates the entry.
	feed(a, cmd())
	if _, state := a.cache.Get(101); state != runcache.Populated {
		t.Fatalf("cache state = %v, want populated", state)
	}
}

func TestStalePipelinesForOldProjectDropped(t *testing.T) {
	a := toDashboard(t, &fakeBackend{})

	// Leave for the project list, then pick no project yet. A late
	// completion for the old project must not resurrect its data.
	feed(a, tea.KeyMsg{Type: tea.KeyEsc})
	feed(a, pipelinesLoadedMsg{project: "payments", pipelines: []models.Pipeline{{ID: 999, Name: "ghost"}}})
	if len(a.pipelines) != 0 {
		t.Fatalf("stale pipelines applied: %d entries", len(a.pipelines))
	}
}

func TestStaleProjectsForOldSessionDropped(t *testing.T) {
	a := toDashboard(t, &fakeBackend{})
	feed(a, projectsLoadedMsg{sessionID: "sess-0", projects: []models.Project{{Name: "ghost"}}})
	for _, p := range a.projects {
		if p.Name == "ghost" {
			t.Fatal("projects from a superseded session were applied")
		}
	}
}

func TestUnauthorizedFallsBackToConnect(t *testing.T) {
	f := &fakeBackend{runsErr: &api.APIError{Kind: api.KindUnauthorized, StatusCode: 401, Message: "session expired"}}
	a := toDashboard(t, f)

	cmd := feed(a, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expand should issue a fetch")
	}
	feed(a, cmd())

	if a.machine.Step() != workflow.StepProviderConnect {
		t.Fatalf("after 401: step = %v", a.machine.Step())
	}
	creds := a.creds.Get()
	if creds.ProviderSessionID != "" {
		t.Error("provider session survived a 401")
	}
	if creds.AccountToken != "tok-1" {
		t.Errorf("account token lost on provider 401: %q", creds.AccountToken)
	}
	if a.cache.Len() != 0 {
		t.Errorf("run cache not cleared, %d entries", a.cache.Len())
	}
}

func TestRunsFetchFailureResetsCacheEntry(t *testing.T) {
	f := &fakeBackend{runsErr: &api.APIError{Kind: api.KindNetwork, Message: "connection refused"}}
	a := toDashboard(t, f)

	cmd := feed(a, tea.KeyMsg{Type: tea.KeyEnter})
	feed(a, cmd())
	if _, state := a.cache.Get(101); state != runcache.Absent {
		t.Fatalf("cache state after failed fetch = %v, want absent", state)
	}

	// The entry is absent again, so the next expand retries the fetch.
	f.runsErr = nil
	if cmd := feed(a, tea.KeyMsg{Type: tea.KeyEnter}); cmd == nil {
		t.Fatal("expand after failure should retry the fetch")
	}
	// The retry command was issued but not executed yet.
	if f.runsCalls != 1 {
		t.Fatalf("unexpected call count %d", f.runsCalls)
	}
}

func TestInsightOpensModal(t *testing.T) {
	f := &fakeBackend{}
	a := toDashboard(t, f)

	cmd := feed(a, tea.KeyMsg{Type: tea.KeyEnter})
	feed(a, cmd())

	cmd = feed(a, keyRune('i'))
	if cmd == nil {
		t.Fatal("insight key should issue a fetch")
	}
	feed(a, cmd())
	if !a.showModal {
		t.Fatal("modal not shown after insight loaded")
	}
	if f.insightCalls != 1 {
		t.Fatalf("insight fetched %d times, want 1", f.insightCalls)
	}

	feed(a, tea.KeyMsg{Type: tea.KeyEsc})
	if a.showModal {
		t.Fatal("esc should close the modal")
	}
}

func TestCancelConnectReturnsHome(t *testing.T) {
	a := newApp(&fakeBackend{})
	feed(a, approvedLogin())
	feed(a, keyRune('c'))
	if a.machine.Step() != workflow.StepProviderConnect {
		t.Fatalf("step = %v", a.machine.Step())
	}
	feed(a, tea.KeyMsg{Type: tea.KeyEsc})
	if a.machine.Step() != workflow.StepHome {
		t.Fatalf("esc from connect: step = %v", a.machine.Step())
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	a := toDashboard(t, &fakeBackend{})
	feed(a, keyRune('l'))
	if a.machine.Step() != workflow.StepUnauthenticated {
		t.Fatalf("after logout: step = %v", a.machine.Step())
	}
	creds := a.creds.Get()
	if creds.AccountToken != "" || creds.ProviderSessionID != "" {
		t.Error("credentials survived logout")
	}
	if len(a.pipelines) != 0 || len(a.projects) != 0 {
		t.Error("view state survived logout")
	}
}
