package workflow

import (
	"errors"
	"testing"

	"github.com/devease/devease/internal/models"
	"github.com/devease/devease/internal/runcache"
	"github.com/devease/devease/internal/session"
)

func newTestMachine() (*Machine, *session.Store, *runcache.Cache) {
	creds := session.NewStore()
	runs := runcache.New()
	return New(creds, runs), creds, runs
}

func login(t *testing.T, m *Machine, approved bool) {
	t.Helper()
	step := m.LoginSucceeded(models.LoginResult{
		Token:    "tok-1",
		Email:    "dev@example.com",
		Username: "dev",
		Approved: approved,
	})
	want := StepHome
	if !approved {
		want = StepAccountPending
	}
	if step != want {
		t.Fatalf("login landed on %v, want %v", step, want)
	}
}

func connect(t *testing.T, m *Machine) {
	t.Helper()
	if err := m.OpenProvider(); err != nil {
		t.Fatalf("OpenProvider: %v", err)
	}
	if err := m.ConnectSucceeded("sess-1"); err != nil {
		t.Fatalf("ConnectSucceeded: %v", err)
	}
}

func TestUnapprovedLoginLandsOnPending(t *testing.T) {
	m, creds, _ := newTestMachine()
	login(t, m, false)

	if !creds.Get().HasAccount() {
		t.Error("pending accounts still hold their token")
	}
	if err := m.OpenProvider(); !errors.Is(err, ErrWrongStep) {
		t.Errorf("provider workflow must be gated while pending, got %v", err)
	}

	// External approval happened; a second login attempt goes through.
	login(t, m, true)
	if m.Step() != StepHome {
		t.Errorf("approved re-login should land on Home, got %v", m.Step())
	}
}

func TestFullHappyPath(t *testing.T) {
	m, creds, _ := newTestMachine()
	login(t, m, true)
	connect(t, m)

	if m.Step() != StepProjectList {
		t.Fatalf("expected project list, got %v", m.Step())
	}
	if creds.Get().ProviderSessionID != "sess-1" {
		t.Fatalf("provider session not stored")
	}

	if err := m.SelectProject("payments"); err != nil {
		t.Fatalf("SelectProject: %v", err)
	}
	if m.Step() != StepProjectDashboard || m.ActiveProject() != "payments" {
		t.Errorf("expected payments dashboard, got %v / %q", m.Step(), m.ActiveProject())
	}
}

func TestBackDiscardsProjectState(t *testing.T) {
	m, _, runs := newTestMachine()
	login(t, m, true)
	connect(t, m)
	if err := m.SelectProject("payments"); err != nil {
		t.Fatal(err)
	}

	runs.EnsureLoaded(1)
	runs.Complete(1, []models.Run{{ID: 5}})

	if err := m.Back(); err != nil {
		t.Fatalf("Back: %v", err)
	}
	if m.Step() != StepProjectList || m.ActiveProject() != "" {
		t.Errorf("expected project list with no selection, got %v / %q", m.Step(), m.ActiveProject())
	}
	if runs.Len() != 0 {
		t.Error("run history of the abandoned project must be discarded")
	}
}

func TestProjectSwitchDropsCachedRuns(t *testing.T) {
	m, _, runs := newTestMachine()
	login(t, m, true)
	connect(t, m)

	if err := m.SelectProject("a"); err != nil {
		t.Fatal(err)
	}
	runs.EnsureLoaded(1)
	runs.Complete(1, []models.Run{{ID: 5}})

	if err := m.SelectProject("b"); err != nil {
		t.Fatal(err)
	}
	if err := m.SelectProject("a"); err != nil {
		t.Fatal(err)
	}

	// Returning to A must issue fresh fetches, not serve B-era data.
	if !runs.EnsureLoaded(1) {
		t.Error("runs of project A should have been invalidated on switch")
	}
}

func TestUnauthorizedFallsBackToConnect(t *testing.T) {
	m, creds, runs := newTestMachine()
	login(t, m, true)
	connect(t, m)
	if err := m.SelectProject("payments"); err != nil {
		t.Fatal(err)
	}
	runs.EnsureLoaded(1)
	runs.Complete(1, []models.Run{{ID: 5}})

	m.HandleUnauthorized()

	if m.Step() != StepProviderConnect {
		t.Fatalf("expected connect step, got %v", m.Step())
	}
	got := creds.Get()
	if got.HasProvider() {
		t.Error("provider session must be cleared on session expiry")
	}
	if got.AccountToken != "tok-1" {
		t.Errorf("account token must survive provider expiry, got %q", got.AccountToken)
	}
	if runs.Len() != 0 {
		t.Error("provider-scoped cache must be cleared")
	}
}

func TestUnauthorizedOutsideProviderStepsIsIgnored(t *testing.T) {
	m, creds, _ := newTestMachine()
	login(t, m, true)

	m.HandleUnauthorized()
	if m.Step() != StepHome {
		t.Errorf("unauthorized on Home must not move the machine, got %v", m.Step())
	}
	if !creds.Get().HasAccount() {
		t.Error("token untouched")
	}
}

func TestCancelConnectReturnsHome(t *testing.T) {
	m, creds, _ := newTestMachine()
	login(t, m, true)
	if err := m.OpenProvider(); err != nil {
		t.Fatal(err)
	}
	if err := m.CancelConnect(); err != nil {
		t.Fatal(err)
	}
	if m.Step() != StepHome {
		t.Errorf("cancel must land on Home, got %v", m.Step())
	}
	if !creds.Get().HasAccount() {
		t.Error("account token must survive a cancelled connect")
	}

	if err := m.CancelConnect(); !errors.Is(err, ErrWrongStep) {
		t.Errorf("cancel outside the connect step: got %v", err)
	}
}

func TestStaleActionsAreRejected(t *testing.T) {
	m, creds, _ := newTestMachine()
	login(t, m, true)
	connect(t, m)

	// Session cleared out from under a queued UI action.
	creds.ClearProvider()
	if err := m.SelectProject("payments"); !errors.Is(err, ErrNoProviderSession) {
		t.Errorf("expected ErrNoProviderSession, got %v", err)
	}
	if m.Step() != StepProjectList {
		t.Errorf("rejected transition must not change the step, got %v", m.Step())
	}
}

func TestConnectDiscardsPreviousSessionState(t *testing.T) {
	m, _, runs := newTestMachine()
	login(t, m, true)
	connect(t, m)
	if err := m.SelectProject("a"); err != nil {
		t.Fatal(err)
	}
	runs.EnsureLoaded(1)
	runs.Complete(1, []models.Run{{ID: 5}})

	// Expiry, then reconnect under a new session id.
	m.HandleUnauthorized()
	if err := m.ConnectSucceeded("sess-2"); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if runs.Len() != 0 {
		t.Error("reconnect must not carry over the old session's cache")
	}
	if m.ActiveProject() != "" {
		t.Error("reconnect must clear the project selection")
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	m, creds, runs := newTestMachine()
	login(t, m, true)
	connect(t, m)
	runs.EnsureLoaded(1)

	m.Logout()
	if m.Step() != StepUnauthenticated || m.Account() != nil {
		t.Errorf("expected unauthenticated machine, got %v", m.Step())
	}
	got := creds.Get()
	if got.HasAccount() || got.HasProvider() {
		t.Errorf("credentials must be cleared, got %+v", got)
	}
	if runs.Len() != 0 {
		t.Error("cache must be cleared on logout")
	}
}
