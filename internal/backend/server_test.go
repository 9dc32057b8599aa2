package backend

import (
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/devease/devease/internal/api"
	"github.com/devease/devease/internal/models"
)

// newTestBackend spins up the full backend behind httptest and returns
// the api client the TUI itself uses, so these tests exercise both sides
// of the wire.
func newTestBackend(t *testing.T) (*api.Client, *Service) {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "devease.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	service, err := NewService(store, NewDemoProvider())
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}

	srv := httptest.NewServer(NewServer(service, "").Handler())
	t.Cleanup(srv.Close)

	return api.New(srv.URL), service
}

func adminToken(t *testing.T, client *api.Client) string {
	t.Helper()
	result, err := client.Login("admin@devease.local", "admin")
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	return result.Token
}

func TestRegisterLoginApprovalFlow(t *testing.T) {
	client, _ := newTestBackend(t)

	if err := client.Register("dev@example.com", "dev", "hunter2"); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Duplicate registration is a server rejection, not an auth failure.
	err := client.Register("dev@example.com", "dev", "hunter2")
	apiErr, ok := err.(*api.APIError)
	if !ok || apiErr.Kind != api.KindServer || apiErr.StatusCode != 409 {
		t.Fatalf("expected 409 server error, got %v", err)
	}

	result, err := client.Login("dev", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Approved {
		t.Fatal("fresh accounts must be unapproved")
	}

	// Gated routes reject the unapproved token.
	if _, err := client.Dashboards(result.Token); err == nil {
		t.Fatal("unapproved account must not list dashboards")
	}

	admin := adminToken(t, client)
	pending, err := client.PendingAccounts(admin)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].Email != "dev@example.com" {
		t.Fatalf("unexpected pending list: %+v", pending)
	}
	if err := client.ApproveAccount(admin, "dev@example.com"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	result, err = client.Login("dev", "hunter2")
	if err != nil {
		t.Fatalf("re-login: %v", err)
	}
	if !result.Approved {
		t.Error("account should be approved after admin action")
	}
	if _, err := client.Dashboards(result.Token); err != nil {
		t.Errorf("approved account should list dashboards: %v", err)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	client, _ := newTestBackend(t)
	_, err := client.Login("admin@devease.local", "nope")
	if !api.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestProviderFlow(t *testing.T) {
	client, service := newTestBackend(t)

	connected, err := client.Connect("contoso", "pat-12345")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if connected.Organization != "contoso" || connected.ProjectCount == 0 {
		t.Fatalf("unexpected connect result: %+v", connected)
	}

	projects, err := client.Projects(connected.SessionID)
	if err != nil {
		t.Fatalf("projects: %v", err)
	}
	if len(projects) != connected.ProjectCount {
		t.Errorf("project count mismatch: %d vs %d", len(projects), connected.ProjectCount)
	}

	pipelines, err := client.Pipelines(connected.SessionID, "payments")
	if err != nil || len(pipelines) == 0 {
		t.Fatalf("pipelines: %v %v", pipelines, err)
	}

	runs, err := client.Runs(connected.SessionID, "payments", pipelines[0].ID)
	if err != nil || len(runs) == 0 {
		t.Fatalf("runs: %v %v", runs, err)
	}

	analytics, err := client.Analytics(connected.SessionID, "payments")
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if analytics.TotalRuns == 0 || len(analytics.BuildTrend) == 0 {
		t.Errorf("analytics should aggregate demo runs: %+v", analytics)
	}
	if analytics.TotalRuns != analytics.SuccessCount+analytics.FailureCount+countUnfinished(runsOf(t, client, connected.SessionID, "payments")) {
		t.Errorf("run totals do not add up: %+v", analytics)
	}

	// Expired session surfaces as unauthorized on every provider call.
	service.ExpireSession(connected.SessionID)
	if _, err := client.Pipelines(connected.SessionID, "payments"); !api.IsUnauthorized(err) {
		t.Errorf("expected unauthorized after expiry, got %v", err)
	}
}

func runsOf(t *testing.T, client *api.Client, sessionID, project string) []models.Run {
	t.Helper()
	pipelines, err := client.Pipelines(sessionID, project)
	if err != nil {
		t.Fatal(err)
	}
	var all []models.Run
	for _, p := range pipelines {
		runs, err := client.Runs(sessionID, project, p.ID)
		if err != nil {
			t.Fatal(err)
		}
		all = append(all, runs...)
	}
	return all
}

func countUnfinished(runs []models.Run) int {
	n := 0
	for _, r := range runs {
		if r.Result == "" {
			n++
		}
	}
	return n
}

func TestErrorIntelligenceNarrowsByRun(t *testing.T) {
	client, _ := newTestBackend(t)
	connected, err := client.Connect("contoso", "pat-12345")
	if err != nil {
		t.Fatal(err)
	}

	// Full window: payments-ci carries two failure records.
	insight, err := client.ErrorIntelligence(connected.SessionID, "payments", 101, 0)
	if err != nil {
		t.Fatalf("error intelligence: %v", err)
	}
	if insight.Status != "Failures Detected" || len(insight.FailedRuns) != 2 {
		t.Fatalf("unexpected insight: %+v", insight)
	}

	// Narrowed to a run with no failure record.
	insight, err = client.ErrorIntelligence(connected.SessionID, "payments", 101, 1007)
	if err != nil {
		t.Fatalf("narrowed intelligence: %v", err)
	}
	if insight.Status != models.StatusAllSuccessful || len(insight.FailedRuns) != 0 {
		t.Errorf("successful run should yield the success sentinel, got %+v", insight)
	}
}

func TestResourceOwnershipRule(t *testing.T) {
	client, _ := newTestBackend(t)
	admin := adminToken(t, client)

	if err := client.Register("owner@example.com", "owner", "hunter2"); err != nil {
		t.Fatal(err)
	}
	if err := client.Register("other@example.com", "other", "hunter2"); err != nil {
		t.Fatal(err)
	}
	if err := client.ApproveAccount(admin, "owner@example.com"); err != nil {
		t.Fatal(err)
	}
	if err := client.ApproveAccount(admin, "other@example.com"); err != nil {
		t.Fatal(err)
	}
	owner, err := client.Login("owner", "hunter2")
	if err != nil {
		t.Fatal(err)
	}
	other, err := client.Login("other", "hunter2")
	if err != nil {
		t.Fatal(err)
	}

	created, err := client.CreateResource(owner.Token, models.Resource{
		Project: "payments", Environment: "prod", Name: "grafana", URL: "https://grafana.example.com",
	})
	if err != nil {
		t.Fatalf("create resource: %v", err)
	}
	if created.OwnerEmail != "owner@example.com" {
		t.Errorf("owner should be taken from the token, got %q", created.OwnerEmail)
	}

	created.Notes = "edited"
	if _, err := client.UpdateResource(other.Token, *created); err == nil {
		t.Fatal("non-owner edit must be rejected")
	}
	if _, err := client.UpdateResource(owner.Token, *created); err != nil {
		t.Errorf("owner edit should pass: %v", err)
	}
	if _, err := client.UpdateResource(admin, *created); err != nil {
		t.Errorf("admin edit should pass: %v", err)
	}
}
