package insight

import (
	"errors"
	"strings"
	"testing"

	"github.com/devease/devease/internal/models"
)

type fakeFetcher struct {
	payload *models.FailureInsight
	err     error

	calls     int
	gotRunID  int
	gotPipeID int
}

func (f *fakeFetcher) ErrorIntelligence(sessionID, project string, pipelineID, runID int) (*models.FailureInsight, error) {
	f.calls++
	f.gotPipeID = pipelineID
	f.gotRunID = runID
	return f.payload, f.err
}

func TestSuccessStatusWinsOverFailedRuns(t *testing.T) {
	payload := &models.FailureInsight{
		Status: models.StatusAllSuccessful,
		// A confused provider may still ship records; they must be ignored.
		FailedRuns: []models.FailedRun{{RunID: 8, FailedTask: "build"}},
	}

	got := Correlate(payload, 8)
	if got.Verdict != VerdictAllSuccessful {
		t.Fatalf("expected VerdictAllSuccessful, got %v", got.Verdict)
	}
	if got.Text != "All Builds Successful" {
		t.Errorf("unexpected text %q", got.Text)
	}
}

func TestNonMatchingRunIsNotFound(t *testing.T) {
	payload := &models.FailureInsight{
		Status:     "Failures Detected",
		FailedRuns: []models.FailedRun{{RunID: 7, FailedTask: "deploy", ErrorMessage: "boom"}},
	}

	got := Correlate(payload, 8)
	if got.Verdict != VerdictNotFound {
		t.Fatalf("expected VerdictNotFound, got %v (%q)", got.Verdict, got.Text)
	}
	if !strings.Contains(got.Text, "run 8") {
		t.Errorf("not-found text should name the requested run, got %q", got.Text)
	}
	if strings.Contains(got.Text, "deploy") {
		t.Errorf("must not leak run 7's record, got %q", got.Text)
	}
}

func TestMatchingRunIsExcerpted(t *testing.T) {
	payload := &models.FailureInsight{
		Status: "Failures Detected",
		FailedRuns: []models.FailedRun{
			{RunID: 7, FailedTask: "lint", ErrorMessage: "style"},
			{RunID: 8, FailedTask: "deploy", ErrorMessage: "no quota", Timestamp: "2026-08-01T10:00:00Z", LogsSummary: "quota exceeded"},
		},
		AISummary: "Out of capacity in region.",
	}

	got := Correlate(payload, 8)
	if got.Verdict != VerdictMatched {
		t.Fatalf("expected VerdictMatched, got %v", got.Verdict)
	}
	for _, want := range []string{"deploy", "no quota", "2026-08-01T10:00:00Z", "quota exceeded", "Out of capacity"} {
		if !strings.Contains(got.Text, want) {
			t.Errorf("excerpt missing %q: %q", want, got.Text)
		}
	}
	if got.Record == nil || got.Record.RunID != 8 {
		t.Errorf("expected record for run 8, got %+v", got.Record)
	}
}

func TestMissingAISummaryGetsPlaceholder(t *testing.T) {
	payload := &models.FailureInsight{
		Status:     "Failures Detected",
		FailedRuns: []models.FailedRun{{RunID: 3, FailedTask: "test"}},
	}

	got := Correlate(payload, 3)
	if !strings.Contains(got.Text, "AI not configured") {
		t.Errorf("expected AI placeholder, got %q", got.Text)
	}
}

func TestExplainPassesScopeAndPropagatesErrors(t *testing.T) {
	wantErr := errors.New("network down")
	fetcher := &fakeFetcher{err: wantErr}
	c := NewCorrelator(fetcher)

	pipeline := models.Pipeline{ID: 42, Name: "ci"}
	run := models.Run{ID: 8}
	_, err := c.Explain("sess-1", "payments", pipeline, run)
	if !errors.Is(err, wantErr) {
		t.Fatalf("network failures must surface as errors, got %v", err)
	}
	if fetcher.gotPipeID != 42 || fetcher.gotRunID != 8 {
		t.Errorf("request not scoped to pipeline/run: %d/%d", fetcher.gotPipeID, fetcher.gotRunID)
	}

	// Each Explain refetches: explanations are never cached.
	fetcher.err = nil
	fetcher.payload = &models.FailureInsight{Status: models.StatusAllSuccessful}
	if _, err := c.Explain("sess-1", "payments", pipeline, run); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Explain("sess-1", "payments", pipeline, run); err != nil {
		t.Fatal(err)
	}
	if fetcher.calls != 3 {
		t.Errorf("expected 3 fetches, got %d", fetcher.calls)
	}
}
