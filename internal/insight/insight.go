// Package insight correlates a specific pipeline run with the provider's
// failure-intelligence data. Explanations are point-in-time and never
// cached: the provider-side analysis may change between inspections.
package insight

import (
	"fmt"
	"strings"

	"github.com/devease/devease/internal/models"
)

// Verdict says what the correlation found.
type Verdict int

const (
	// VerdictAllSuccessful means the provider reports no failures for the
	// pipeline; the run is not searched for.
	VerdictAllSuccessful Verdict = iota
	// VerdictMatched means a failed-run record for the requested run id
	// was found.
	VerdictMatched
	// VerdictNotFound means failures exist but none match the requested
	// run. Distinct from a network failure, which surfaces as an error.
	VerdictNotFound
)

// Explanation is the user-facing excerpt for one run.
type Explanation struct {
	Verdict Verdict
	Text    string
	Record  *models.FailedRun
}

const (
	allSuccessfulText = "All Builds Successful"
	notFoundFormat    = "No failure record matches run %d. The provider reported other failures for this pipeline; the run may have been pruned from the analysis window."
	noAISummaryText   = "AI not configured"
)

type intelligenceFetcher interface {
	ErrorIntelligence(sessionID, project string, pipelineID, runID int) (*models.FailureInsight, error)
}

// Correlator resolves failure explanations through the backend.
type Correlator struct {
	client intelligenceFetcher
}

// NewCorrelator returns a correlator using the given API client.
func NewCorrelator(client intelligenceFetcher) *Correlator {
	return &Correlator{client: client}
}

// Explain fetches failure intelligence for the pipeline and extracts the
// record matching the run's id. Correlation happens client-side even when
// the backend was asked to narrow by run id.
func (c *Correlator) Explain(sessionID, project string, pipeline models.Pipeline, run models.Run) (*Explanation, error) {
	payload, err := c.client.ErrorIntelligence(sessionID, project, pipeline.ID, run.ID)
	if err != nil {
		return nil, err
	}
	return Correlate(payload, run.ID), nil
}

// Correlate picks the explanation for runID out of a failure-intelligence
// payload. A success status wins regardless of the failed-run contents.
func Correlate(payload *models.FailureInsight, runID int) *Explanation {
	if payload.Status == models.StatusAllSuccessful {
		return &Explanation{Verdict: VerdictAllSuccessful, Text: allSuccessfulText}
	}
	for i := range payload.FailedRuns {
		if payload.FailedRuns[i].RunID == runID {
			record := payload.FailedRuns[i]
			return &Explanation{
				Verdict: VerdictMatched,
				Text:    formatRecord(record, payload.AISummary),
				Record:  &record,
			}
		}
	}
	return &Explanation{Verdict: VerdictNotFound, Text: fmt.Sprintf(notFoundFormat, runID)}
}

func formatRecord(r models.FailedRun, aiSummary string) string {
	if aiSummary == "" {
		aiSummary = noAISummaryText
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Failed task: %s\n", r.FailedTask)
	fmt.Fprintf(&b, "Error: %s\n", r.ErrorMessage)
	fmt.Fprintf(&b, "Timestamp: %s\n", r.Timestamp)
	fmt.Fprintf(&b, "Logs summary: %s\n", r.LogsSummary)
	fmt.Fprintf(&b, "AI Summary: %s", aiSummary)
	return b.String()
}
