package backend

import (
	"strings"

	"github.com/devease/devease/internal/models"
)

// Provider serves deterministic demo pipeline data so the dashboard can
// run without a real build provider. The dataset is fixed at startup;
// whatever organization connects sees the same projects.
type Provider struct {
	projects []demoProject
}

type demoProject struct {
	name      string
	pipelines []demoPipeline
}

type demoPipeline struct {
	pipeline models.Pipeline
	runs     []models.Run
	failures []models.FailedRun
}

// NewDemoProvider builds the demo dataset.
func NewDemoProvider() *Provider {
	return &Provider{projects: []demoProject{
		{
			name: "payments",
			pipelines: []demoPipeline{
				{
					pipeline: models.Pipeline{ID: 101, Name: "payments-ci", LatestStatus: "completed", LatestResult: "failed"},
					runs: []models.Run{
						{ID: 1008, State: "completed", Result: "failed", CreatedAt: "2026-08-27T09:12:00Z"},
						{ID: 1007, State: "completed", Result: "succeeded", CreatedAt: "2026-08-26T17:40:00Z"},
						{ID: 1006, State: "completed", Result: "succeeded", CreatedAt: "2026-08-26T09:05:00Z"},
						{ID: 1005, State: "completed", Result: "failed", CreatedAt: "2026-08-25T15:30:00Z"},
					},
					failures: []models.FailedRun{
						{RunID: 1008, FailedTask: "IntegrationTests", ErrorMessage: "payment gateway sandbox returned 503", Timestamp: "2026-08-27T09:12:00Z", LogsSummary: "3 of 118 tests failed: gateway unreachable"},
						{RunID: 1005, FailedTask: "DockerBuild", ErrorMessage: "base image pull timed out", Timestamp: "2026-08-25T15:30:00Z", LogsSummary: "registry timeout after 120s"},
					},
				},
				{
					pipeline: models.Pipeline{ID: 102, Name: "payments-deploy", LatestStatus: "completed", LatestResult: "succeeded"},
					runs: []models.Run{
						{ID: 2003, State: "completed", Result: "succeeded", CreatedAt: "2026-08-27T11:00:00Z"},
						{ID: 2002, State: "completed", Result: "succeeded", CreatedAt: "2026-08-26T11:00:00Z"},
					},
				},
			},
		},
		{
			name: "storefront",
			pipelines: []demoPipeline{
				{
					pipeline: models.Pipeline{ID: 201, Name: "storefront-ci", LatestStatus: "inProgress", LatestResult: "unknown"},
					runs: []models.Run{
						{ID: 3004, State: "inProgress", CreatedAt: "2026-08-28T08:20:00Z"},
						{ID: 3003, State: "completed", Result: "succeeded", CreatedAt: "2026-08-27T19:45:00Z"},
						{ID: 3002, State: "completed", Result: "failed", CreatedAt: "2026-08-27T13:10:00Z"},
					},
					failures: []models.FailedRun{
						{RunID: 3002, FailedTask: "UnitTests", ErrorMessage: "snapshot mismatch in checkout component", Timestamp: "2026-08-27T13:10:00Z", LogsSummary: "1 of 412 tests failed"},
					},
				},
			},
		},
		{
			name: "platform-tools",
			pipelines: []demoPipeline{
				{
					pipeline: models.Pipeline{ID: 301, Name: "tools-nightly", LatestStatus: "completed", LatestResult: "succeeded"},
					runs: []models.Run{
						{ID: 4002, State: "completed", Result: "succeeded", CreatedAt: "2026-08-28T02:00:00Z"},
						{ID: 4001, State: "completed", Result: "succeeded", CreatedAt: "2026-08-27T02:00:00Z"},
					},
				},
			},
		},
	}}
}

// ProjectCount returns how many projects the dataset holds.
func (p *Provider) ProjectCount() int {
	return len(p.projects)
}

// Projects lists the demo projects.
func (p *Provider) Projects() []models.Project {
	out := make([]models.Project, len(p.projects))
	for i, proj := range p.projects {
		out[i] = models.Project{Name: proj.name}
	}
	return out
}

func (p *Provider) project(name string) *demoProject {
	for i := range p.projects {
		if p.projects[i].name == name {
			return &p.projects[i]
		}
	}
	return nil
}

// Pipelines lists a project's pipelines.
func (p *Provider) Pipelines(project string) ([]models.Pipeline, error) {
	proj := p.project(project)
	if proj == nil {
		return nil, ErrNotFound
	}
	out := make([]models.Pipeline, len(proj.pipelines))
	for i, pipe := range proj.pipelines {
		out[i] = pipe.pipeline
	}
	return out, nil
}

// Runs lists a pipeline's run history, newest first.
func (p *Provider) Runs(project string, pipelineID int) ([]models.Run, error) {
	proj := p.project(project)
	if proj == nil {
		return nil, ErrNotFound
	}
	for _, pipe := range proj.pipelines {
		if pipe.pipeline.ID == pipelineID {
			return pipe.runs, nil
		}
	}
	return nil, ErrNotFound
}

// Analytics aggregates the project's run history: totals, trend by day,
// failures by pipeline. The push-frequency histogram mirrors the build
// trend, as the upstream provider reports it.
func (p *Provider) Analytics(project string) (*models.Analytics, error) {
	proj := p.project(project)
	if proj == nil {
		return nil, ErrNotFound
	}

	a := &models.Analytics{
		BuildTrend:          map[string]int{},
		FailureDistribution: map[string]int{},
		CodePushFrequency:   map[string]int{},
	}
	for _, pipe := range proj.pipelines {
		for _, run := range pipe.runs {
			a.TotalRuns++
			switch run.Result {
			case "succeeded":
				a.SuccessCount++
			case "failed":
				a.FailureCount++
				a.FailureDistribution[pipe.pipeline.Name]++
			}
			if day := dayOf(run.CreatedAt); day != "" {
				a.BuildTrend[day]++
				a.CodePushFrequency[day]++
			}
		}
	}
	if a.TotalRuns > 0 {
		a.SuccessRate = float64(a.SuccessCount) / float64(a.TotalRuns) * 100
	}
	return a, nil
}

// ErrorIntelligence reports the failed runs of a pipeline. A positive
// runID narrows the response to that run's record; a run with no failure
// record yields the all-successful status.
func (p *Provider) ErrorIntelligence(project string, pipelineID, runID int) (*models.FailureInsight, error) {
	proj := p.project(project)
	if proj == nil {
		return nil, ErrNotFound
	}
	for _, pipe := range proj.pipelines {
		if pipe.pipeline.ID != pipelineID {
			continue
		}

		failures := pipe.failures
		if runID > 0 {
			failures = nil
			for _, f := range pipe.failures {
				if f.RunID == runID {
					failures = []models.FailedRun{f}
					break
				}
			}
		}

		insight := &models.FailureInsight{
			PipelineID:   pipe.pipeline.ID,
			PipelineName: pipe.pipeline.Name,
			FailedRuns:   []models.FailedRun{},
			Summary:      map[string]int{},
		}
		if len(failures) == 0 {
			insight.Status = models.StatusAllSuccessful
			return insight, nil
		}
		insight.Status = "Failures Detected"
		insight.FailedRuns = failures
		for _, f := range failures {
			insight.Summary[f.FailedTask]++
		}
		return insight, nil
	}
	return nil, ErrNotFound
}

func dayOf(timestamp string) string {
	if len(timestamp) < 10 {
		return ""
	}
	day := timestamp[:10]
	if strings.Count(day, "-") != 2 {
		return ""
	}
	return day
}
