package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/devease/devease/internal/runcache"
	"github.com/devease/devease/internal/workflow"
)

// View implements tea.Model.
func (a *App) View() string {
	var body string
	switch a.machine.Step() {
	case workflow.StepUnauthenticated:
		body = a.viewAuth()
	case workflow.StepAccountPending:
		body = a.viewPending()
	case workflow.StepHome:
		body = a.viewHome()
	case workflow.StepProviderConnect:
		body = a.viewConnect()
	case workflow.StepProjectList:
		body = a.viewProjectList()
	case workflow.StepProjectDashboard:
		body = a.viewProjectDashboard()
	}

	if a.showModal {
		body = a.viewModal()
	}

	header := titleStyle.Render("devease") + "  " + mutedStyle.Render(a.breadcrumb())
	status := a.status
	if a.busy {
		status = warnStyle.Render("… ") + status
	}
	return header + "\n\n" + body + "\n" + statusBarStyle.Render(status)
}

func (a *App) breadcrumb() string {
	parts := []string{a.machine.Step().String()}
	if acct := a.machine.Account(); acct != nil {
		parts = append(parts, acct.Username)
	}
	if p := a.machine.ActiveProject(); p != "" {
		parts = append(parts, p)
	}
	return strings.Join(parts, " · ")
}

func (a *App) viewAuth() string {
	active := &a.loginForm
	help := "enter sign in · ctrl+r register · tab next field · ctrl+c quit"
	if a.registerMode {
		active = &a.registerForm
		help = "enter create account · ctrl+r back to sign in · tab next field · ctrl+c quit"
	}
	return active.View() + "\n" + helpStyle.Render(help)
}

func (a *App) viewPending() string {
	acct := a.machine.Account()
	name := ""
	if acct != nil {
		name = acct.Username
	}
	body := warnStyle.Render("Account awaiting approval") + "\n\n" +
		fmt.Sprintf("The account %q was created but has not been approved\nby an administrator yet.", name)
	return panelStyle.Render(body) + "\n" + helpStyle.Render("r re-check · l sign out")
}

func (a *App) viewHome() string {
	if a.overlay != overlayNone {
		active := &a.dashForm
		if a.overlay == overlayResource {
			active = &a.resForm
		}
		return active.View() + "\n" +
			helpStyle.Render("enter save · tab next field · esc cancel")
	}

	var b strings.Builder
	b.WriteString(headStyle.Render("Dashboards") + "\n")
	if len(a.dashboards) == 0 {
		b.WriteString(mutedStyle.Render("  none yet, press d to create one") + "\n")
	}
	for _, d := range a.dashboards {
		line := fmt.Sprintf("  %s", d.Name)
		if d.Description != "" {
			line += mutedStyle.Render("  " + d.Description)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n" + headStyle.Render("Resources") + "\n")
	if len(a.resources) == 0 {
		b.WriteString(mutedStyle.Render("  none yet, press a to add one") + "\n")
	}
	for i, r := range a.resources {
		scope := r.Project
		if r.Environment != "" {
			scope += "/" + r.Environment
		}
		line := fmt.Sprintf("%-20s %-24s %s", r.Name, scope, mutedStyle.Render(r.URL))
		if i == a.resourceIdx {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}

	help := "c connect provider · d new dashboard · a add resource · e edit · r refresh · l sign out"
	return panelStyle.Render(b.String()) + "\n" + helpStyle.Render(help)
}

func (a *App) viewConnect() string {
	return a.connectForm.View() + "\n" +
		helpStyle.Render("enter connect · tab next field · esc back")
}

func (a *App) viewProjectList() string {
	var b strings.Builder
	b.WriteString(headStyle.Render("Projects") + "\n")
	if len(a.projects) == 0 {
		b.WriteString(mutedStyle.Render("  loading or no projects available") + "\n")
	}
	for i, p := range a.projects {
		if i == a.projectIdx {
			b.WriteString(selectedStyle.Render("> "+p.Name) + "\n")
		} else {
			b.WriteString("  " + p.Name + "\n")
		}
	}
	return panelStyle.Render(b.String()) + "\n" +
		helpStyle.Render("enter open · r refresh · l sign out")
}

func (a *App) viewProjectDashboard() string {
	left := a.viewPipelines()
	right := a.viewAnalytics()
	body := lipgloss.JoinHorizontal(lipgloss.Top, panelStyle.Render(left), panelStyle.Render(right))
	help := "enter expand runs · tab focus runs · i failure details · r refresh · esc projects · l sign out"
	return body + "\n" + helpStyle.Render(help)
}

func (a *App) viewPipelines() string {
	var b strings.Builder
	b.WriteString(headStyle.Render("Pipelines") + "\n")
	if len(a.pipelines) == 0 {
		b.WriteString(mutedStyle.Render("loading...") + "\n")
	}
	for i, p := range a.pipelines {
		marker := "  "
		if i == a.pipelineIdx && !a.runFocus {
			marker = "> "
		}
		line := fmt.Sprintf("%s%-24s %s", marker, p.Name, renderResult(p.LatestStatus, p.LatestResult))
		if i == a.pipelineIdx && !a.runFocus {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")

		if p.ID == a.expandedID {
			b.WriteString(a.viewRuns(p.ID))
		}
	}
	return b.String()
}

func (a *App) viewRuns(pipelineID int) string {
	runs, state := a.cache.Get(pipelineID)
	switch state {
	case runcache.Loading:
		return mutedStyle.Render("    loading runs...") + "\n"
	case runcache.Absent:
		return ""
	}
	if len(runs) == 0 {
		return mutedStyle.Render("    no runs recorded") + "\n"
	}
	var b strings.Builder
	for i, r := range runs {
		marker := "    "
		line := fmt.Sprintf("run %-6d %-12s %s", r.ID, renderResult(r.State, r.Result), mutedStyle.Render(r.CreatedAt))
		if a.runFocus && i == a.runIdx {
			line = selectedStyle.Render("  > " + line)
		} else {
			line = marker + line
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (a *App) viewAnalytics() string {
	var b strings.Builder
	b.WriteString(headStyle.Render("Analytics") + "\n")
	if a.analytics == nil {
		b.WriteString(mutedStyle.Render("loading...") + "\n")
		return b.String()
	}
	an := a.analytics
	b.WriteString(fmt.Sprintf("Total runs: %d\n", an.TotalRuns))
	b.WriteString(successFailureBar(an.SuccessCount, an.FailureCount, an.SuccessRate, 24) + "\n\n")
	b.WriteString(mutedStyle.Render("Build trend") + "\n")
	b.WriteString(trendSparkline(an.BuildTrend) + "\n\n")
	b.WriteString(mutedStyle.Render("Failures by pipeline") + "\n")
	b.WriteString(horizontalBars(an.FailureDistribution, 18) + "\n\n")
	b.WriteString(mutedStyle.Render("Code push frequency") + "\n")
	b.WriteString(trendSparkline(an.CodePushFrequency) + "\n")
	return b.String()
}

func (a *App) viewModal() string {
	frame := inputBoxStyle.Render(headStyle.Render("Failure details") + "\n\n" + a.modal.View())
	return frame + "\n" + helpStyle.Render("esc close · up/down scroll")
}

func renderResult(state, result string) string {
	if state != "" && state != "completed" {
		return warnStyle.Render(state)
	}
	switch result {
	case "succeeded":
		return okStyle.Render(result)
	case "failed":
		return failStyle.Render(result)
	case "":
		return mutedStyle.Render("unknown")
	default:
		return warnStyle.Render(result)
	}
}
