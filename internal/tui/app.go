// Package tui provides the interactive terminal dashboard for devease.
// The App model runs the whole orchestrator on the Bubble Tea update
// loop: user actions go through the workflow machine's guards, network
// calls run as commands, and every completion message is checked for
// staleness before it may touch shared state.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/devease/devease/internal/api"
	"github.com/devease/devease/internal/insight"
	"github.com/devease/devease/internal/models"
	"github.com/devease/devease/internal/runcache"
	"github.com/devease/devease/internal/session"
	"github.com/devease/devease/internal/workflow"
)

// homeOverlay says which form, if any, covers the Home screen.
type homeOverlay int

const (
	overlayNone homeOverlay = iota
	overlayDashboard
	overlayResource
)

// App is the main TUI application model.
type App struct {
	client     backendClient
	creds      *session.Store
	cache      *runcache.Cache
	machine    *workflow.Machine
	correlator *insight.Correlator

	width  int
	height int
	status string
	busy   bool

	// Auth screens
	loginForm    form
	registerForm form
	registerMode bool

	// Home
	dashboards  []models.Dashboard
	resources   []models.Resource
	resourceIdx int
	overlay     homeOverlay
	dashForm    form
	resForm     form
	editResID   string

	// Provider screens
	connectForm form
	projects    []models.Project
	projectIdx  int

	// Project dashboard
	pipelines   []models.Pipeline
	pipelineIdx int
	analytics   *models.Analytics
	expandedID  int // pipeline id with visible runs, 0 when collapsed
	runIdx      int
	runFocus    bool

	// Insight modal
	showModal bool
	modal     viewport.Model
}

// New creates the TUI application against the given backend URL.
func New(apiAddr string) *App {
	return newApp(api.New(apiAddr))
}

func newApp(client backendClient) *App {
	creds := session.NewStore()
	cache := runcache.New()
	a := &App{
		client:     client,
		creds:      creds,
		cache:      cache,
		machine:    workflow.New(creds, cache),
		correlator: insight.NewCorrelator(client),
		status:     "Sign in with your devease account.",
		loginForm: newForm("Sign In",
			formField{label: "Email or username", placeholder: "dev@example.com"},
			formField{label: "Password", placeholder: "password", secret: true},
		),
		registerForm: newForm("Create Account",
			formField{label: "Email", placeholder: "dev@example.com"},
			formField{label: "Username", placeholder: "dev"},
			formField{label: "Password", placeholder: "at least 4 characters", secret: true},
		),
		connectForm: newForm("Connect Provider",
			formField{label: "Organization", placeholder: "e.g. contoso"},
			formField{label: "Personal Access Token", placeholder: "PAT with read scopes", secret: true},
		),
		dashForm: newForm("New Dashboard",
			formField{label: "Name", placeholder: "team dashboard"},
			formField{label: "Description", placeholder: "optional"},
		),
		resForm: newForm("Resource",
			formField{label: "Name", placeholder: "grafana"},
			formField{label: "URL", placeholder: "https://..."},
			formField{label: "Project", placeholder: "payments"},
			formField{label: "Environment", placeholder: "prod"},
			formField{label: "Notes", placeholder: "optional"},
		),
		modal: viewport.New(72, 14),
	}
	return a
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.modal.Width = clampInt(msg.Width-8, 40, 90)
		a.modal.Height = clampInt(msg.Height-8, 8, 18)
		return a, nil

	case loginResultMsg:
		return a.onLoginResult(msg)

	case registerResultMsg:
		a.busy = false
		if msg.err != nil {
			a.status = "Registration failed: " + errText(msg.err)
			return a, nil
		}
		a.status = "Account created. An admin must approve it before it can be used."
		a.registerMode = false
		return a, nil

	case homeDataMsg:
		if a.machine.Step() != workflow.StepHome {
			return a, nil
		}
		if msg.err != nil {
			a.status = "Could not load dashboards: " + errText(msg.err)
			return a, nil
		}
		a.dashboards = msg.dashboards
		a.resources = msg.resources
		if a.resourceIdx >= len(a.resources) {
			a.resourceIdx = maxInt(0, len(a.resources)-1)
		}
		return a, nil

	case dashboardSavedMsg:
		a.busy = false
		if msg.err != nil {
			a.status = "Could not save dashboard: " + errText(msg.err)
			return a, nil
		}
		a.status = "Dashboard created."
		return a, a.fetchHomeData()

	case resourceSavedMsg:
		a.busy = false
		if msg.err != nil {
			a.status = "Could not save resource: " + errText(msg.err)
			return a, nil
		}
		a.status = "Resource saved."
		return a, a.fetchHomeData()

	case connectResultMsg:
		return a.onConnectResult(msg)
	case projectsLoadedMsg:
		return a.onProjectsLoaded(msg)
	case pipelinesLoadedMsg:
		return a.onPipelinesLoaded(msg)
	case analyticsLoadedMsg:
		return a.onAnalyticsLoaded(msg)
	case runsLoadedMsg:
		return a.onRunsLoaded(msg)
	case insightLoadedMsg:
		return a.onInsightLoaded(msg)
	}

	return a, a.updateFocusedInput(msg)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	if a.showModal {
		switch msg.String() {
		case "esc", "q", "enter":
			a.showModal = false
			return a, nil
		}
		var cmd tea.Cmd
		a.modal, cmd = a.modal.Update(msg)
		return a, cmd
	}

	switch a.machine.Step() {
	case workflow.StepUnauthenticated:
		return a.keyUnauthenticated(msg)
	case workflow.StepAccountPending:
		return a.keyAccountPending(msg)
	case workflow.StepHome:
		return a.keyHome(msg)
	case workflow.StepProviderConnect:
		return a.keyProviderConnect(msg)
	case workflow.StepProjectList:
		return a.keyProjectList(msg)
	case workflow.StepProjectDashboard:
		return a.keyProjectDashboard(msg)
	}
	return a, nil
}

func (a *App) keyUnauthenticated(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	active := &a.loginForm
	if a.registerMode {
		active = &a.registerForm
	}
	switch msg.String() {
	case "tab", "shift+tab":
		active.Next()
		return a, nil
	case "ctrl+r":
		a.registerMode = !a.registerMode
		if a.registerMode {
			a.status = "Create a new account. Ctrl+R to go back to sign in."
		} else {
			a.status = "Sign in with your devease account."
		}
		return a, nil
	case "enter":
		if a.busy {
			return a, nil
		}
		if a.registerMode {
			values := a.registerForm.Values()
			if values[0] == "" || values[1] == "" || values[2] == "" {
				a.status = "All fields are required."
				return a, nil
			}
			a.busy = true
			a.status = "Creating account..."
			return a, a.submitRegister(values[0], values[1], values[2])
		}
		values := a.loginForm.Values()
		if values[0] == "" || values[1] == "" {
			a.status = "Enter your email/username and password."
			return a, nil
		}
		a.busy = true
		a.status = "Signing in..."
		return a, a.submitLogin(values[0], values[1])
	}
	return a, active.Update(msg)
}

func (a *App) keyAccountPending(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		// No polling. The user re-attempts the login to see whether an
		// admin has approved the account in the meantime.
		if a.busy {
			return a, nil
		}
		values := a.loginForm.Values()
		a.busy = true
		a.status = "Checking approval..."
		return a, a.submitLogin(values[0], values[1])
	case "l", "esc":
		a.logout()
	}
	return a, nil
}

func (a *App) keyHome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.overlay != overlayNone {
		return a.keyHomeOverlay(msg)
	}
	switch msg.String() {
	case "c":
		if err := a.machine.OpenProvider(); err != nil {
			a.status = transitionText(err)
			return a, nil
		}
		a.status = "Enter your organization and PAT to connect."
	case "d":
		a.overlay = overlayDashboard
		a.dashForm.Reset()
	case "a":
		a.overlay = overlayResource
		a.editResID = ""
		a.resForm.Reset()
	case "e":
		res, ok := a.selectedResource()
		if !ok {
			return a, nil
		}
		acct := a.machine.Account()
		if acct == nil || !res.Editable(*acct) {
			a.status = "Only the owner or an admin can edit this resource."
			return a, nil
		}
		a.overlay = overlayResource
		a.editResID = res.ID
		a.resForm.Reset()
		a.resForm.SetValues(res.Name, res.URL, res.Project, res.Environment, res.Notes)
	case "up", "k":
		if a.resourceIdx > 0 {
			a.resourceIdx--
		}
	case "down", "j":
		if a.resourceIdx < len(a.resources)-1 {
			a.resourceIdx++
		}
	case "r":
		return a, a.fetchHomeData()
	case "l":
		a.logout()
	}
	return a, nil
}

func (a *App) keyHomeOverlay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	active := &a.dashForm
	if a.overlay == overlayResource {
		active = &a.resForm
	}
	switch msg.String() {
	case "esc":
		a.overlay = overlayNone
		return a, nil
	case "tab", "shift+tab":
		active.Next()
		return a, nil
	case "enter":
		if a.busy {
			return a, nil
		}
		if a.overlay == overlayDashboard {
			values := a.dashForm.Values()
			if values[0] == "" {
				a.status = "Dashboard name is required."
				return a, nil
			}
			a.busy = true
			a.overlay = overlayNone
			return a, a.submitDashboard(values[0], values[1])
		}
		values := a.resForm.Values()
		if values[0] == "" || values[1] == "" {
			a.status = "Resource name and URL are required."
			return a, nil
		}
		res := models.Resource{
			ID:          a.editResID,
			Name:        values[0],
			URL:         values[1],
			Project:     values[2],
			Environment: values[3],
			Notes:       values[4],
		}
		a.busy = true
		a.overlay = overlayNone
		return a, a.submitResource(res)
	}
	return a, active.Update(msg)
}

func (a *App) keyProviderConnect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if err := a.machine.CancelConnect(); err == nil {
			a.status = ""
		}
		return a, nil
	case "tab", "shift+tab":
		a.connectForm.Next()
		return a, nil
	case "enter":
		if a.busy {
			return a, nil
		}
		values := a.connectForm.Values()
		if values[0] == "" || values[1] == "" {
			a.status = "Organization and PAT are required."
			return a, nil
		}
		a.busy = true
		a.status = "Connecting to provider..."
		return a, a.submitConnect(values[0], values[1])
	}
	return a, a.connectForm.Update(msg)
}

func (a *App) keyProjectList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if a.projectIdx > 0 {
			a.projectIdx--
		}
	case "down", "j":
		if a.projectIdx < len(a.projects)-1 {
			a.projectIdx++
		}
	case "enter":
		if len(a.projects) == 0 {
			return a, nil
		}
		return a, a.selectProject(a.projects[a.projectIdx].Name)
	case "r":
		return a, a.fetchProjects(a.creds.Get().ProviderSessionID)
	case "l":
		a.logout()
	}
	return a, nil
}

func (a *App) keyProjectDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if err := a.machine.Back(); err != nil {
			return a, nil
		}
		a.clearProjectData()
		a.status = "Select a project."
	case "tab":
		if a.expandedID != 0 {
			if runs, state := a.cache.Get(a.expandedID); state == runcache.Populated && len(runs) > 0 {
				a.runFocus = !a.runFocus
				a.runIdx = 0
			}
		}
	case "up", "k":
		if a.runFocus {
			if a.runIdx > 0 {
				a.runIdx--
			}
		} else if a.pipelineIdx > 0 {
			a.pipelineIdx--
		}
	case "down", "j":
		if a.runFocus {
			runs, _ := a.cache.Get(a.expandedID)
			if a.runIdx < len(runs)-1 {
				a.runIdx++
			}
		} else if a.pipelineIdx < len(a.pipelines)-1 {
			a.pipelineIdx++
		}
	case "enter":
		return a.toggleRuns()
	case "i":
		return a.openInsight()
	case "r":
		project := a.machine.ActiveProject()
		sessionID := a.creds.Get().ProviderSessionID
		a.status = fmt.Sprintf("Refreshing %s...", project)
		return a, tea.Batch(a.fetchPipelines(sessionID, project), a.fetchAnalytics(sessionID, project))
	case "l":
		a.logout()
	}
	return a, nil
}

// toggleRuns expands or collapses the run history of the selected
// pipeline. Expansion goes through the run cache, so only an absent key
// issues a fetch: re-expanding is free, and a second expand while the
// first fetch is in flight does nothing.
func (a *App) toggleRuns() (tea.Model, tea.Cmd) {
	if len(a.pipelines) == 0 || a.runFocus {
		return a, nil
	}
	pipe := a.pipelines[a.pipelineIdx]
	if a.expandedID == pipe.ID {
		a.expandedID = 0
		a.runFocus = false
		return a, nil
	}
	a.expandedID = pipe.ID
	a.runIdx = 0
	a.runFocus = false
	if !a.cache.EnsureLoaded(pipe.ID) {
		return a, nil
	}
	return a, a.fetchRuns(a.creds.Get().ProviderSessionID, a.machine.ActiveProject(), pipe.ID)
}

func (a *App) openInsight() (tea.Model, tea.Cmd) {
	if a.expandedID == 0 {
		a.status = "Expand a pipeline and pick a run first."
		return a, nil
	}
	runs, state := a.cache.Get(a.expandedID)
	if state != runcache.Populated || len(runs) == 0 {
		a.status = "No run selected."
		return a, nil
	}
	if a.runIdx >= len(runs) {
		a.runIdx = len(runs) - 1
	}
	pipe := a.selectedPipeline()
	if pipe == nil {
		return a, nil
	}
	run := runs[a.runIdx]
	a.status = fmt.Sprintf("Inspecting run %d...", run.ID)
	return a, a.fetchInsight(a.creds.Get().ProviderSessionID, a.machine.ActiveProject(), *pipe, run)
}

func (a *App) selectedPipeline() *models.Pipeline {
	for i := range a.pipelines {
		if a.pipelines[i].ID == a.expandedID {
			return &a.pipelines[i]
		}
	}
	return nil
}

func (a *App) selectedResource() (models.Resource, bool) {
	if len(a.resources) == 0 || a.resourceIdx >= len(a.resources) {
		return models.Resource{}, false
	}
	return a.resources[a.resourceIdx], true
}

func (a *App) onLoginResult(msg loginResultMsg) (tea.Model, tea.Cmd) {
	a.busy = false
	if msg.err != nil {
		if api.IsUnauthorized(msg.err) {
			a.status = "Invalid credentials."
		} else {
			a.status = "Sign-in failed: " + errText(msg.err)
		}
		return a, nil
	}
	step := a.machine.LoginSucceeded(*msg.result)
	if step == workflow.StepAccountPending {
		a.status = "Account awaiting approval. Press r to re-check after an admin approves it."
		return a, nil
	}
	a.status = fmt.Sprintf("Signed in as %s.", msg.result.Username)
	return a, a.fetchHomeData()
}

func (a *App) onConnectResult(msg connectResultMsg) (tea.Model, tea.Cmd) {
	a.busy = false
	if msg.err != nil {
		if api.IsUnauthorized(msg.err) {
			a.status = "Connection failed. Verify the organization name and PAT scope."
		} else {
			a.status = "Network error while connecting. Check backend availability and try again."
		}
		return a, nil
	}
	if err := a.machine.ConnectSucceeded(msg.result.SessionID); err != nil {
		return a, nil
	}
	a.clearProjectData()
	a.projects = nil
	a.projectIdx = 0
	a.status = fmt.Sprintf("Connected to %s. %d projects available.", msg.result.Organization, msg.result.ProjectCount)
	// The project list depends on the new session, so the fetch is
	// issued only now, from the success handler.
	return a, a.fetchProjects(msg.result.SessionID)
}

func (a *App) onProjectsLoaded(msg projectsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.sessionID != a.creds.Get().ProviderSessionID {
		return a, nil // superseded session
	}
	if msg.err != nil {
		return a, a.providerError(msg.err, "Could not load projects")
	}
	a.projects = msg.projects
	if a.projectIdx >= len(a.projects) {
		a.projectIdx = maxInt(0, len(a.projects)-1)
	}
	if len(a.projects) == 0 {
		a.status = "Connected successfully, but no projects were found for this organization."
	}
	return a, nil
}

func (a *App) selectProject(name string) tea.Cmd {
	if err := a.machine.SelectProject(name); err != nil {
		a.status = transitionText(err)
		return nil
	}
	a.clearProjectData()
	a.status = fmt.Sprintf("Loading data for %s...", name)
	sessionID := a.creds.Get().ProviderSessionID
	// Pipelines and analytics are independent fetches. Either may land
	// first.
	return tea.Batch(a.fetchPipelines(sessionID, name), a.fetchAnalytics(sessionID, name))
}

func (a *App) onPipelinesLoaded(msg pipelinesLoadedMsg) (tea.Model, tea.Cmd) {
	if !a.machine.IsCurrentProject(msg.project) {
		return a, nil // project switched while the fetch was in flight
	}
	if msg.err != nil {
		return a, a.providerError(msg.err, "Could not load pipelines")
	}
	a.pipelines = msg.pipelines
	if a.pipelineIdx >= len(a.pipelines) {
		a.pipelineIdx = maxInt(0, len(a.pipelines)-1)
	}
	a.status = fmt.Sprintf("Loaded %d pipelines for %s.", len(msg.pipelines), msg.project)
	return a, nil
}

func (a *App) onAnalyticsLoaded(msg analyticsLoadedMsg) (tea.Model, tea.Cmd) {
	if !a.machine.IsCurrentProject(msg.project) {
		return a, nil
	}
	if msg.err != nil {
		// Pipelines may well have loaded fine. A missing analytics panel
		// does not take down the dashboard step.
		return a, a.providerError(msg.err, "Could not load analytics")
	}
	a.analytics = msg.analytics
	return a, nil
}

func (a *App) onRunsLoaded(msg runsLoadedMsg) (tea.Model, tea.Cmd) {
	if !a.machine.IsCurrentProject(msg.project) {
		return a, nil
	}
	if msg.err != nil {
		a.cache.Fail(msg.pipelineID)
		if a.expandedID == msg.pipelineID {
			a.expandedID = 0
			a.runFocus = false
		}
		return a, a.providerError(msg.err, "Could not load run history")
	}
	a.cache.Complete(msg.pipelineID, msg.runs)
	return a, nil
}

func (a *App) onInsightLoaded(msg insightLoadedMsg) (tea.Model, tea.Cmd) {
	if a.machine.Step() != workflow.StepProjectDashboard {
		return a, nil
	}
	if msg.err != nil {
		if api.IsUnauthorized(msg.err) {
			return a, a.providerError(msg.err, "Could not load failure details")
		}
		a.openModal("Unable to load failure details right now.")
		a.status = ""
		return a, nil
	}
	a.openModal(msg.explanation.Text)
	a.status = ""
	return a, nil
}

func (a *App) openModal(text string) {
	a.modal.SetContent(text)
	a.modal.GotoTop()
	a.showModal = true
}

// providerError turns a failed provider call into status text. An
// unauthorized outcome means the provider session expired: drop it and
// fall back to the connect step, keeping the account signed in.
func (a *App) providerError(err error, prefix string) tea.Cmd {
	if api.IsUnauthorized(err) {
		a.machine.HandleUnauthorized()
		a.clearProjectData()
		a.projects = nil
		a.status = "Provider session expired. Reconnect to continue."
		return nil
	}
	a.status = prefix + ": " + errText(err)
	return nil
}

// clearProjectData drops view state of the abandoned project. The run
// cache itself is invalidated by the workflow machine.
func (a *App) clearProjectData() {
	a.pipelines = nil
	a.pipelineIdx = 0
	a.analytics = nil
	a.expandedID = 0
	a.runIdx = 0
	a.runFocus = false
}

func (a *App) logout() {
	a.machine.Logout()
	a.clearProjectData()
	a.projects = nil
	a.dashboards = nil
	a.resources = nil
	a.overlay = overlayNone
	a.loginForm.Reset()
	a.status = "Signed out."
}

func (a *App) updateFocusedInput(msg tea.Msg) tea.Cmd {
	switch a.machine.Step() {
	case workflow.StepUnauthenticated:
		if a.registerMode {
			return a.registerForm.Update(msg)
		}
		return a.loginForm.Update(msg)
	case workflow.StepProviderConnect:
		return a.connectForm.Update(msg)
	case workflow.StepHome:
		if a.overlay == overlayDashboard {
			return a.dashForm.Update(msg)
		}
		if a.overlay == overlayResource {
			return a.resForm.Update(msg)
		}
	}
	return nil
}

func (a *App) submitLogin(identifier, password string) tea.Cmd {
	return func() tea.Msg {
		result, err := a.client.Login(identifier, password)
		return loginResultMsg{result: result, err: err}
	}
}

func (a *App) submitRegister(email, username, password string) tea.Cmd {
	return func() tea.Msg {
		return registerResultMsg{err: a.client.Register(email, username, password)}
	}
}

func (a *App) fetchHomeData() tea.Cmd {
	token := a.creds.Get().AccountToken
	return func() tea.Msg {
		dashboards, err := a.client.Dashboards(token)
		if err != nil {
			return homeDataMsg{err: err}
		}
		resources, err := a.client.Resources(token, "", "", "")
		if err != nil {
			return homeDataMsg{err: err}
		}
		return homeDataMsg{dashboards: dashboards, resources: resources}
	}
}

func (a *App) submitDashboard(name, description string) tea.Cmd {
	token := a.creds.Get().AccountToken
	return func() tea.Msg {
		_, err := a.client.CreateDashboard(token, name, description)
		return dashboardSavedMsg{err: err}
	}
}

func (a *App) submitResource(res models.Resource) tea.Cmd {
	token := a.creds.Get().AccountToken
	return func() tea.Msg {
		var err error
		if res.ID == "" {
			_, err = a.client.CreateResource(token, res)
		} else {
			_, err = a.client.UpdateResource(token, res)
		}
		return resourceSavedMsg{err: err}
	}
}

func (a *App) submitConnect(organization, pat string) tea.Cmd {
	return func() tea.Msg {
		result, err := a.client.Connect(organization, pat)
		return connectResultMsg{result: result, err: err}
	}
}

func (a *App) fetchProjects(sessionID string) tea.Cmd {
	return func() tea.Msg {
		projects, err := a.client.Projects(sessionID)
		return projectsLoadedMsg{sessionID: sessionID, projects: projects, err: err}
	}
}

func (a *App) fetchPipelines(sessionID, project string) tea.Cmd {
	return func() tea.Msg {
		pipelines, err := a.client.Pipelines(sessionID, project)
		return pipelinesLoadedMsg{project: project, pipelines: pipelines, err: err}
	}
}

func (a *App) fetchAnalytics(sessionID, project string) tea.Cmd {
	return func() tea.Msg {
		analytics, err := a.client.Analytics(sessionID, project)
		return analyticsLoadedMsg{project: project, analytics: analytics, err: err}
	}
}

func (a *App) fetchRuns(sessionID, project string, pipelineID int) tea.Cmd {
	return func() tea.Msg {
		runs, err := a.client.Runs(sessionID, project, pipelineID)
		return runsLoadedMsg{project: project, pipelineID: pipelineID, runs: runs, err: err}
	}
}

func (a *App) fetchInsight(sessionID, project string, pipe models.Pipeline, run models.Run) tea.Cmd {
	return func() tea.Msg {
		explanation, err := a.correlator.Explain(sessionID, project, pipe, run)
		return insightLoadedMsg{pipelineID: pipe.ID, runID: run.ID, explanation: explanation, err: err}
	}
}

func transitionText(err error) string {
	switch err {
	case workflow.ErrNotApproved:
		return "Your account is awaiting approval."
	case workflow.ErrNoProviderSession:
		return "Provider session expired. Reconnect to continue."
	case workflow.ErrNoAccount:
		return "Sign in first."
	default:
		return "That action is not available right now."
	}
}

func errText(err error) string {
	if apiErr, ok := err.(*api.APIError); ok {
		return apiErr.Message
	}
	return err.Error()
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
