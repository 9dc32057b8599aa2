// Package workflow is the navigation state machine of the dashboard. One
// tagged step at a time, explicit transition methods, and guards that
// reject stale UI actions instead of advancing on bad state. The machine
// owns the credential store and run cache so that a transition and the
// invalidation of its dependent state land in the same turn.
package workflow

import (
	"github.com/devease/devease/internal/models"
	"github.com/devease/devease/internal/runcache"
	"github.com/devease/devease/internal/session"
)

// Step is one stage of the credential-gated navigation sequence.
type Step int

const (
	StepUnauthenticated Step = iota
	StepAccountPending
	StepHome
	StepProviderConnect
	StepProjectList
	StepProjectDashboard
)

func (s Step) String() string {
	switch s {
	case StepUnauthenticated:
		return "unauthenticated"
	case StepAccountPending:
		return "account-pending"
	case StepHome:
		return "home"
	case StepProviderConnect:
		return "provider-connect"
	case StepProjectList:
		return "project-list"
	case StepProjectDashboard:
		return "project-dashboard"
	default:
		return "unknown"
	}
}

// Machine tracks the current step and applies transitions. All methods
// run on the UI update loop; a transition either completes fully within
// one call or leaves the machine untouched.
type Machine struct {
	step          Step
	creds         *session.Store
	runs          *runcache.Cache
	account       *models.Account
	activeProject string
}

// New returns a machine at the unauthenticated step.
func New(creds *session.Store, runs *runcache.Cache) *Machine {
	return &Machine{
		step:  StepUnauthenticated,
		creds: creds,
		runs:  runs,
	}
}

// Step returns the current step.
func (m *Machine) Step() Step { return m.step }

// Account returns the authenticated account, or nil.
func (m *Machine) Account() *models.Account { return m.account }

// ActiveProject returns the selected project name, empty when none.
func (m *Machine) ActiveProject() string { return m.activeProject }

// IsCurrentProject reports whether a completion for the named project is
// still relevant. Completion handlers check this before mutating state so
// a superseded selection makes in-flight results a no-op.
func (m *Machine) IsCurrentProject(name string) bool {
	return m.activeProject != "" && m.activeProject == name
}

// LoginSucceeded records a successful authentication. Approved accounts
// land on Home; unapproved ones on AccountPending, where a later retry
// after external approval goes through this same path.
func (m *Machine) LoginSucceeded(result models.LoginResult) Step {
	acct := result.Account()
	m.account = &acct
	m.creds.SetAccountToken(result.Token)
	if acct.Approved {
		m.step = StepHome
	} else {
		m.step = StepAccountPending
	}
	return m.step
}

// Logout clears both credentials and all dependent state.
func (m *Machine) Logout() {
	m.creds.Clear()
	m.runs.InvalidateAll()
	m.account = nil
	m.activeProject = ""
	m.step = StepUnauthenticated
}

// OpenProvider moves from Home to the provider connect form. Requires an
// approved, authenticated account.
func (m *Machine) OpenProvider() error {
	if m.step != StepHome {
		return ErrWrongStep
	}
	if m.account == nil || !m.creds.Get().HasAccount() {
		return ErrNoAccount
	}
	if !m.account.Approved {
		return ErrNotApproved
	}
	m.step = StepProviderConnect
	return nil
}

// CancelConnect leaves the connect form for Home without touching any
// credential. An existing provider session, if any, stays live.
func (m *Machine) CancelConnect() error {
	if m.step != StepProviderConnect {
		return ErrWrongStep
	}
	m.step = StepHome
	return nil
}

// ConnectSucceeded records a new provider session. Any state tied to a
// previous session is discarded before the session id is replaced.
func (m *Machine) ConnectSucceeded(sessionID string) error {
	if m.step != StepProviderConnect {
		return ErrWrongStep
	}
	m.runs.InvalidateAll()
	m.activeProject = ""
	m.creds.SetProviderSession(sessionID)
	m.step = StepProjectList
	return nil
}

// SelectProject makes the named project the single active selection and
// moves to the project dashboard. Switching projects discards the
// abandoned project's run cache; analytics and pipelines are replaced by
// the fetches the caller issues next.
func (m *Machine) SelectProject(name string) error {
	if m.step != StepProjectList && m.step != StepProjectDashboard {
		return ErrWrongStep
	}
	if !m.creds.Get().HasProvider() {
		return ErrNoProviderSession
	}
	if name != m.activeProject {
		m.runs.InvalidateAll()
	}
	m.activeProject = name
	m.step = StepProjectDashboard
	return nil
}

// Back leaves the project dashboard for the project list. The provider
// session is retained; the abandoned project's data is discarded, not
// hidden.
func (m *Machine) Back() error {
	if m.step != StepProjectDashboard {
		return ErrWrongStep
	}
	m.runs.InvalidateAll()
	m.activeProject = ""
	m.step = StepProjectList
	return nil
}

// HandleUnauthorized is the session-expiry path: the provider session id
// is dropped, provider-scoped data is discarded, and the machine falls
// back to the connect step. The account token is untouched. Calls from
// steps that are not provider-scoped are ignored.
func (m *Machine) HandleUnauthorized() {
	switch m.step {
	case StepProjectList, StepProjectDashboard, StepProviderConnect:
	default:
		return
	}
	m.creds.ClearProvider()
	m.runs.InvalidateAll()
	m.activeProject = ""
	m.step = StepProviderConnect
}
