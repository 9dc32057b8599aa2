package backend

import (
	"strings"
	"sync"
	"time"

	"github.com/devease/devease/internal/models"
	"github.com/google/uuid"
)

const (
	// DefaultSessionTTL bounds provider sessions, matching the upstream
	// backend's 30 minute policy.
	DefaultSessionTTL = 30 * time.Minute
	// DefaultTokenTTL bounds account tokens.
	DefaultTokenTTL = 12 * time.Hour

	defaultAdminEmail    = "admin@devease.local"
	defaultAdminPassword = "admin"
)

type tokenEntry struct {
	email     string
	expiresAt time.Time
}

type sessionEntry struct {
	organization string
	expiresAt    time.Time
}

// Service implements the backend's business logic over the store and the
// demo provider. Tokens and provider sessions are held in memory only.
type Service struct {
	store    *Store
	provider *Provider

	mu       sync.Mutex
	tokens   map[string]tokenEntry
	sessions map[string]sessionEntry
	now      func() time.Time
}

// NewService creates a service and seeds the default admin account.
func NewService(store *Store, provider *Provider) (*Service, error) {
	s := &Service{
		store:    store,
		provider: provider,
		tokens:   make(map[string]tokenEntry),
		sessions: make(map[string]sessionEntry),
		now:      time.Now,
	}
	if err := s.ensureDefaultAdmin(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) ensureDefaultAdmin() error {
	existing, err := s.store.FindUser(defaultAdminEmail)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	hash, err := hashPassword(defaultAdminPassword)
	if err != nil {
		return err
	}
	_, err = s.store.CreateUser(defaultAdminEmail, "admin", hash, true, true)
	return err
}

// Register creates a new unapproved account.
func (s *Service) Register(email, username, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(username) == "" || len(password) < 4 {
		return ErrInvalidCredentials
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	_, err = s.store.CreateUser(email, username, hash, false, false)
	return err
}

// Login verifies credentials and mints a token. Unapproved accounts get a
// token too; gated routes reject them until approval.
func (s *Service) Login(identifier, password string) (*models.LoginResult, error) {
	user, err := s.store.FindUser(identifier)
	if err != nil {
		return nil, err
	}
	if user == nil || !verifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token := uuid.New().String()
	s.mu.Lock()
	s.tokens[token] = tokenEntry{email: user.Email, expiresAt: s.now().Add(DefaultTokenTTL)}
	s.mu.Unlock()

	return &models.LoginResult{
		Token:    token,
		Email:    user.Email,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
		Approved: user.Approved,
	}, nil
}

// Authenticate resolves a token to its account.
func (s *Service) Authenticate(token string) (*models.Account, error) {
	s.mu.Lock()
	entry, ok := s.tokens[token]
	if ok && entry.expiresAt.Before(s.now()) {
		delete(s.tokens, token)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, ErrInvalidToken
	}

	user, err := s.store.FindUser(entry.email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	acct := user.Account
	return &acct, nil
}

// requireApproved resolves a token and rejects unapproved accounts.
func (s *Service) requireApproved(token string) (*models.Account, error) {
	acct, err := s.Authenticate(token)
	if err != nil {
		return nil, err
	}
	if !acct.Approved {
		return nil, ErrNotApproved
	}
	return acct, nil
}

// PendingAccounts lists accounts awaiting approval. Admin only.
func (s *Service) PendingAccounts(token string) ([]models.Account, error) {
	acct, err := s.requireApproved(token)
	if err != nil {
		return nil, err
	}
	if !acct.IsAdmin {
		return nil, ErrNotAdmin
	}
	return s.store.PendingUsers()
}

// ApproveAccount approves one account. Admin only.
func (s *Service) ApproveAccount(token, email string) error {
	acct, err := s.requireApproved(token)
	if err != nil {
		return err
	}
	if !acct.IsAdmin {
		return ErrNotAdmin
	}
	return s.store.ApproveUser(email)
}

// Connect validates the organization and PAT shape and opens a provider
// session. The demo provider accepts any credential that passes the shape
// check, like a PAT whose scopes are verified lazily.
func (s *Service) Connect(organization, pat string) (*models.ConnectResult, error) {
	organization = strings.TrimSpace(organization)
	if len(organization) < 2 || len(pat) < 5 {
		return nil, ErrInvalidCredentials
	}

	sessionID := uuid.New().String()
	s.mu.Lock()
	s.sessions[sessionID] = sessionEntry{organization: organization, expiresAt: s.now().Add(DefaultSessionTTL)}
	s.mu.Unlock()

	return &models.ConnectResult{
		SessionID:    sessionID,
		Organization: organization,
		ProjectCount: s.provider.ProjectCount(),
	}, nil
}

// validateSession checks a provider session id, expiring it lazily.
func (s *Service) validateSession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[sessionID]
	if !ok {
		return ErrInvalidSession
	}
	if entry.expiresAt.Before(s.now()) {
		delete(s.sessions, sessionID)
		return ErrInvalidSession
	}
	return nil
}

// ExpireSession force-expires a provider session (test hook and admin op).
func (s *Service) ExpireSession(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

// Projects lists provider projects for a live session.
func (s *Service) Projects(sessionID string) ([]models.Project, error) {
	if err := s.validateSession(sessionID); err != nil {
		return nil, err
	}
	return s.provider.Projects(), nil
}

// Pipelines lists a project's pipelines for a live session.
func (s *Service) Pipelines(sessionID, project string) ([]models.Pipeline, error) {
	if err := s.validateSession(sessionID); err != nil {
		return nil, err
	}
	return s.provider.Pipelines(project)
}

// Runs lists a pipeline's runs for a live session.
func (s *Service) Runs(sessionID, project string, pipelineID int) ([]models.Run, error) {
	if err := s.validateSession(sessionID); err != nil {
		return nil, err
	}
	return s.provider.Runs(project, pipelineID)
}

// Analytics aggregates a project's run history for a live session.
func (s *Service) Analytics(sessionID, project string) (*models.Analytics, error) {
	if err := s.validateSession(sessionID); err != nil {
		return nil, err
	}
	return s.provider.Analytics(project)
}

// ErrorIntelligence reports a pipeline's failure intelligence for a live
// session.
func (s *Service) ErrorIntelligence(sessionID, project string, pipelineID, runID int) (*models.FailureInsight, error) {
	if err := s.validateSession(sessionID); err != nil {
		return nil, err
	}
	return s.provider.ErrorIntelligence(project, pipelineID, runID)
}

// CreateDashboard creates a dashboard owned by the token's account.
func (s *Service) CreateDashboard(token, name, description string) (*models.Dashboard, error) {
	acct, err := s.requireApproved(token)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidCredentials
	}
	return s.store.CreateDashboard(name, description, acct.Email)
}

// Dashboards lists all dashboards for an approved account.
func (s *Service) Dashboards(token string) ([]models.Dashboard, error) {
	if _, err := s.requireApproved(token); err != nil {
		return nil, err
	}
	return s.store.ListDashboards()
}

// CreateResource creates a resource owned by the token's account.
func (s *Service) CreateResource(token string, res models.Resource) (*models.Resource, error) {
	acct, err := s.requireApproved(token)
	if err != nil {
		return nil, err
	}
	res.OwnerEmail = acct.Email
	return s.store.CreateResource(res)
}

// Resources lists resources for an approved account.
func (s *Service) Resources(token string, filter ResourceFilter) ([]models.Resource, error) {
	if _, err := s.requireApproved(token); err != nil {
		return nil, err
	}
	return s.store.ListResources(filter)
}

// UpdateResource updates a resource. Only the owner or an admin may edit.
func (s *Service) UpdateResource(token string, res models.Resource) (*models.Resource, error) {
	acct, err := s.requireApproved(token)
	if err != nil {
		return nil, err
	}
	existing, err := s.store.GetResource(res.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotFound
	}
	if !existing.Editable(*acct) {
		return nil, ErrNotOwner
	}
	res.OwnerEmail = existing.OwnerEmail
	res.DashboardID = existing.DashboardID
	if err := s.store.UpdateResource(res); err != nil {
		return nil, err
	}
	return &res, nil
}
