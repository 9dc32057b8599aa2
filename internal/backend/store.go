// Package backend is the local account and dashboard service behind
// `devease serve`. Accounts, dashboards and resources persist in SQLite;
// account tokens and provider sessions live in memory and die with the
// process.
package backend

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/devease/devease/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store provides access to the devease SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		email TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		approved INTEGER NOT NULL DEFAULT 0,
		is_admin INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS dashboards (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		created_by TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS resources (
		id TEXT PRIMARY KEY,
		dashboard_id TEXT,
		owner_email TEXT NOT NULL,
		project TEXT NOT NULL,
		environment TEXT NOT NULL,
		name TEXT NOT NULL,
		url TEXT NOT NULL,
		resource_type TEXT,
		notes TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_dashboards_name ON dashboards(name);
	CREATE INDEX IF NOT EXISTS idx_resources_scope ON resources(project, environment, name);
	CREATE INDEX IF NOT EXISTS idx_resources_owner ON resources(owner_email, dashboard_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// userRecord is a stored account including its password hash.
type userRecord struct {
	models.Account
	PasswordHash string
}

// CreateUser inserts a new account. Email and username must be unique.
func (s *Store) CreateUser(email, username, passwordHash string, approved, isAdmin bool) (*models.Account, error) {
	email = normalizeEmail(email)
	username = strings.TrimSpace(username)

	existing, err := s.FindUser(email)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		existing, err = s.FindUser(username)
		if err != nil {
			return nil, err
		}
	}
	if existing != nil {
		return nil, ErrDuplicateUser
	}

	_, err = s.db.Exec(
		`INSERT INTO users (email, username, password_hash, approved, is_admin, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		email, username, passwordHash, approved, isAdmin, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &models.Account{Email: email, Username: username, Approved: approved, IsAdmin: isAdmin}, nil
}

// FindUser looks an account up by email or username. Returns nil when not
// found.
func (s *Store) FindUser(identifier string) (*userRecord, error) {
	identifier = strings.TrimSpace(identifier)
	rec := &userRecord{}
	err := s.db.QueryRow(
		`SELECT email, username, password_hash, approved, is_admin FROM users WHERE email = ? OR username = ?`,
		normalizeEmail(identifier), identifier,
	).Scan(&rec.Email, &rec.Username, &rec.PasswordHash, &rec.Approved, &rec.IsAdmin)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return rec, nil
}

// PendingUsers returns unapproved accounts, oldest first.
func (s *Store) PendingUsers() ([]models.Account, error) {
	rows, err := s.db.Query(
		`SELECT email, username, approved, is_admin FROM users WHERE approved = 0 ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("query pending users: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.Email, &a.Username, &a.Approved, &a.IsAdmin); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// ApproveUser marks an account as approved.
func (s *Store) ApproveUser(email string) error {
	result, err := s.db.Exec(`UPDATE users SET approved = 1 WHERE email = ?`, normalizeEmail(email))
	if err != nil {
		return fmt.Errorf("approve user: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateDashboard inserts a dashboard.
func (s *Store) CreateDashboard(name, description, createdBy string) (*models.Dashboard, error) {
	d := &models.Dashboard{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		CreatedBy:   createdBy,
	}
	_, err := s.db.Exec(
		`INSERT INTO dashboards (id, name, description, created_by, created_at) VALUES (?, ?, ?, ?, ?)`,
		d.ID, d.Name, d.Description, d.CreatedBy, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert dashboard: %w", err)
	}
	return d, nil
}

// ListDashboards returns all dashboards, newest first.
func (s *Store) ListDashboards() ([]models.Dashboard, error) {
	rows, err := s.db.Query(
		`SELECT id, name, description, created_by FROM dashboards ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query dashboards: %w", err)
	}
	defer rows.Close()

	var dashboards []models.Dashboard
	for rows.Next() {
		var d models.Dashboard
		var desc sql.NullString
		if err := rows.Scan(&d.ID, &d.Name, &desc, &d.CreatedBy); err != nil {
			return nil, fmt.Errorf("scan dashboard: %w", err)
		}
		d.Description = desc.String
		dashboards = append(dashboards, d)
	}
	return dashboards, rows.Err()
}

// ResourceFilter narrows a resource listing. Zero values match all.
type ResourceFilter struct {
	DashboardID string
	Project     string
	Environment string
	OwnerEmail  string
}

// CreateResource inserts a resource.
func (s *Store) CreateResource(res models.Resource) (*models.Resource, error) {
	res.ID = uuid.New().String()
	_, err := s.db.Exec(
		`INSERT INTO resources (id, dashboard_id, owner_email, project, environment, name, url, resource_type, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID, res.DashboardID, res.OwnerEmail, res.Project, res.Environment,
		res.Name, res.URL, res.ResourceType, res.Notes, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert resource: %w", err)
	}
	return &res, nil
}

// GetResource retrieves a resource by id. Returns nil when not found.
func (s *Store) GetResource(id string) (*models.Resource, error) {
	res := &models.Resource{}
	var dashboardID, resourceType, notes sql.NullString
	err := s.db.QueryRow(
		`SELECT id, dashboard_id, owner_email, project, environment, name, url, resource_type, notes
		 FROM resources WHERE id = ?`, id,
	).Scan(&res.ID, &dashboardID, &res.OwnerEmail, &res.Project, &res.Environment,
		&res.Name, &res.URL, &resourceType, &notes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query resource: %w", err)
	}
	res.DashboardID = dashboardID.String
	res.ResourceType = resourceType.String
	res.Notes = notes.String
	return res, nil
}

// ListResources returns resources matching the filter, ordered by
// project, environment, name.
func (s *Store) ListResources(filter ResourceFilter) ([]models.Resource, error) {
	query := `SELECT id, dashboard_id, owner_email, project, environment, name, url, resource_type, notes FROM resources`
	var clauses []string
	var args []interface{}
	if filter.DashboardID != "" {
		clauses = append(clauses, "dashboard_id = ?")
		args = append(args, filter.DashboardID)
	}
	if filter.Project != "" {
		clauses = append(clauses, "project = ?")
		args = append(args, filter.Project)
	}
	if filter.Environment != "" {
		clauses = append(clauses, "environment = ?")
		args = append(args, filter.Environment)
	}
	if filter.OwnerEmail != "" {
		clauses = append(clauses, "owner_email = ?")
		args = append(args, filter.OwnerEmail)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY project, environment, name"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query resources: %w", err)
	}
	defer rows.Close()

	var resources []models.Resource
	for rows.Next() {
		var res models.Resource
		var dashboardID, resourceType, notes sql.NullString
		if err := rows.Scan(&res.ID, &dashboardID, &res.OwnerEmail, &res.Project, &res.Environment,
			&res.Name, &res.URL, &resourceType, &notes); err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		res.DashboardID = dashboardID.String
		res.ResourceType = resourceType.String
		res.Notes = notes.String
		resources = append(resources, res)
	}
	return resources, rows.Err()
}

// UpdateResource overwrites the mutable fields of a resource.
func (s *Store) UpdateResource(res models.Resource) error {
	result, err := s.db.Exec(
		`UPDATE resources SET name = ?, url = ?, resource_type = ?, notes = ?, project = ?, environment = ? WHERE id = ?`,
		res.Name, res.URL, res.ResourceType, res.Notes, res.Project, res.Environment, res.ID,
	)
	if err != nil {
		return fmt.Errorf("update resource: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
