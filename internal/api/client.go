// Package api is the HTTP client for the devease backend. It issues one
// request per call, never retries, and keeps no credential state: every
// endpoint method takes the session id or account token it needs.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/devease/devease/internal/models"
)

// DefaultTimeout is the default timeout for API requests.
const DefaultTimeout = 15 * time.Second

// Client wraps HTTP calls to the devease backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client with the default timeout.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// do issues a single request and decodes the JSON response into out.
// Failures come back as *APIError; out may be nil when the caller only
// cares about success.
func (c *Client) do(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &APIError{Kind: KindDecode, Message: "encode request: " + err.Error()}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return &APIError{Kind: KindNetwork, Message: err.Error()}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Kind: KindNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return &APIError{Kind: KindUnauthorized, StatusCode: resp.StatusCode, Message: readMessage(resp.Body)}
	}
	if resp.StatusCode >= 400 {
		return &APIError{Kind: KindServer, StatusCode: resp.StatusCode, Message: readMessage(resp.Body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Kind: KindDecode, StatusCode: resp.StatusCode, Message: err.Error()}
	}
	return nil
}

// readMessage extracts an error string from a failed response body,
// preferring the backend's {"error": "..."} shape.
func readMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return "no response body"
	}
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return string(data)
}

// Health checks whether the backend is reachable.
func (c *Client) Health() error {
	return c.do(http.MethodGet, "/health", nil, nil)
}

// Login authenticates a local account by email or username.
func (c *Client) Login(identifier, password string) (*models.LoginResult, error) {
	body := map[string]string{"identifier": identifier, "password": password}
	var result models.LoginResult
	if err := c.do(http.MethodPost, "/api/auth/login", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Register creates a new unapproved account.
func (c *Client) Register(email, username, password string) error {
	body := map[string]string{"email": email, "username": username, "password": password}
	return c.do(http.MethodPost, "/api/auth/register", body, nil)
}

// PendingAccounts lists accounts awaiting approval. Admin token required.
func (c *Client) PendingAccounts(token string) ([]models.Account, error) {
	var accounts []models.Account
	err := c.do(http.MethodGet, "/api/admin/pending?token="+url.QueryEscape(token), nil, &accounts)
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// ApproveAccount marks an account as approved. Admin token required.
func (c *Client) ApproveAccount(token, email string) error {
	body := map[string]string{"token": token, "email": email}
	return c.do(http.MethodPost, "/api/admin/approve", body, nil)
}

// Connect opens a provider session for the given organization and PAT.
func (c *Client) Connect(organization, pat string) (*models.ConnectResult, error) {
	body := map[string]string{"organization": organization, "pat": pat}
	var result models.ConnectResult
	if err := c.do(http.MethodPost, "/api/connect", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Projects lists the organization's projects for a provider session.
func (c *Client) Projects(sessionID string) ([]models.Project, error) {
	var projects []models.Project
	err := c.do(http.MethodGet, "/api/projects?session_id="+url.QueryEscape(sessionID), nil, &projects)
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// Pipelines lists the pipelines of a project with latest run summaries.
func (c *Client) Pipelines(sessionID, project string) ([]models.Pipeline, error) {
	path := fmt.Sprintf("/api/projects/%s/pipelines?session_id=%s",
		url.PathEscape(project), url.QueryEscape(sessionID))
	var pipelines []models.Pipeline
	if err := c.do(http.MethodGet, path, nil, &pipelines); err != nil {
		return nil, err
	}
	return pipelines, nil
}

// Runs lists the run history of one pipeline, newest first.
func (c *Client) Runs(sessionID, project string, pipelineID int) ([]models.Run, error) {
	path := fmt.Sprintf("/api/projects/%s/pipelines/%d/runs?session_id=%s",
		url.PathEscape(project), pipelineID, url.QueryEscape(sessionID))
	var runs []models.Run
	if err := c.do(http.MethodGet, path, nil, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

// Analytics fetches the aggregate build analytics of a project.
func (c *Client) Analytics(sessionID, project string) (*models.Analytics, error) {
	path := fmt.Sprintf("/api/projects/%s/analytics?session_id=%s",
		url.PathEscape(project), url.QueryEscape(sessionID))
	var analytics models.Analytics
	if err := c.do(http.MethodGet, path, nil, &analytics); err != nil {
		return nil, err
	}
	return &analytics, nil
}

// ErrorIntelligence fetches failure intelligence for a pipeline. A run id
// of zero requests the whole failure window; a positive id asks the
// backend to narrow, though callers still correlate client-side.
func (c *Client) ErrorIntelligence(sessionID, project string, pipelineID, runID int) (*models.FailureInsight, error) {
	path := fmt.Sprintf("/api/projects/%s/pipelines/%d/error-intelligence?session_id=%s",
		url.PathEscape(project), pipelineID, url.QueryEscape(sessionID))
	if runID > 0 {
		path += "&run_id=" + strconv.Itoa(runID)
	}
	var insight models.FailureInsight
	if err := c.do(http.MethodGet, path, nil, &insight); err != nil {
		return nil, err
	}
	return &insight, nil
}

// Dashboards lists dashboards visible to the account.
func (c *Client) Dashboards(token string) ([]models.Dashboard, error) {
	var dashboards []models.Dashboard
	err := c.do(http.MethodGet, "/api/dashboards?token="+url.QueryEscape(token), nil, &dashboards)
	if err != nil {
		return nil, err
	}
	return dashboards, nil
}

// CreateDashboard creates a dashboard owned by the account.
func (c *Client) CreateDashboard(token, name, description string) (*models.Dashboard, error) {
	body := map[string]string{"token": token, "name": name, "description": description}
	var dashboard models.Dashboard
	if err := c.do(http.MethodPost, "/api/dashboards", body, &dashboard); err != nil {
		return nil, err
	}
	return &dashboard, nil
}

// Resources lists resources, optionally filtered by dashboard or
// project+environment.
func (c *Client) Resources(token, dashboardID, project, environment string) ([]models.Resource, error) {
	query := url.Values{"token": {token}}
	if dashboardID != "" {
		query.Set("dashboard_id", dashboardID)
	}
	if project != "" {
		query.Set("project", project)
	}
	if environment != "" {
		query.Set("environment", environment)
	}
	var resources []models.Resource
	err := c.do(http.MethodGet, "/api/resources?"+query.Encode(), nil, &resources)
	if err != nil {
		return nil, err
	}
	return resources, nil
}

// CreateResource creates a resource owned by the account.
func (c *Client) CreateResource(token string, res models.Resource) (*models.Resource, error) {
	body := struct {
		Token string `json:"token"`
		models.Resource
	}{Token: token, Resource: res}
	var created models.Resource
	if err := c.do(http.MethodPost, "/api/resources", body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateResource updates a resource. The backend enforces admin-or-owner.
func (c *Client) UpdateResource(token string, res models.Resource) (*models.Resource, error) {
	body := struct {
		Token string `json:"token"`
		models.Resource
	}{Token: token, Resource: res}
	var updated models.Resource
	if err := c.do(http.MethodPut, "/api/resources/"+url.PathEscape(res.ID), body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}
