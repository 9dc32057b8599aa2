// Package session holds the two credentials the dashboard works with: the
// local account token and the provider session id. They are independently
// lived; replacing one never touches the other, and neither survives the
// process. Callers that replace the provider session must clear dependent
// state (run cache, pipeline list) themselves.
package session

// Session is a snapshot of the current credentials.
type Session struct {
	ProviderSessionID string
	AccountToken      string
}

// HasProvider reports whether a provider session is live.
func (s Session) HasProvider() bool { return s.ProviderSessionID != "" }

// HasAccount reports whether a local account token is held.
func (s Session) HasAccount() bool { return s.AccountToken != "" }

// Store owns the in-memory credentials. Mutated only from the UI update
// loop, so it carries no lock.
type Store struct {
	current Session
}

// NewStore returns an empty credential store.
func NewStore() *Store {
	return &Store{}
}

// Get returns the current credential snapshot.
func (s *Store) Get() Session {
	return s.current
}

// SetProviderSession replaces the provider session id.
func (s *Store) SetProviderSession(id string) {
	s.current.ProviderSessionID = id
}

// SetAccountToken replaces the local account token.
func (s *Store) SetAccountToken(token string) {
	s.current.AccountToken = token
}

// ClearProvider drops the provider session, leaving the account token
// untouched. Used on provider-side session expiry.
func (s *Store) ClearProvider() {
	s.current.ProviderSessionID = ""
}

// Clear drops both credentials. Used on logout.
func (s *Store) Clear() {
	s.current = Session{}
}
