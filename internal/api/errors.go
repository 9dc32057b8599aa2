package api

import "fmt"

// Kind classifies a failed call so callers can pick a recovery policy
// without parsing messages.
type Kind int

const (
	// KindNetwork means the request never produced an HTTP response.
	KindNetwork Kind = iota
	// KindUnauthorized means the credential was missing, invalid or expired.
	KindUnauthorized
	// KindServer means the backend rejected the request (4xx/5xx other
	// than 401).
	KindServer
	// KindDecode means the response body could not be decoded.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindUnauthorized:
		return "unauthorized"
	case KindServer:
		return "server"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// APIError is the typed failure outcome of a gateway call.
type APIError struct {
	Kind       Kind
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (%d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// IsUnauthorized reports whether err is an APIError of kind unauthorized.
// An unauthorized outcome on a provider call signals session expiry; the
// caller is responsible for falling back to the connect step.
func IsUnauthorized(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Kind == KindUnauthorized
}
