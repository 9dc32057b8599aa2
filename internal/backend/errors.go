package backend

import "errors"

// Sentinel errors for backend operations.
var (
	ErrDuplicateUser      = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrNotApproved        = errors.New("account awaiting approval")
	ErrNotAdmin           = errors.New("admin account required")
	ErrNotOwner           = errors.New("not the resource owner")
	ErrNotFound           = errors.New("resource not found")
)
