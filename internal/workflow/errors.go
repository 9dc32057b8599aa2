package workflow

import "errors"

// Sentinel errors for rejected transitions. A rejected transition leaves
// the machine unchanged.
var (
	ErrNoAccount         = errors.New("no authenticated account")
	ErrNotApproved       = errors.New("account awaiting approval")
	ErrNoProviderSession = errors.New("no live provider session")
	ErrWrongStep         = errors.New("transition not valid from current step")
)
