package domain

import "errors"

// User-facing, recoverable errors. Everything else reaching the dispatch
// boundary is reported as an internal error.
var (
	ErrInvalidTeam          = errors.New("invalid team")
	ErrUnknownCommand       = errors.New("ambiguous or unknown command")
	ErrUserRefNotResolved   = errors.New("user reference not resolved")
	ErrMemberNotFound       = errors.New("member not found")
	ErrMemberAlreadyPresent = errors.New("member already present")
	ErrAlreadyRunning       = errors.New("announcements already running")
)
