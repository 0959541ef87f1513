package types

import "errors"

// Sentinel errors shared across services and handlers. Handlers map these to
// HTTP statuses; nothing in the codebase inspects error message text.
var (
	ErrValidation      = errors.New("invalid input")
	ErrNotFound        = errors.New("requested item not found")
	ErrConflict        = errors.New("item already exists or conflict")
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	ErrForbidden       = errors.New("action forbidden")

	// Upstream generation-service failures, kept as distinct kinds so the
	// presentation layer never has to parse wrapped message strings.
	ErrModelTimeout    = errors.New("generation model took too long")
	ErrModelNotReady   = errors.New("generation model is not ready")
	ErrUpstream        = errors.New("upstream service error")
	ErrEmptyCompletion = errors.New("generation returned empty content")
)
