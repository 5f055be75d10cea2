package ragchat

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a request or event failed validation.
	ErrValidation = errors.New("validation error")

	// ErrEmptyMessage indicates a turn was started with blank input.
	ErrEmptyMessage = errors.New("empty message")

	// ErrTurnInProgress indicates a turn was started while the previous
	// assistant message is still streaming.
	ErrTurnInProgress = errors.New("turn in progress")

	// ErrStreamClosed indicates an operation on a closed stream.
	ErrStreamClosed = errors.New("stream closed")
)

// Transport failure classes. Client implementations wrap these so callers
// can branch with errors.Is.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrRateLimited  = errors.New("rate limited")
	ErrUnavailable  = errors.New("service unavailable")
	ErrTimeout      = errors.New("timeout")
)
