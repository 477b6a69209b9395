package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a quiz session id is unknown to the registry.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionCompleted is returned when submitting to a session that already finished.
	ErrSessionCompleted = errors.New("quiz session already completed")
	// ErrQuestionMismatch is returned when a submission targets a question other
	// than the one at the session's cursor (out-of-order or replayed submission).
	ErrQuestionMismatch = errors.New("question does not match current position")
	// ErrNotAuthenticated is an access-gate denial for anonymous users.
	ErrNotAuthenticated = errors.New("authentication required")
	// ErrDemoExhausted is an access-gate denial once the free demo is spent.
	ErrDemoExhausted = errors.New("free demo already used")
	// ErrUserNotFound is returned by the identity store for unknown emails or ids.
	ErrUserNotFound = errors.New("user not found")
	// ErrAccessNotFound is returned when a user has no quiz_access row.
	ErrAccessNotFound = errors.New("quiz access record not found")
)
