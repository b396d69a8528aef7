package session

import "errors"

var (
	// ErrSessionNotFound is returned when no session exists for the
	// (user, assessment) key.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionAlreadyComplete is returned when a response is submitted
	// to a terminal session.
	ErrSessionAlreadyComplete = errors.New("session already complete")

	// ErrNoCandidateItems is returned when the item pool has no eligible
	// items for a new session.
	ErrNoCandidateItems = errors.New("no candidate items")

	// ErrInvalidConfig is returned for configs that fail validation.
	ErrInvalidConfig = errors.New("invalid adaptive config")
)
