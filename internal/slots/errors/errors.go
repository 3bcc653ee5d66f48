package errors

import "errors"

var (
	ErrNotFound = errors.New("slot not found")

	// ErrConflict means the store gave up re-running a transaction after repeated write conflicts.
	ErrConflict = errors.New("slot transaction conflict: retries exhausted")

	ErrInvalidKey = errors.New("invalid slot key")
)
