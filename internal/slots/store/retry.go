package store

import (
	"context"
	"errors"
	"fmt"

	slotserrors "creatorclub/internal/slots/errors"
)

const DefaultMaxAttempts = 5

// ConflictError marks a backend failure that is safe to resolve by re-running the transaction.
type ConflictError struct {
	Err error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("write conflict: %v", e.Err)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

func Conflict(err error) error {
	if err == nil {
		return nil
	}
	return &ConflictError{Err: err}
}

func IsConflict(err error) bool {
	var conflictErr *ConflictError
	return errors.As(err, &conflictErr)
}

// Retry re-runs attempt while it fails with a ConflictError, at most maxAttempts times.
// Any other error, including one produced by the caller's transaction function, ends the loop.
func Retry(ctx context.Context, maxAttempts int, attempt func() error) error {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	var last error
	for i := 0; i < maxAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		last = attempt()
		if last == nil || !IsConflict(last) {
			return last
		}
	}

	return fmt.Errorf("%w after %d attempts: %v", slotserrors.ErrConflict, maxAttempts, last)
}
