// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the core services wraps exactly one of these
// so callers can branch with errors.Is.
var (
	// ErrValidation marks bad input or a violated financial-integrity rule.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a missing record or one not owned by the caller.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized marks a missing or invalid owner identity.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict marks a concurrent modification detected by version checks.
	ErrConflict = errors.New("conflict")
	// ErrPersistence marks an underlying store failure. The atomic unit it occurred in
	// has been rolled back.
	ErrPersistence = errors.New("persistence error")

	// ErrDuplicateEntry is returned when a unique constraint rejects an insert.
	ErrDuplicateEntry = errors.New("duplicate entry")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Validationf returns an ErrValidation with a formatted reason.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf returns an ErrNotFound with a formatted reason.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// RequireOwner rejects an empty owner identity.
func RequireOwner(ownerID string) error {
	if ownerID == "" {
		return fmt.Errorf("%w: owner identity required", ErrUnauthorized)
	}
	return nil
}

// Kind returns the name of the error kind wrapped by err, or "internal".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	default:
		return "internal"
	}
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry of a whole atomic unit.
func IsRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	if errors.Is(err, ErrConflict) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
