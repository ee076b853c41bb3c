package core

import (
	"errors"
	"fmt"
)

// Sentinel classes. Every error the engine produces wraps exactly one
// of these, so callers branch with errors.Is instead of string
// matching.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrInvariant    = errors.New("invariant violated")
)

// Common validation failures, pre-wrapped for direct comparison.
var (
	ErrInvalidAmount    = fmt.Errorf("%w: amount must be a positive number", ErrValidation)
	ErrInvalidKind      = fmt.Errorf("%w: type must be income or expense", ErrValidation)
	ErrEmptyDescription = fmt.Errorf("%w: description is required", ErrValidation)
)

// Validationf returns a validation error with a formatted detail.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf returns a not-found error with a formatted detail.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Unauthorizedf returns an authorization error with a formatted detail.
func Unauthorizedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnauthorized, fmt.Sprintf(format, args...))
}

// Conflictf returns a conflict error with a formatted detail.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// Invariantf returns an invariant-violation error with a formatted
// detail. These indicate a bug or torn storage state, never bad input.
func Invariantf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
