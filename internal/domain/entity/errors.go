package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations.
var (
	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstreamFormat indicates an upstream response did not have the
	// expected structure (missing tables, unexpected status payload).
	ErrUpstreamFormat = errors.New("unexpected upstream response format")
)

// ValidationError represents a request validation error with field context.
// It implements the error interface and unwraps to ErrInvalidInput so
// handlers can map it to a client error status.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Unwrap makes errors.Is(err, ErrInvalidInput) hold for validation errors.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
