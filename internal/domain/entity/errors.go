package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by stores for an unknown id.
	ErrNotFound = errors.New("entity not found")

	// ErrValidationFailed matches every *ValidationError via errors.Is.
	ErrValidationFailed = errors.New("validation failed")
)

// ValidationError names the field of a subscriber, episode or news item that
// failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Unwrap lets callers test for ErrValidationFailed without a type assertion.
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
