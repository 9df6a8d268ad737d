package entity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		field    string
		message  string
		expected string
	}{
		{"delivery_time", "invalid format \"8:00\", must be HH:MM", "validation error on field 'delivery_time': invalid format \"8:00\", must be HH:MM"},
		{"email", "email is required", "validation error on field 'email': email is required"},
		{"", "no field", "validation error on field '': no field"},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			err := &ValidationError{Field: tt.field, Message: tt.message}
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestValidationError_MatchesSentinel(t *testing.T) {
	_, err := ParseDeliveryTime("25:00")
	require.Error(t, err)

	wrapped := fmt.Errorf("load subscriber sub-1: %w", err)
	assert.ErrorIs(t, wrapped, ErrValidationFailed)
	assert.NotErrorIs(t, wrapped, ErrNotFound)

	var vErr *ValidationError
	require.True(t, errors.As(wrapped, &vErr))
	assert.Equal(t, "delivery_time", vErr.Field)
}

func TestErrNotFound_Wrapped(t *testing.T) {
	err := fmt.Errorf("mark sent ep-9: %w", ErrNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrValidationFailed)
}
