package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	err := NewValidationError("bad input")
	assert.Equal(t, "VALIDATION_ERROR: bad input", err.Error())

	wrapped := NewExternalError("assistant", "invoke failed").WithCause(errors.New("boom"))
	assert.Contains(t, wrapped.Error(), "invoke failed")
	assert.Contains(t, wrapped.Error(), "boom")
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewInternalError("something broke").WithCause(cause)

	require.ErrorIs(t, err, cause)
}

func TestIsType_WrappedError(t *testing.T) {
	err := fmt.Errorf("operation failed: %w", NewTimeoutError("invoke"))

	assert.True(t, IsType(err, ErrorTypeTimeout))
	assert.False(t, IsType(err, ErrorTypeValidation))
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{"nil error", nil, false},
		{"timeout", NewTimeoutError("invoke"), true},
		{"external", NewExternalError("records", "unavailable"), true},
		{"validation", NewValidationError("bad"), false},
		{"not found", NewNotFoundError("record"), false},
		{"configuration", NewConfigurationError("email", "disabled"), false},
		{"internal", NewInternalError("bug"), false},
		{"plain error", errors.New("who knows"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.transient, IsTransient(tt.err))
		})
	}
}

func TestGetTypeAndCode(t *testing.T) {
	err := NewConfigurationError("scheduler", "feature disabled")
	assert.Equal(t, ErrorTypeConfiguration, GetType(err))
	assert.Equal(t, "CONFIGURATION_ERROR", GetCode(err))
	assert.Equal(t, "scheduler", err.Details["dependency"])

	assert.Equal(t, ErrorTypeInternal, GetType(errors.New("plain")))
	assert.Equal(t, "UNKNOWN_ERROR", GetCode(errors.New("plain")))
}
