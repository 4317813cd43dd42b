package domain

import (
	"github.com/allisson/secpolicy/internal/errors"
)

// Validation failure reasons recorded on security events.
const (
	ReasonMissingSession = "missing_session"
	ReasonMissingToken   = "missing_token"
	ReasonNoToken        = "no_token_issued"
	ReasonExpired        = "expired"
	ReasonMismatch       = "mismatch"
)

var (
	// ErrEmptySession indicates an operation without a session id.
	ErrEmptySession = errors.Wrap(errors.ErrInvalidInput, "session id is required")

	// ErrInvalidConfig indicates a token length below the floor or a non-positive expiry.
	ErrInvalidConfig = errors.Wrap(errors.ErrConfiguration, "invalid csrf configuration")

	// ErrCsrfValidation matches every *ValidationError with errors.Is.
	ErrCsrfValidation = &ValidationError{}
)

// ValidationError is returned when a state-changing request lacks a valid token. It is
// distinct from authentication failures so callers can re-render a form instead of rejecting.
type ValidationError struct {
	Reason string
}

// NewValidationError creates a validation error for reason.
func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return "csrf token validation failed"
	}
	return "csrf token validation failed: " + e.Reason
}

// Is matches any other *ValidationError.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

func (e *ValidationError) Unwrap() error {
	return errors.ErrForbidden
}

// ErrorCode is the machine-readable code sent to clients.
func (e *ValidationError) ErrorCode() string {
	return "csrf_validation_failed"
}
