package domain

import (
	"github.com/allisson/secpolicy/internal/errors"
)

var (
	// ErrSignatureInvalid indicates the event signature does not match its content.
	ErrSignatureInvalid = errors.Wrap(errors.ErrInvalidInput, "security event signature is invalid")

	// ErrInvalidTimeRange indicates a created_at range whose start is after its end.
	ErrInvalidTimeRange = errors.Wrap(errors.ErrInvalidInput, "invalid time range")

	// ErrDispatcherClosed indicates an emit after the dispatcher was closed.
	ErrDispatcherClosed = errors.New("security event dispatcher is closed")
)

// ErrSigningDisabled indicates a verification request while event signing is off.
var ErrSigningDisabled = errors.Wrap(errors.ErrUnavailable, "security event signing is disabled")
