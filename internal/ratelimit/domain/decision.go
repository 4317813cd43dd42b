package domain

import (
	"fmt"
	"time"

	"github.com/allisson/secpolicy/internal/errors"
)

// Decision is the outcome of one rate limit check.
type Decision struct {
	Identity    string
	Allowed     bool
	State       State
	Attempts    int
	RetryAfter  time.Duration
	NewlyBanned bool
}

// Err returns nil for allowed requests and a *RateLimitExceededError otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return NewRateLimitExceededError(d.Identity, d.RetryAfter, d.State == StateBanned)
}

// RateLimitExceededError is the typed denial returned for a blocked identity.
type RateLimitExceededError struct {
	Identity   string
	Banned     bool
	retryAfter time.Duration
}

// NewRateLimitExceededError creates a denial for identity.
func NewRateLimitExceededError(identity string, retryAfter time.Duration, banned bool) *RateLimitExceededError {
	return &RateLimitExceededError{
		Identity:   identity,
		Banned:     banned,
		retryAfter: retryAfter,
	}
}

// Error does not include the identity so it can be logged as is.
func (e *RateLimitExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.retryAfter.Round(time.Second))
}

// RetryAfter is how long the caller must wait before the identity is allowed again.
func (e *RateLimitExceededError) RetryAfter() time.Duration {
	return e.retryAfter
}

func (e *RateLimitExceededError) Unwrap() error {
	return errors.ErrTooManyRequests
}

// ErrEmptyIdentity indicates a check without a network identity.
var ErrEmptyIdentity = errors.Wrap(errors.ErrInvalidInput, "identity is required")
