// Package errors holds the sentinels every security failure is classified under. Domain
// packages attach detail with Wrap or a typed error whose Unwrap returns one of them, and
// the HTTP layer only ever switches on the sentinel.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks settings the service cannot start with. Fatal at startup.
	ErrConfiguration = errors.New("configuration error")

	// ErrNotFound is returned for unknown key ids and events.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when imported key material collides with a retained key.
	ErrConflict = errors.New("conflict")

	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized covers a missing or wrong admin bearer token. Envelopes that fail
	// authentication are ErrInvalidInput.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden covers CSRF validation, disabled admin routes and disabled key export.
	// Blocked input is ErrInvalidInput.
	ErrForbidden = errors.New("forbidden")

	// ErrTooManyRequests is returned for rate limited and banned identities.
	ErrTooManyRequests = errors.New("too many requests")

	// ErrUnavailable is returned while no active key exists.
	ErrUnavailable = errors.New("unavailable")
)

// New returns a plain error. Prefer wrapping a sentinel.
func New(message string) error {
	return errors.New(message)
}

// Wrap prefixes err with message. A nil err stays nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is Wrap with a formatted prefix.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}
