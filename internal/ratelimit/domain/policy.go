// Package domain defines the per-identity rate limit and ban state machine.
//
// A record moves CLEAN -> COUNTING on its first request, COUNTING -> BANNED once the attempt
// count exceeds MaxAttempts inside one window, BANNED -> CLEAN lazily on the first request after
// the ban lapses, and COUNTING -> CLEAN once the window elapsed without a ban.
package domain

import (
	"fmt"
	"time"

	"github.com/allisson/secpolicy/internal/errors"
)

const (
	DefaultMaxAttempts = 5
	DefaultWindow      = 300 * time.Second
	DefaultBanDuration = 3600 * time.Second
)

// ErrInvalidPolicy indicates non-positive thresholds.
var ErrInvalidPolicy = errors.Wrap(errors.ErrConfiguration, "invalid rate limit policy")

// Policy holds the thresholds of the state machine.
type Policy struct {
	MaxAttempts int
	Window      time.Duration
	BanDuration time.Duration
}

// DefaultPolicy returns 5 attempts per 300 seconds with a one hour ban.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		Window:      DefaultWindow,
		BanDuration: DefaultBanDuration,
	}
}

// Validate checks that every threshold is positive.
func (p Policy) Validate() error {
	if p.MaxAttempts <= 0 {
		return errors.Wrapf(ErrInvalidPolicy, "max attempts must be positive, got %d", p.MaxAttempts)
	}
	if p.Window <= 0 {
		return errors.Wrapf(ErrInvalidPolicy, "window must be positive, got %s", p.Window)
	}
	if p.BanDuration <= 0 {
		return errors.Wrapf(ErrInvalidPolicy, "ban duration must be positive, got %s", p.BanDuration)
	}
	return nil
}

// Apply runs one request through the state machine, mutating record, and returns the decision.
// The caller serializes calls per identity.
func (p Policy) Apply(record *Record, now time.Time) Decision {
	if !record.BannedUntil.IsZero() {
		if now.Before(record.BannedUntil) {
			return Decision{
				Identity:   record.Identity,
				Allowed:    false,
				State:      StateBanned,
				Attempts:   record.AttemptCount,
				RetryAfter: record.BannedUntil.Sub(now),
			}
		}
		record.reset()
	}

	if record.AttemptCount > 0 && now.Sub(record.WindowStart) > p.Window {
		record.reset()
	}

	if record.AttemptCount == 0 {
		record.WindowStart = now
	}
	record.AttemptCount++

	if record.AttemptCount > p.MaxAttempts {
		record.BannedUntil = now.Add(p.BanDuration)
		return Decision{
			Identity:    record.Identity,
			Allowed:     false,
			State:       StateBanned,
			Attempts:    record.AttemptCount,
			RetryAfter:  p.BanDuration,
			NewlyBanned: true,
		}
	}

	return Decision{
		Identity: record.Identity,
		Allowed:  true,
		State:    StateCounting,
		Attempts: record.AttemptCount,
	}
}

func (p Policy) String() string {
	return fmt.Sprintf("%d attempts per %s, ban %s", p.MaxAttempts, p.Window, p.BanDuration)
}
