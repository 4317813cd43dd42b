package domain

import "time"

// State is the position of an identity in the state machine.
type State string

const (
	StateClean    State = "clean"
	StateCounting State = "counting"
	StateBanned   State = "banned"
)

// Record is the abuse-tracking state of one network identity.
type Record struct {
	Identity     string
	AttemptCount int
	WindowStart  time.Time
	BannedUntil  time.Time
}

// NewRecord returns a CLEAN record for identity.
func NewRecord(identity string) *Record {
	return &Record{Identity: identity}
}

// State evaluates the record at now without mutating it.
func (r *Record) State(now time.Time, policy Policy) State {
	if !r.BannedUntil.IsZero() && now.Before(r.BannedUntil) {
		return StateBanned
	}
	if !r.BannedUntil.IsZero() {
		return StateClean
	}
	if r.AttemptCount == 0 || now.Sub(r.WindowStart) > policy.Window {
		return StateClean
	}
	return StateCounting
}

// Idle reports whether the record has lapsed back to CLEAN and may be dropped.
func (r *Record) Idle(now time.Time, policy Policy) bool {
	return r.State(now, policy) == StateClean
}

func (r *Record) reset() {
	r.AttemptCount = 0
	r.WindowStart = time.Time{}
	r.BannedUntil = time.Time{}
}

// Status is a read-only view of a record for administration.
type Status struct {
	Identity    string
	State       State
	Attempts    int
	WindowStart *time.Time
	BannedUntil *time.Time
	RetryAfter  time.Duration
}

// Status returns the administrative view of the record at now.
func (r *Record) Status(now time.Time, policy Policy) Status {
	status := Status{
		Identity: r.Identity,
		State:    r.State(now, policy),
	}

	switch status.State {
	case StateBanned:
		bannedUntil := r.BannedUntil
		status.Attempts = r.AttemptCount
		status.BannedUntil = &bannedUntil
		status.RetryAfter = r.BannedUntil.Sub(now)
	case StateCounting:
		windowStart := r.WindowStart
		status.Attempts = r.AttemptCount
		status.WindowStart = &windowStart
	}

	return status
}
