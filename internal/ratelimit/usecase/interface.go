// Package usecase implements the in-memory ban policy keyed by network identity.
package usecase

import (
	"context"

	ratelimitDomain "github.com/allisson/secpolicy/internal/ratelimit/domain"
)

// RateLimiter evaluates and administers per-identity request volume.
type RateLimiter interface {
	// Check counts one request for identity and returns the decision.
	Check(ctx context.Context, identity string) (ratelimitDomain.Decision, error)

	// Status returns the current state of identity without counting a request.
	Status(ctx context.Context, identity string) (ratelimitDomain.Status, error)

	// Reset clears identity back to CLEAN. It reports whether a record existed.
	Reset(ctx context.Context, identity string) (bool, error)

	// Sweep drops records that lapsed back to CLEAN and returns how many were removed.
	Sweep(ctx context.Context) int

	// Len returns the number of tracked identities.
	Len() int

	// Start runs the background sweeper until Stop or ctx cancellation.
	Start(ctx context.Context)

	// Stop halts the sweeper and waits for it to exit.
	Stop()
}
