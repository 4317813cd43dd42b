// Package usecase implements the CSRF token lifecycle.
package usecase

import (
	"context"

	csrfDomain "github.com/allisson/secpolicy/internal/csrf/domain"
)

// TokenManager issues and checks per-session anti-forgery tokens.
type TokenManager interface {
	// Issue returns the session's valid token, creating one when none exists or it expired.
	Issue(ctx context.Context, sessionID string) (*csrfDomain.CsrfToken, error)

	// Verify reports whether token is the session's valid token. Comparison is constant-time.
	Verify(ctx context.Context, sessionID, token string) bool

	// Validate is Verify returning a *ValidationError carrying the failure reason.
	Validate(ctx context.Context, sessionID, token string) error

	// Invalidate discards the session's token. It reports whether one existed.
	Invalidate(ctx context.Context, sessionID string) bool

	// Sweep purges expired tokens and returns how many were removed.
	Sweep(ctx context.Context) int

	// Len returns the number of stored tokens.
	Len() int

	// Start runs the background sweeper until Stop or ctx cancellation.
	Start(ctx context.Context)

	// Stop halts the sweeper and waits for it to exit.
	Stop()
}
