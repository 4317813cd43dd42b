// Package usecase implements the security policy facade that composes rate limiting,
// CSRF protection, field encryption and input screening at the request boundary.
package usecase

import (
	"context"

	cryptoDomain "github.com/allisson/secpolicy/internal/crypto/domain"
	csrfDomain "github.com/allisson/secpolicy/internal/csrf/domain"
	policyDomain "github.com/allisson/secpolicy/internal/policy/domain"
)

// SecurityPolicy is the single entry point the HTTP layer uses to enforce request policy.
// Every denial emits a security event; event delivery never changes a decision.
type SecurityPolicy interface {
	// CheckRateLimit counts the request against its identity and denies banned identities.
	CheckRateLimit(ctx context.Context, request policyDomain.RequestContext) error

	// CheckRequest runs CheckRateLimit first, then requires a valid CSRF token for
	// state-changing methods.
	CheckRequest(ctx context.Context, request policyDomain.RequestContext, csrfToken string) error

	// IssueCsrfToken returns the session's token, creating it on first need.
	IssueCsrfToken(ctx context.Context, request policyDomain.RequestContext) (*csrfDomain.CsrfToken, error)

	// EndSession discards the session's CSRF token so it cannot be replayed after logout.
	// It reports whether a token was live.
	EndSession(ctx context.Context, request policyDomain.RequestContext) (bool, error)

	// EncryptField seals a value for storage.
	EncryptField(
		ctx context.Context,
		request policyDomain.RequestContext,
		plaintext, aad []byte,
	) (*cryptoDomain.Envelope, error)

	// DecryptField opens a stored value. Authentication failures are reported as security events.
	DecryptField(
		ctx context.Context,
		request policyDomain.RequestContext,
		envelope *cryptoDomain.Envelope,
		aad []byte,
	) ([]byte, error)

	// ScreenInput rejects values matching a blocked pattern.
	ScreenInput(ctx context.Context, request policyDomain.RequestContext, fields map[string]string) error
}
