// Package service provides stateless security event services.
package service

import (
	auditDomain "github.com/allisson/secpolicy/internal/audit/domain"
)

// EventSigner computes and checks tamper-evident signatures over security events.
type EventSigner interface {
	// Sign returns the HMAC-SHA256 signature of the event's canonical form.
	Sign(event *auditDomain.SecurityEvent) ([]byte, error)

	// Verify returns ErrSignatureInvalid when the stored signature does not match.
	Verify(event *auditDomain.SecurityEvent) error

	// Close zeroes the signing key.
	Close()
}
