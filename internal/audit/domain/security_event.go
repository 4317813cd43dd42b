// Package domain defines security events: the immutable records emitted whenever a request
// is denied, a ban starts, a decryption fails authentication or a key changes.
package domain

import (
	"maps"
	"time"

	"github.com/google/uuid"
)

// EventType identifies what happened.
type EventType string

const (
	EventRateLimitExceeded    EventType = "rate_limit_exceeded"
	EventIdentityBanned       EventType = "identity_banned"
	EventBanReset             EventType = "ban_reset"
	EventCsrfValidationFailed EventType = "csrf_validation_failed"
	EventAuthenticationFailed EventType = "authentication_failed"
	EventSuspiciousInput      EventType = "suspicious_input"
	EventKeyRotated           EventType = "key_rotated"
	EventKeyExported          EventType = "key_exported"
	EventKeyImported          EventType = "key_imported"
	EventAdminAuthFailed      EventType = "admin_auth_failed"
)

// Severity ranks events for alerting.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// DefaultSeverity returns the severity an event type is recorded with.
func DefaultSeverity(eventType EventType) Severity {
	switch eventType {
	case EventIdentityBanned, EventAuthenticationFailed, EventKeyExported, EventAdminAuthFailed:
		return SeverityCritical
	case EventRateLimitExceeded, EventCsrfValidationFailed, EventSuspiciousInput, EventKeyImported:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// Subject describes the request an event is about. Raw identity and session values are
// masked when the event is built and never stored.
type Subject struct {
	Identity  string
	SessionID string
	RequestID string
	Method    string
	Path      string
	UserAgent string
}

// SecurityEvent is one audit record. Dispatchers store a private copy so the emitter cannot
// mutate an event after emitting it.
type SecurityEvent struct {
	ID         uuid.UUID
	Type       EventType
	Severity   Severity
	Identity   string
	SessionRef string
	RequestID  string
	Method     string
	Path       string
	UserAgent  string
	Metadata   map[string]any
	CreatedAt  time.Time
	Signature  []byte
}

// NewSecurityEvent builds an event for subject with masked identity and session.
func NewSecurityEvent(eventType EventType, subject Subject, metadata map[string]any) *SecurityEvent {
	return &SecurityEvent{
		ID:         uuid.Must(uuid.NewV7()),
		Type:       eventType,
		Severity:   DefaultSeverity(eventType),
		Identity:   MaskIdentity(subject.Identity),
		SessionRef: MaskIdentity(subject.SessionID),
		RequestID:  subject.RequestID,
		Method:     subject.Method,
		Path:       subject.Path,
		UserAgent:  truncate(subject.UserAgent, maxUserAgentLength),
		Metadata:   metadata,
		// SQL stores keep microseconds and the signature covers CreatedAt
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

// Clone returns a deep copy of the event.
func (e *SecurityEvent) Clone() *SecurityEvent {
	clone := *e
	if e.Metadata != nil {
		clone.Metadata = maps.Clone(e.Metadata)
	}
	if e.Signature != nil {
		clone.Signature = append([]byte(nil), e.Signature...)
	}
	return &clone
}

// IsSigned reports whether the event carries a signature.
func (e *SecurityEvent) IsSigned() bool {
	return len(e.Signature) > 0
}

const maxUserAgentLength = 512

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
