// Package domain defines the request view and input screening rules of the security policy.
package domain

import (
	"net/http"

	auditDomain "github.com/allisson/secpolicy/internal/audit/domain"
)

// RequestContext is what the HTTP layer hands the policy for one inbound request. Identity
// is the client network address; SessionID is empty for requests without a session.
type RequestContext struct {
	Identity  string
	SessionID string
	RequestID string
	Method    string
	Path      string
	UserAgent string
}

// IsStateChanging reports whether the method mutates server state and needs a CSRF token.
func (r RequestContext) IsStateChanging() bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

// Subject converts the request into the subject of a security event.
func (r RequestContext) Subject() auditDomain.Subject {
	return auditDomain.Subject{
		Identity:  r.Identity,
		SessionID: r.SessionID,
		RequestID: r.RequestID,
		Method:    r.Method,
		Path:      r.Path,
		UserAgent: r.UserAgent,
	}
}
