// Package dto provides data transfer objects for security event HTTP requests and responses.
package dto

import (
	"encoding/hex"
	"time"

	auditDomain "github.com/allisson/secpolicy/internal/audit/domain"
)

// SecurityEventResponse represents a security event in API responses.
type SecurityEventResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Severity   string         `json:"severity"`
	Identity   string         `json:"identity,omitempty"`
	SessionRef string         `json:"session_ref,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Method     string         `json:"method,omitempty"`
	Path       string         `json:"path,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Signature  string         `json:"signature,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// MapSecurityEventToResponse converts a domain security event to an API response.
func MapSecurityEventToResponse(event *auditDomain.SecurityEvent) SecurityEventResponse {
	response := SecurityEventResponse{
		ID:         event.ID.String(),
		Type:       string(event.Type),
		Severity:   string(event.Severity),
		Identity:   event.Identity,
		SessionRef: event.SessionRef,
		RequestID:  event.RequestID,
		Method:     event.Method,
		Path:       event.Path,
		UserAgent:  event.UserAgent,
		Metadata:   event.Metadata,
		CreatedAt:  event.CreatedAt,
	}
	if event.IsSigned() {
		response.Signature = hex.EncodeToString(event.Signature)
	}
	return response
}

// ListSecurityEventsResponse represents a paginated list of security events.
type ListSecurityEventsResponse struct {
	Data []SecurityEventResponse `json:"data"`
}

// MapSecurityEventsToListResponse converts domain events to a list API response.
func MapSecurityEventsToListResponse(events []*auditDomain.SecurityEvent) ListSecurityEventsResponse {
	responses := make([]SecurityEventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, MapSecurityEventToResponse(event))
	}
	return ListSecurityEventsResponse{
		Data: responses,
	}
}
