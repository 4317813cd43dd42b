// Package http provides HTTP handlers for security event administration.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	auditDomain "github.com/allisson/secpolicy/internal/audit/domain"
	"github.com/allisson/secpolicy/internal/audit/http/dto"
	auditUseCase "github.com/allisson/secpolicy/internal/audit/usecase"
	"github.com/allisson/secpolicy/internal/httputil"
)

// SecurityEventHandler handles HTTP requests for security event operations.
type SecurityEventHandler struct {
	securityEventUseCase auditUseCase.SecurityEventUseCase
	logger               *slog.Logger
}

// NewSecurityEventHandler creates a new security event handler with required dependencies.
func NewSecurityEventHandler(
	securityEventUseCase auditUseCase.SecurityEventUseCase,
	logger *slog.Logger,
) *SecurityEventHandler {
	return &SecurityEventHandler{
		securityEventUseCase: securityEventUseCase,
		logger:               logger,
	}
}

// ListHandler retrieves security events with pagination and optional filtering.
// GET /v1/admin/security-events?offset=0&limit=50&type=identity_banned&created_at_from=2026-02-01T00:00:00Z
// Both created_at boundaries are RFC3339, converted to UTC and inclusive.
func (h *SecurityEventHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	createdAtFrom, createdAtTo, err := httputil.ParseTimeRange(c, "created_at_from", "created_at_to")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	filter := auditDomain.EventFilter{
		Offset:        offset,
		Limit:         limit,
		Type:          auditDomain.EventType(c.Query("type")),
		CreatedAtFrom: createdAtFrom,
		CreatedAtTo:   createdAtTo,
	}

	events, err := h.securityEventUseCase.List(c.Request.Context(), filter)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSecurityEventsToListResponse(events))
}

// VerifyHandler checks the signatures of the matching events.
// POST /v1/admin/security-events/verify?created_at_from=...&created_at_to=...
func (h *SecurityEventHandler) VerifyHandler(c *gin.Context) {
	createdAtFrom, createdAtTo, err := httputil.ParseTimeRange(c, "created_at_from", "created_at_to")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	report, err := h.securityEventUseCase.Verify(c.Request.Context(), auditDomain.EventFilter{
		Type:          auditDomain.EventType(c.Query("type")),
		CreatedAtFrom: createdAtFrom,
		CreatedAtTo:   createdAtTo,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, report)
}
