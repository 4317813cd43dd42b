package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/secpolicy/internal/httputil"
	"github.com/allisson/secpolicy/internal/policy/http/dto"
	policyUseCase "github.com/allisson/secpolicy/internal/policy/usecase"
)

// CsrfHandler issues CSRF tokens bound to the caller's session.
type CsrfHandler struct {
	policy policyUseCase.SecurityPolicy
	cfg    SessionConfig
	logger *slog.Logger
}

// NewCsrfHandler creates a new CSRF token handler.
func NewCsrfHandler(policy policyUseCase.SecurityPolicy, cfg SessionConfig, logger *slog.Logger) *CsrfHandler {
	return &CsrfHandler{
		policy: policy,
		cfg:    cfg,
		logger: logger,
	}
}

// IssueHandler returns the session's CSRF token, issuing one when none is live.
// GET /v1/csrf-token - Requires a session cookie or header.
// Returns 200 OK with {token, expires_at}; 422 when the request carries no session.
func (h *CsrfHandler) IssueHandler(c *gin.Context) {
	request, ok := GetRequestContext(c.Request.Context())
	if !ok {
		request = NewRequestContext(c, h.cfg)
	}

	token, err := h.policy.IssueCsrfToken(c.Request.Context(), request)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, dto.MapCsrfTokenToResponse(token))
}

// RevokeHandler ends the session's CSRF token, typically on logout.
// DELETE /v1/csrf-token - Requires the session and its current CSRF token.
// Returns 204 No Content.
func (h *CsrfHandler) RevokeHandler(c *gin.Context) {
	request, ok := GetRequestContext(c.Request.Context())
	if !ok {
		request = NewRequestContext(c, h.cfg)
	}

	if _, err := h.policy.EndSession(c.Request.Context(), request); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}
