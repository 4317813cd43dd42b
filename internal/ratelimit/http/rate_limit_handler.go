package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	auditDomain "github.com/allisson/secpolicy/internal/audit/domain"
	auditUseCase "github.com/allisson/secpolicy/internal/audit/usecase"
	"github.com/allisson/secpolicy/internal/httputil"
	ratelimitUseCase "github.com/allisson/secpolicy/internal/ratelimit/usecase"
)

// RateLimitStatusResponse is the administrative view of one identity.
type RateLimitStatusResponse struct {
	Identity          string     `json:"identity"`
	State             string     `json:"state"`
	Attempts          int        `json:"attempts"`
	WindowStart       *time.Time `json:"window_start,omitempty"`
	BannedUntil       *time.Time `json:"banned_until,omitempty"`
	RetryAfterSeconds int64      `json:"retry_after_seconds,omitempty"`
}

// RateLimitHandler handles rate limit administration.
type RateLimitHandler struct {
	rateLimiter ratelimitUseCase.RateLimiter
	emitter     auditUseCase.Emitter
	logger      *slog.Logger
}

// NewRateLimitHandler creates a new rate limit handler.
func NewRateLimitHandler(
	rateLimiter ratelimitUseCase.RateLimiter,
	emitter auditUseCase.Emitter,
	logger *slog.Logger,
) *RateLimitHandler {
	return &RateLimitHandler{
		rateLimiter: rateLimiter,
		emitter:     emitter,
		logger:      logger,
	}
}

// StatusHandler returns the state of an identity.
// GET /v1/admin/rate-limits/:identity
func (h *RateLimitHandler) StatusHandler(c *gin.Context) {
	status, err := h.rateLimiter.Status(c.Request.Context(), c.Param("identity"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, RateLimitStatusResponse{
		Identity:          status.Identity,
		State:             string(status.State),
		Attempts:          status.Attempts,
		WindowStart:       status.WindowStart,
		BannedUntil:       status.BannedUntil,
		RetryAfterSeconds: int64(status.RetryAfter.Seconds()),
	})
}

// ResetHandler clears an identity back to CLEAN.
// DELETE /v1/admin/rate-limits/:identity
func (h *RateLimitHandler) ResetHandler(c *gin.Context) {
	identity := c.Param("identity")

	existed, err := h.rateLimiter.Reset(c.Request.Context(), identity)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	if existed {
		h.emitter.Emit(auditDomain.NewSecurityEvent(auditDomain.EventBanReset, auditDomain.Subject{
			Identity:  identity,
			RequestID: httputil.RequestID(c),
			Method:    c.Request.Method,
			Path:      c.FullPath(),
			UserAgent: c.Request.UserAgent(),
		}, nil))
	}

	c.Status(http.StatusNoContent)
}
