// Package http provides the bearer authentication middleware guarding the admin API.
package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	adminService "github.com/allisson/secpolicy/internal/admin/service"
	auditDomain "github.com/allisson/secpolicy/internal/audit/domain"
	auditUseCase "github.com/allisson/secpolicy/internal/audit/usecase"
	apperrors "github.com/allisson/secpolicy/internal/errors"
	"github.com/allisson/secpolicy/internal/httputil"
)

const bearerPrefix = "bearer "

// AuthenticationMiddleware requires "Authorization: Bearer <admin token>".
//
// Error handling:
//   - Admin token not configured → 403 Forbidden
//   - Missing, malformed or wrong token → 401 Unauthorized and an admin_auth_failed event
func AuthenticationMiddleware(
	verifier adminService.TokenVerifier,
	emitter auditUseCase.Emitter,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !verifier.Enabled() {
			httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrForbidden, "admin api is disabled"), logger)
			c.Abort()
			return
		}

		token, reason := bearerToken(c.GetHeader("Authorization"))
		if reason == "" && !verifier.Verify(token) {
			reason = "invalid_token"
		}

		if reason != "" {
			logger.Debug("admin authentication failed", slog.String("reason", reason))
			emitter.Emit(auditDomain.NewSecurityEvent(auditDomain.EventAdminAuthFailed, auditDomain.Subject{
				Identity:  c.ClientIP(),
				RequestID: httputil.RequestID(c),
				Method:    c.Request.Method,
				Path:      c.FullPath(),
				UserAgent: c.Request.UserAgent(),
			}, map[string]any{"reason": reason}))

			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		c.Next()
	}
}

// bearerToken extracts the token or returns the reason it could not.
func bearerToken(header string) (string, string) {
	if header == "" {
		return "", "missing_authorization"
	}
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", "malformed_authorization"
	}

	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", "malformed_authorization"
	}
	return token, ""
}
