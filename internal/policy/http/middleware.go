// Package http provides the HTTP surface of the security policy: the policy middleware that
// guards every /v1 route, the CSRF token endpoint and the field encryption endpoints.
package http

import (
	"log/slog"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/allisson/secpolicy/internal/httputil"
	policyDomain "github.com/allisson/secpolicy/internal/policy/domain"
	policyUseCase "github.com/allisson/secpolicy/internal/policy/usecase"
)

// SessionConfig names where the session id and CSRF token are read from.
type SessionConfig struct {
	CookieName     string
	HeaderName     string
	CsrfHeaderName string
}

// DefaultSessionConfig returns the default cookie and header names.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		CookieName:     "session_id",
		HeaderName:     "X-Session-Id",
		CsrfHeaderName: "X-CSRF-Token",
	}
}

// NewRequestContext builds the policy view of a request. The identity is the client IP as
// resolved by gin against the trusted proxy list, never the session.
func NewRequestContext(c *gin.Context, cfg SessionConfig) policyDomain.RequestContext {
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}

	return policyDomain.RequestContext{
		Identity:  c.ClientIP(),
		SessionID: sessionID(c, cfg),
		RequestID: httputil.RequestID(c),
		Method:    c.Request.Method,
		Path:      path,
		UserAgent: c.Request.UserAgent(),
	}
}

func sessionID(c *gin.Context, cfg SessionConfig) string {
	if cfg.CookieName != "" {
		if cookie, err := c.Cookie(cfg.CookieName); err == nil && cookie != "" {
			return cookie
		}
	}
	if cfg.HeaderName != "" {
		return c.GetHeader(cfg.HeaderName)
	}
	return ""
}

// PolicyMiddleware enforces the security policy on every request:
//  1. Rate limit and ban check keyed by client IP
//  2. CSRF token check for POST, PUT, PATCH and DELETE
//  3. Screening of query string values against the blocked patterns
//
// The request context is stored for downstream handlers via GetRequestContext.
func PolicyMiddleware(
	policy policyUseCase.SecurityPolicy,
	cfg SessionConfig,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := NewRequestContext(c, cfg)
		ctx := c.Request.Context()

		if err := policy.CheckRequest(ctx, request, c.GetHeader(cfg.CsrfHeaderName)); err != nil {
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		if err := policy.ScreenInput(ctx, request, queryFields(c.Request.URL.Query())); err != nil {
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(WithRequestContext(ctx, request))
		c.Next()
	}
}

// RateLimitMiddleware applies only the rate limit and ban check. It guards routes that are
// not cookie-authenticated (the admin API) where CSRF does not apply.
func RateLimitMiddleware(
	policy policyUseCase.SecurityPolicy,
	cfg SessionConfig,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := NewRequestContext(c, cfg)
		ctx := c.Request.Context()

		if err := policy.CheckRateLimit(ctx, request); err != nil {
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(WithRequestContext(ctx, request))
		c.Next()
	}
}

// queryFields flattens query values; repeated keys are screened under an indexed name.
func queryFields(values url.Values) map[string]string {
	if len(values) == 0 {
		return nil
	}

	fields := make(map[string]string, len(values))
	for key, list := range values {
		for i, value := range list {
			name := key
			if i > 0 {
				name = key + "[" + strconv.Itoa(i) + "]"
			}
			fields[name] = value
		}
	}
	return fields
}
