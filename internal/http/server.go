// Package http provides the HTTP server, router and cross-cutting middleware.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	adminHTTP "github.com/allisson/secpolicy/internal/admin/http"
	adminService "github.com/allisson/secpolicy/internal/admin/service"
	auditHTTP "github.com/allisson/secpolicy/internal/audit/http"
	auditUseCase "github.com/allisson/secpolicy/internal/audit/usecase"
	"github.com/allisson/secpolicy/internal/config"
	cryptoHTTP "github.com/allisson/secpolicy/internal/crypto/http"
	cryptoUseCase "github.com/allisson/secpolicy/internal/crypto/usecase"
	"github.com/allisson/secpolicy/internal/metrics"
	policyHTTP "github.com/allisson/secpolicy/internal/policy/http"
	policyUseCase "github.com/allisson/secpolicy/internal/policy/usecase"
	ratelimitHTTP "github.com/allisson/secpolicy/internal/ratelimit/http"
)

// Server represents the HTTP server.
type Server struct {
	db         *sql.DB
	keyManager cryptoUseCase.KeyManager
	server     *http.Server
	logger     *slog.Logger
	router     *gin.Engine
}

// RouterDependencies holds everything SetupRouter mounts.
type RouterDependencies struct {
	SecurityPolicy       policyUseCase.SecurityPolicy
	KeyManager           cryptoUseCase.KeyManager
	CsrfHandler          *policyHTTP.CsrfHandler
	FieldHandler         *policyHTTP.FieldHandler
	KeyHandler           *cryptoHTTP.KeyHandler
	RateLimitHandler     *ratelimitHTTP.RateLimitHandler
	SecurityEventHandler *auditHTTP.SecurityEventHandler
	AdminVerifier        adminService.TokenVerifier
	Emitter              auditUseCase.Emitter
	MetricsProvider      *metrics.Provider
}

// NewServer creates a new HTTP server. db is optional; when set, readiness pings it.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: newHTTPServer(host, port),
	}
}

// SetupRouter builds the gin engine.
//
// Middleware order on /v1: throttle, then the policy middleware (rate limit and ban, CSRF for
// state-changing methods, query screening). The admin group replaces the policy middleware
// with the rate limit check and bearer authentication; it is not cookie-authenticated so
// CSRF does not apply.
func (s *Server) SetupRouter(ctx context.Context, cfg *config.Config, deps RouterDependencies) error {
	router := gin.New()

	if err := router.SetTrustedProxies(cfg.TrustedProxyList()); err != nil {
		return fmt.Errorf("failed to set trusted proxies: %w", err)
	}

	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if cfg.SecurityHeadersEnabled {
		router.Use(SecurityHeadersMiddleware(SecurityHeadersConfig{
			ContentSecurityPolicy: cfg.ContentSecurityPolicy,
			HSTS:                  cfg.HSTSEnabled,
		}))
	}
	if cors := corsMiddleware(cfg, s.logger); cors != nil {
		router.Use(cors)
	}
	if deps.MetricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(deps.MetricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	s.keyManager = deps.KeyManager

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	var throttle []gin.HandlerFunc
	if cfg.ThrottleEnabled {
		throttle = append(throttle, ratelimitHTTP.ThrottleMiddleware(
			ctx, cfg.ThrottleRequestsPerSec, cfg.ThrottleBurst, s.logger))
	}

	session := policyHTTP.SessionConfig{
		CookieName:     cfg.SessionCookieName,
		HeaderName:     cfg.SessionHeaderName,
		CsrfHeaderName: cfg.CsrfHeaderName,
	}

	// Admin routes
	admin := router.Group("/v1/admin")
	admin.Use(throttle...)
	admin.Use(policyHTTP.RateLimitMiddleware(deps.SecurityPolicy, session, s.logger))
	admin.Use(adminHTTP.AuthenticationMiddleware(deps.AdminVerifier, deps.Emitter, s.logger))
	{
		admin.POST("/keys/rotate", deps.KeyHandler.RotateHandler)
		admin.GET("/keys", deps.KeyHandler.ListHandler)
		admin.POST("/keys/export", deps.KeyHandler.ExportHandler)
		admin.POST("/keys/import", deps.KeyHandler.ImportHandler)

		admin.GET("/rate-limits/:identity", deps.RateLimitHandler.StatusHandler)
		admin.DELETE("/rate-limits/:identity", deps.RateLimitHandler.ResetHandler)

		if deps.SecurityEventHandler != nil {
			admin.GET("/security-events", deps.SecurityEventHandler.ListHandler)
			admin.POST("/security-events/verify", deps.SecurityEventHandler.VerifyHandler)
		}
	}

	// Public routes
	v1 := router.Group("/v1")
	v1.Use(throttle...)
	v1.Use(policyHTTP.PolicyMiddleware(deps.SecurityPolicy, session, s.logger))
	{
		v1.GET("/csrf-token", deps.CsrfHandler.IssueHandler)
		v1.DELETE("/csrf-token", deps.CsrfHandler.RevokeHandler)
		v1.POST("/fields/encrypt", deps.FieldHandler.EncryptHandler)
		v1.POST("/fields/decrypt", deps.FieldHandler.DecryptHandler)
	}

	s.router = router
	return nil
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the HTTP server. SetupRouter must be called first.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router not initialized")
	}
	s.server.Handler = s.router

	return serve(s.server, s.logger, "http server")
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// healthHandler reports liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the key ring serves a current key and, when an SQL audit
// sink is configured, whether the database answers.
func (s *Server) readinessHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	ready := true
	components := gin.H{}

	if s.keyManager == nil {
		ready = false
		components["keys"] = "error"
	} else if _, err := s.keyManager.Current(ctx); err != nil {
		ready = false
		components["keys"] = "error"
	} else {
		components["keys"] = "ok"
	}

	if s.db != nil {
		if err := s.db.PingContext(ctx); err != nil {
			ready = false
			components["database"] = "error"
		} else {
			components["database"] = "ok"
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
}
