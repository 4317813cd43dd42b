package app

import (
	"fmt"

	adminService "github.com/allisson/secpolicy/internal/admin/service"
	auditHTTP "github.com/allisson/secpolicy/internal/audit/http"
	"github.com/allisson/secpolicy/internal/config"
	cryptoHTTP "github.com/allisson/secpolicy/internal/crypto/http"
	csrfDomain "github.com/allisson/secpolicy/internal/csrf/domain"
	csrfUseCase "github.com/allisson/secpolicy/internal/csrf/usecase"
	"github.com/allisson/secpolicy/internal/http"
	policyDomain "github.com/allisson/secpolicy/internal/policy/domain"
	policyHTTP "github.com/allisson/secpolicy/internal/policy/http"
	policyUseCase "github.com/allisson/secpolicy/internal/policy/usecase"
	ratelimitDomain "github.com/allisson/secpolicy/internal/ratelimit/domain"
	ratelimitHTTP "github.com/allisson/secpolicy/internal/ratelimit/http"
	ratelimitUseCase "github.com/allisson/secpolicy/internal/ratelimit/usecase"
)

// RateLimiter returns the in-memory ban policy.
func (c *Container) RateLimiter() (ratelimitUseCase.RateLimiter, error) {
	var err error
	c.rateLimiterInit.Do(func() {
		c.rateLimiter, err = c.initRateLimiter()
		if err != nil {
			c.initErrors["rateLimiter"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["rateLimiter"]; exists {
		return nil, storedErr
	}
	return c.rateLimiter, nil
}

// TokenManager returns the CSRF token manager.
func (c *Container) TokenManager() (csrfUseCase.TokenManager, error) {
	var err error
	c.tokenManagerInit.Do(func() {
		c.tokenManager, err = c.initTokenManager()
		if err != nil {
			c.initErrors["tokenManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenManager"]; exists {
		return nil, storedErr
	}
	return c.tokenManager, nil
}

// Screener returns the input screener with the default blocked patterns.
func (c *Container) Screener() *policyDomain.Screener {
	c.screenerInit.Do(func() {
		c.screener = policyDomain.NewScreener(
			policyDomain.DefaultBlockedPatterns(),
			policyDomain.DefaultMaxInputLength,
		)
	})
	return c.screener
}

// SecurityPolicy returns the security policy facade.
func (c *Container) SecurityPolicy() (policyUseCase.SecurityPolicy, error) {
	var err error
	c.securityPolicyInit.Do(func() {
		c.securityPolicy, err = c.initSecurityPolicy()
		if err != nil {
			c.initErrors["securityPolicy"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["securityPolicy"]; exists {
		return nil, storedErr
	}
	return c.securityPolicy, nil
}

// AdminTokenService returns the admin token service.
func (c *Container) AdminTokenService() adminService.TokenService {
	c.adminTokenServiceInit.Do(func() {
		c.adminTokenService = adminService.NewTokenService()
	})
	return c.adminTokenService
}

// AdminVerifier returns the admin bearer token verifier. It is disabled when ADMIN_TOKEN_HASH is empty.
func (c *Container) AdminVerifier() adminService.TokenVerifier {
	c.adminVerifierInit.Do(func() {
		c.adminVerifier = adminService.NewTokenVerifier(c.AdminTokenService(), c.config.AdminTokenHash)
	})
	return c.adminVerifier
}

// SessionConfig returns where the session id and CSRF token are read from.
func (c *Container) SessionConfig() policyHTTP.SessionConfig {
	return policyHTTP.SessionConfig{
		CookieName:     c.config.SessionCookieName,
		HeaderName:     c.config.SessionHeaderName,
		CsrfHeaderName: c.config.CsrfHeaderName,
	}
}

// initRateLimiter creates the ban policy from the configured thresholds.
func (c *Container) initRateLimiter() (ratelimitUseCase.RateLimiter, error) {
	rateLimiter, err := ratelimitUseCase.NewBanPolicy(
		ratelimitDomain.Policy{
			MaxAttempts: c.config.RateLimitMaxAttempts,
			Window:      c.config.RateLimitWindow,
			BanDuration: c.config.RateLimitBanDuration,
		},
		c.Logger(),
		ratelimitUseCase.WithSweepInterval(c.config.RateLimitSweepInterval),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ban policy: %w", err)
	}
	return rateLimiter, nil
}

// initTokenManager creates the CSRF token manager.
func (c *Container) initTokenManager() (csrfUseCase.TokenManager, error) {
	tokenManager, err := csrfUseCase.NewTokenManager(
		csrfDomain.Config{
			TokenLength: c.config.CsrfTokenLength,
			Expire:      c.config.CsrfExpire,
		},
		c.Logger(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create csrf token manager: %w", err)
	}
	return tokenManager, nil
}

// initSecurityPolicy assembles the facade over the rate limiter, token manager, cipher and screener.
func (c *Container) initSecurityPolicy() (policyUseCase.SecurityPolicy, error) {
	rateLimiter, err := c.RateLimiter()
	if err != nil {
		return nil, fmt.Errorf("failed to get rate limiter for security policy: %w", err)
	}

	tokenManager, err := c.TokenManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get token manager for security policy: %w", err)
	}

	cipher, err := c.Cipher()
	if err != nil {
		return nil, fmt.Errorf("failed to get cipher for security policy: %w", err)
	}

	dispatcher, err := c.Dispatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to get dispatcher for security policy: %w", err)
	}

	basePolicy := policyUseCase.NewSecurityPolicy(
		rateLimiter,
		tokenManager,
		cipher,
		c.Screener(),
		dispatcher,
		c.Logger(),
	)

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for security policy: %w", err)
		}
		return policyUseCase.NewSecurityPolicyWithMetrics(basePolicy, businessMetrics), nil
	}

	return basePolicy, nil
}

// routerDependencies builds every handler mounted by the HTTP server.
func (c *Container) routerDependencies() (http.RouterDependencies, error) {
	logger := c.Logger()
	session := c.SessionConfig()

	securityPolicy, err := c.SecurityPolicy()
	if err != nil {
		return http.RouterDependencies{}, fmt.Errorf("failed to get security policy: %w", err)
	}

	keyManager, err := c.KeyManager()
	if err != nil {
		return http.RouterDependencies{}, fmt.Errorf("failed to get key manager: %w", err)
	}

	rateLimiter, err := c.RateLimiter()
	if err != nil {
		return http.RouterDependencies{}, fmt.Errorf("failed to get rate limiter: %w", err)
	}

	dispatcher, err := c.Dispatcher()
	if err != nil {
		return http.RouterDependencies{}, fmt.Errorf("failed to get dispatcher: %w", err)
	}

	metricsProvider, err := c.MetricsProvider()
	if err != nil {
		return http.RouterDependencies{}, fmt.Errorf("failed to get metrics provider: %w", err)
	}

	deps := http.RouterDependencies{
		SecurityPolicy:   securityPolicy,
		KeyManager:       keyManager,
		CsrfHandler:      policyHTTP.NewCsrfHandler(securityPolicy, session, logger),
		FieldHandler:     policyHTTP.NewFieldHandler(securityPolicy, session, logger),
		KeyHandler:       cryptoHTTP.NewKeyHandler(keyManager, dispatcher, logger),
		RateLimitHandler: ratelimitHTTP.NewRateLimitHandler(rateLimiter, dispatcher, logger),
		AdminVerifier:    c.AdminVerifier(),
		Emitter:          dispatcher,
		MetricsProvider:  metricsProvider,
	}

	// Stored events can only be listed and verified when they are stored.
	if c.config.AuditSink == config.AuditSinkDatabase {
		securityEventUseCase, err := c.SecurityEventUseCase()
		if err != nil {
			return http.RouterDependencies{}, fmt.Errorf("failed to get security event use case: %w", err)
		}
		deps.SecurityEventHandler = auditHTTP.NewSecurityEventHandler(securityEventUseCase, logger)
	}

	return deps, nil
}
