package usecase

import (
	"context"
	"log/slog"

	auditDomain "github.com/allisson/secpolicy/internal/audit/domain"
	auditUseCase "github.com/allisson/secpolicy/internal/audit/usecase"
	cryptoDomain "github.com/allisson/secpolicy/internal/crypto/domain"
	cryptoUseCase "github.com/allisson/secpolicy/internal/crypto/usecase"
	csrfDomain "github.com/allisson/secpolicy/internal/csrf/domain"
	csrfUseCase "github.com/allisson/secpolicy/internal/csrf/usecase"
	apperrors "github.com/allisson/secpolicy/internal/errors"
	policyDomain "github.com/allisson/secpolicy/internal/policy/domain"
	ratelimitUseCase "github.com/allisson/secpolicy/internal/ratelimit/usecase"
)

type securityPolicy struct {
	rateLimiter  ratelimitUseCase.RateLimiter
	tokenManager csrfUseCase.TokenManager
	cipher       cryptoUseCase.Cipher
	screener     *policyDomain.Screener
	emitter      auditUseCase.Emitter
	logger       *slog.Logger
}

// NewSecurityPolicy creates the facade over its collaborators.
func NewSecurityPolicy(
	rateLimiter ratelimitUseCase.RateLimiter,
	tokenManager csrfUseCase.TokenManager,
	cipher cryptoUseCase.Cipher,
	screener *policyDomain.Screener,
	emitter auditUseCase.Emitter,
	logger *slog.Logger,
) SecurityPolicy {
	return &securityPolicy{
		rateLimiter:  rateLimiter,
		tokenManager: tokenManager,
		cipher:       cipher,
		screener:     screener,
		emitter:      emitter,
		logger:       logger,
	}
}

func (p *securityPolicy) CheckRateLimit(ctx context.Context, request policyDomain.RequestContext) error {
	decision, err := p.rateLimiter.Check(ctx, request.Identity)
	if err != nil {
		return err
	}

	if decision.Allowed {
		return nil
	}

	eventType := auditDomain.EventRateLimitExceeded
	if decision.NewlyBanned {
		eventType = auditDomain.EventIdentityBanned
	}
	p.emit(eventType, request, map[string]any{
		"attempts":            decision.Attempts,
		"retry_after_seconds": int64(decision.RetryAfter.Seconds()),
	})

	return decision.Err()
}

func (p *securityPolicy) CheckRequest(
	ctx context.Context,
	request policyDomain.RequestContext,
	csrfToken string,
) error {
	if err := p.CheckRateLimit(ctx, request); err != nil {
		return err
	}

	if !request.IsStateChanging() {
		return nil
	}

	if err := p.tokenManager.Validate(ctx, request.SessionID, csrfToken); err != nil {
		metadata := map[string]any{}
		var validationErr *csrfDomain.ValidationError
		if apperrors.As(err, &validationErr) {
			metadata["reason"] = validationErr.Reason
		}
		p.emit(auditDomain.EventCsrfValidationFailed, request, metadata)
		return err
	}

	return nil
}

func (p *securityPolicy) IssueCsrfToken(
	ctx context.Context,
	request policyDomain.RequestContext,
) (*csrfDomain.CsrfToken, error) {
	return p.tokenManager.Issue(ctx, request.SessionID)
}

func (p *securityPolicy) EndSession(ctx context.Context, request policyDomain.RequestContext) (bool, error) {
	if request.SessionID == "" {
		return false, csrfDomain.ErrEmptySession
	}

	ended := p.tokenManager.Invalidate(ctx, request.SessionID)
	p.logger.Debug("csrf session ended", slog.String("identity", request.Identity), slog.Bool("had_token", ended))
	return ended, nil
}

func (p *securityPolicy) EncryptField(
	ctx context.Context,
	request policyDomain.RequestContext,
	plaintext, aad []byte,
) (*cryptoDomain.Envelope, error) {
	return p.cipher.Encrypt(ctx, plaintext, aad)
}

func (p *securityPolicy) DecryptField(
	ctx context.Context,
	request policyDomain.RequestContext,
	envelope *cryptoDomain.Envelope,
	aad []byte,
) ([]byte, error) {
	plaintext, err := p.cipher.Decrypt(ctx, envelope, aad)
	if err != nil {
		if apperrors.Is(err, cryptoDomain.ErrAuthenticationFailed) {
			p.emit(auditDomain.EventAuthenticationFailed, request, map[string]any{
				"key_id": envelope.KeyID.String(),
			})
		}
		return nil, err
	}

	return plaintext, nil
}

func (p *securityPolicy) ScreenInput(
	ctx context.Context,
	request policyDomain.RequestContext,
	fields map[string]string,
) error {
	if err := p.screener.Screen(fields); err != nil {
		metadata := map[string]any{}
		var suspicious *policyDomain.SuspiciousInputError
		if apperrors.As(err, &suspicious) {
			metadata["field"] = suspicious.Field
			metadata["rule"] = suspicious.Rule
		}
		p.emit(auditDomain.EventSuspiciousInput, request, metadata)
		return err
	}

	return nil
}

func (p *securityPolicy) emit(
	eventType auditDomain.EventType,
	request policyDomain.RequestContext,
	metadata map[string]any,
) {
	p.emitter.Emit(auditDomain.NewSecurityEvent(eventType, request.Subject(), metadata))
}
