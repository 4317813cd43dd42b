package usecase

import (
	"context"
	"time"

	cryptoDomain "github.com/allisson/secpolicy/internal/crypto/domain"
	csrfDomain "github.com/allisson/secpolicy/internal/csrf/domain"
	apperrors "github.com/allisson/secpolicy/internal/errors"
	"github.com/allisson/secpolicy/internal/metrics"
	policyDomain "github.com/allisson/secpolicy/internal/policy/domain"
)

// securityPolicyWithMetrics decorates SecurityPolicy with metrics instrumentation.
type securityPolicyWithMetrics struct {
	next    SecurityPolicy
	metrics metrics.BusinessMetrics
}

// NewSecurityPolicyWithMetrics wraps a SecurityPolicy with metrics recording.
func NewSecurityPolicyWithMetrics(policy SecurityPolicy, m metrics.BusinessMetrics) SecurityPolicy {
	return &securityPolicyWithMetrics{
		next:    policy,
		metrics: m,
	}
}

func (s *securityPolicyWithMetrics) CheckRateLimit(ctx context.Context, request policyDomain.RequestContext) error {
	start := time.Now()
	err := s.next.CheckRateLimit(ctx, request)
	s.record(ctx, "check_rate_limit", start, err)
	return err
}

func (s *securityPolicyWithMetrics) CheckRequest(
	ctx context.Context,
	request policyDomain.RequestContext,
	csrfToken string,
) error {
	start := time.Now()
	err := s.next.CheckRequest(ctx, request, csrfToken)
	s.record(ctx, "check_request", start, err)
	return err
}

func (s *securityPolicyWithMetrics) IssueCsrfToken(
	ctx context.Context,
	request policyDomain.RequestContext,
) (*csrfDomain.CsrfToken, error) {
	start := time.Now()
	token, err := s.next.IssueCsrfToken(ctx, request)
	s.record(ctx, "csrf_issue", start, err)
	return token, err
}

func (s *securityPolicyWithMetrics) EndSession(
	ctx context.Context,
	request policyDomain.RequestContext,
) (bool, error) {
	start := time.Now()
	ended, err := s.next.EndSession(ctx, request)
	s.record(ctx, "csrf_end_session", start, err)
	return ended, err
}

func (s *securityPolicyWithMetrics) EncryptField(
	ctx context.Context,
	request policyDomain.RequestContext,
	plaintext, aad []byte,
) (*cryptoDomain.Envelope, error) {
	start := time.Now()
	envelope, err := s.next.EncryptField(ctx, request, plaintext, aad)
	s.record(ctx, "encrypt_field", start, err)
	return envelope, err
}

func (s *securityPolicyWithMetrics) DecryptField(
	ctx context.Context,
	request policyDomain.RequestContext,
	envelope *cryptoDomain.Envelope,
	aad []byte,
) ([]byte, error) {
	start := time.Now()
	plaintext, err := s.next.DecryptField(ctx, request, envelope, aad)
	s.record(ctx, "decrypt_field", start, err)
	return plaintext, err
}

func (s *securityPolicyWithMetrics) ScreenInput(
	ctx context.Context,
	request policyDomain.RequestContext,
	fields map[string]string,
) error {
	start := time.Now()
	err := s.next.ScreenInput(ctx, request, fields)
	s.record(ctx, "screen_input", start, err)
	return err
}

func (s *securityPolicyWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	s.metrics.Observe(ctx, "policy", operation, statusOf(err), time.Since(start))
}

// statusOf labels policy denials apart from failures.
func statusOf(err error) string {
	switch {
	case err == nil:
		return metrics.StatusSuccess
	case apperrors.Is(err, apperrors.ErrTooManyRequests):
		return "rate_limited"
	case apperrors.Is(err, csrfDomain.ErrCsrfValidation):
		return "csrf_rejected"
	case apperrors.Is(err, policyDomain.ErrSuspiciousInput):
		return "input_rejected"
	default:
		return metrics.StatusError
	}
}
