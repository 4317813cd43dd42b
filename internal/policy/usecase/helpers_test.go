package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/secpolicy/internal/audit/domain"
	cryptoDomain "github.com/allisson/secpolicy/internal/crypto/domain"
	csrfDomain "github.com/allisson/secpolicy/internal/csrf/domain"
	csrfUseCase "github.com/allisson/secpolicy/internal/csrf/usecase"
	policyDomain "github.com/allisson/secpolicy/internal/policy/domain"
	ratelimitDomain "github.com/allisson/secpolicy/internal/ratelimit/domain"
	ratelimitUseCase "github.com/allisson/secpolicy/internal/ratelimit/usecase"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []*auditDomain.SecurityEvent
}

func (e *recordingEmitter) Emit(event *auditDomain.SecurityEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
}

func (e *recordingEmitter) Types() []auditDomain.EventType {
	e.mu.Lock()
	defer e.mu.Unlock()
	types := make([]auditDomain.EventType, 0, len(e.events))
	for _, event := range e.events {
		types = append(types, event.Type)
	}
	return types
}

type mockCipher struct {
	mock.Mock
}

func (m *mockCipher) Encrypt(ctx context.Context, plaintext, aad []byte) (*cryptoDomain.Envelope, error) {
	args := m.Called(ctx, plaintext, aad)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.Envelope), args.Error(1)
}

func (m *mockCipher) Decrypt(ctx context.Context, envelope *cryptoDomain.Envelope, aad []byte) ([]byte, error) {
	args := m.Called(ctx, envelope, aad)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type testPolicy struct {
	policy       SecurityPolicy
	rateLimiter  ratelimitUseCase.RateLimiter
	tokenManager csrfUseCase.TokenManager
	cipher       *mockCipher
	emitter      *recordingEmitter
	now          *time.Time
	mu           *sync.Mutex
}

func (p *testPolicy) advance(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	*p.now = p.now.Add(d)
}

func newTestPolicy(t *testing.T) *testPolicy {
	t.Helper()

	now := time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC)
	mu := &sync.Mutex{}
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	rateLimiter, err := ratelimitUseCase.NewBanPolicy(
		ratelimitDomain.DefaultPolicy(), discardLogger(), ratelimitUseCase.WithClock(clock))
	require.NoError(t, err)

	tokenManager, err := csrfUseCase.NewTokenManager(
		csrfDomain.DefaultConfig(), discardLogger(), csrfUseCase.WithClock(clock))
	require.NoError(t, err)

	cipher := &mockCipher{}
	emitter := &recordingEmitter{}
	screener := policyDomain.NewScreener(policyDomain.DefaultBlockedPatterns(), policyDomain.DefaultMaxInputLength)

	return &testPolicy{
		policy:       NewSecurityPolicy(rateLimiter, tokenManager, cipher, screener, emitter, discardLogger()),
		rateLimiter:  rateLimiter,
		tokenManager: tokenManager,
		cipher:       cipher,
		emitter:      emitter,
		now:          &now,
		mu:           mu,
	}
}
