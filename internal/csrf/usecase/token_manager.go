package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	csrfDomain "github.com/allisson/secpolicy/internal/csrf/domain"
)

// DefaultSweepInterval is used when a non-positive sweep interval is configured.
const DefaultSweepInterval = time.Minute

// TokenManagerOption configures optional TokenManager behavior.
type TokenManagerOption func(*tokenManager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) TokenManagerOption {
	return func(m *tokenManager) {
		m.now = now
	}
}

// WithSweepInterval overrides how often expired tokens are purged in the background.
func WithSweepInterval(interval time.Duration) TokenManagerOption {
	return func(m *tokenManager) {
		if interval > 0 {
			m.sweepInterval = interval
		}
	}
}

type tokenManager struct {
	config        csrfDomain.Config
	logger        *slog.Logger
	now           func() time.Time
	sweepInterval time.Duration

	mu     sync.Mutex
	tokens map[string]*csrfDomain.CsrfToken

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewTokenManager creates an in-memory TokenManager.
func NewTokenManager(
	config csrfDomain.Config,
	logger *slog.Logger,
	opts ...TokenManagerOption,
) (TokenManager, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	m := &tokenManager{
		config:        config,
		logger:        logger,
		now:           time.Now,
		sweepInterval: DefaultSweepInterval,
		tokens:        make(map[string]*csrfDomain.CsrfToken),
	}
	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

func (m *tokenManager) Issue(ctx context.Context, sessionID string) (*csrfDomain.CsrfToken, error) {
	if sessionID == "" {
		return nil, csrfDomain.ErrEmptySession
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if token, ok := m.tokens[sessionID]; ok && !token.Expired(now) {
		copied := *token
		return &copied, nil
	}

	value, err := randomToken(m.config.TokenLength)
	if err != nil {
		return nil, err
	}

	token := &csrfDomain.CsrfToken{
		Value:     value,
		SessionID: sessionID,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.config.Expire),
	}
	m.tokens[sessionID] = token

	copied := *token
	return &copied, nil
}

func (m *tokenManager) Verify(ctx context.Context, sessionID, token string) bool {
	return m.Validate(ctx, sessionID, token) == nil
}

func (m *tokenManager) Validate(ctx context.Context, sessionID, token string) error {
	if sessionID == "" {
		return csrfDomain.NewValidationError(csrfDomain.ReasonMissingSession)
	}
	if token == "" {
		return csrfDomain.NewValidationError(csrfDomain.ReasonMissingToken)
	}

	m.mu.Lock()
	stored, ok := m.tokens[sessionID]
	if ok && stored.Expired(m.now()) {
		delete(m.tokens, sessionID)
		m.mu.Unlock()
		return csrfDomain.NewValidationError(csrfDomain.ReasonExpired)
	}
	m.mu.Unlock()

	if !ok {
		return csrfDomain.NewValidationError(csrfDomain.ReasonNoToken)
	}

	// hashing first makes the comparison independent of the supplied length
	expected := sha256.Sum256([]byte(stored.Value))
	supplied := sha256.Sum256([]byte(token))
	if subtle.ConstantTimeCompare(expected[:], supplied[:]) != 1 {
		return csrfDomain.NewValidationError(csrfDomain.ReasonMismatch)
	}

	return nil
}

func (m *tokenManager) Invalidate(ctx context.Context, sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.tokens[sessionID]
	delete(m.tokens, sessionID)
	return ok
}

func (m *tokenManager) Sweep(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for sessionID, token := range m.tokens {
		if token.Expired(now) {
			delete(m.tokens, sessionID)
			removed++
		}
	}

	if removed > 0 {
		m.logger.Debug("swept expired csrf tokens", slog.Int("removed", removed), slog.Int("remaining", len(m.tokens)))
	}

	return removed
}

func (m *tokenManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

func (m *tokenManager) Start(ctx context.Context) {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if m.done != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.run(runCtx, m.done)
}

func (m *tokenManager) Stop() {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if m.done == nil {
		return
	}

	m.cancel()
	<-m.done
	m.cancel = nil
	m.done = nil
}

func (m *tokenManager) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

func randomToken(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate csrf token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
