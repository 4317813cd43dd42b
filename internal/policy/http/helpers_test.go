package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/secpolicy/internal/audit/domain"
	cryptoDomain "github.com/allisson/secpolicy/internal/crypto/domain"
	cryptoService "github.com/allisson/secpolicy/internal/crypto/service"
	cryptoUseCase "github.com/allisson/secpolicy/internal/crypto/usecase"
	csrfDomain "github.com/allisson/secpolicy/internal/csrf/domain"
	csrfUseCase "github.com/allisson/secpolicy/internal/csrf/usecase"
	kdfDomain "github.com/allisson/secpolicy/internal/kdf/domain"
	kdfService "github.com/allisson/secpolicy/internal/kdf/service"
	policyDomain "github.com/allisson/secpolicy/internal/policy/domain"
	policyUseCase "github.com/allisson/secpolicy/internal/policy/usecase"
	ratelimitDomain "github.com/allisson/secpolicy/internal/ratelimit/domain"
	ratelimitUseCase "github.com/allisson/secpolicy/internal/ratelimit/usecase"
)

const testSession = "session-abc"

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

// testStack is a fully wired policy over real components with a light KDF cost.
type testStack struct {
	policy  policyUseCase.SecurityPolicy
	emitter *recordingEmitter
	keys    cryptoUseCase.KeyManager
}

func newTestStack(t *testing.T, rateLimit ratelimitDomain.Policy) *testStack {
	t.Helper()

	deriver, err := kdfService.NewPbkdf2Deriver(kdfDomain.Pbkdf2Params{Iterations: 1000, MinIterations: 1000})
	require.NoError(t, err)

	secret, err := cryptoDomain.NewMasterSecret([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	keys := cryptoUseCase.NewKeyManager(
		cryptoUseCase.KeyManagerConfig{
			Salt:             []byte("policy-http-test"),
			RotationInterval: 24 * time.Hour,
			Overlap:          time.Hour,
			PurgeInterval:    time.Minute,
		},
		secret,
		cryptoService.NewKeyFactory(deriver),
		cryptoService.NewAEADManager(),
		discardLogger(),
	)
	require.NoError(t, keys.Init(context.Background()))
	t.Cleanup(keys.Close)

	rateLimiter, err := ratelimitUseCase.NewBanPolicy(rateLimit, discardLogger())
	require.NoError(t, err)

	tokenManager, err := csrfUseCase.NewTokenManager(csrfDomain.DefaultConfig(), discardLogger())
	require.NoError(t, err)

	emitter := &recordingEmitter{}
	policy := policyUseCase.NewSecurityPolicy(
		rateLimiter,
		tokenManager,
		cryptoUseCase.NewCipher(keys),
		policyDomain.NewScreener(policyDomain.DefaultBlockedPatterns(), policyDomain.DefaultMaxInputLength),
		emitter,
		discardLogger(),
	)

	return &testStack{policy: policy, emitter: emitter, keys: keys}
}

func generousPolicy() ratelimitDomain.Policy {
	return ratelimitDomain.Policy{MaxAttempts: 1000, Window: time.Minute, BanDuration: time.Minute}
}

// newTestRouter mounts the public routes the way the server does.
func newTestRouter(stack *testStack) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := DefaultSessionConfig()

	router := gin.New()
	v1 := router.Group("/v1", PolicyMiddleware(stack.policy, cfg, discardLogger()))
	csrf := NewCsrfHandler(stack.policy, cfg, discardLogger())
	v1.GET("/csrf-token", csrf.IssueHandler)
	v1.DELETE("/csrf-token", csrf.RevokeHandler)

	fields := NewFieldHandler(stack.policy, cfg, discardLogger())
	v1.POST("/fields/encrypt", fields.EncryptHandler)
	v1.POST("/fields/decrypt", fields.DecryptHandler)
	v1.GET("/echo", func(c *gin.Context) {
		request, _ := GetRequestContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"identity": request.Identity, "session": request.SessionID})
	})
	return router
}

func doRequest(router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "198.51.100.7:41000"
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
