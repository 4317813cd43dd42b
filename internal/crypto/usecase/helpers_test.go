package usecase

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/secpolicy/internal/crypto/domain"
	cryptoService "github.com/allisson/secpolicy/internal/crypto/service"
	kdfDomain "github.com/allisson/secpolicy/internal/kdf/domain"
	kdfService "github.com/allisson/secpolicy/internal/kdf/service"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func defaultTestConfig() KeyManagerConfig {
	return KeyManagerConfig{
		Salt:             []byte("secpolicy-test-salt"),
		RotationInterval: 24 * time.Hour,
		Overlap:          time.Hour,
		PurgeInterval:    time.Minute,
		ExportEnabled:    true,
	}
}

// newTestKeyManager builds an initialized manager with a light PBKDF2 cost.
func newTestKeyManager(
	t *testing.T,
	secret string,
	config KeyManagerConfig,
	opts ...KeyManagerOption,
) KeyManager {
	t.Helper()

	deriver, err := kdfService.NewPbkdf2Deriver(kdfDomain.Pbkdf2Params{Iterations: 1000, MinIterations: 1000})
	require.NoError(t, err)

	masterSecret, err := cryptoDomain.NewMasterSecret([]byte(secret))
	require.NoError(t, err)

	manager := NewKeyManager(
		config,
		masterSecret,
		cryptoService.NewKeyFactory(deriver),
		cryptoService.NewAEADManager(),
		discardLogger(),
		opts...,
	)
	t.Cleanup(manager.Close)
	return manager
}
