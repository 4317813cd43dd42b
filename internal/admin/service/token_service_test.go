package service

import (
	"encoding/base64"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_GenerateToken(t *testing.T) {
	service := NewTokenService()

	plainToken, hashedToken, err := service.GenerateToken()
	require.NoError(t, err)

	decoded, err := base64.RawURLEncoding.DecodeString(plainToken)
	require.NoError(t, err)
	assert.Len(t, decoded, 32)
	assert.Contains(t, hashedToken, "$argon2id$")

	assert.True(t, service.CompareToken(plainToken, hashedToken))
	assert.False(t, service.CompareToken(plainToken+"x", hashedToken))
	assert.False(t, service.CompareToken(plainToken, "not-a-hash"))

	other, _, err := service.GenerateToken()
	require.NoError(t, err)
	assert.NotEqual(t, plainToken, other)
}

// countingTokenService counts Argon2id comparisons.
type countingTokenService struct {
	TokenService
	compares atomic.Int32
}

func (c *countingTokenService) CompareToken(plainToken, hashedToken string) bool {
	c.compares.Add(1)
	return c.TokenService.CompareToken(plainToken, hashedToken)
}

func TestTokenVerifier(t *testing.T) {
	base := NewTokenService()
	plainToken, hashedToken, err := base.GenerateToken()
	require.NoError(t, err)

	t.Run("disabled without hash", func(t *testing.T) {
		verifier := NewTokenVerifier(base, "")
		assert.False(t, verifier.Enabled())
		assert.False(t, verifier.Verify(plainToken))
	})

	t.Run("verifies and caches", func(t *testing.T) {
		counting := &countingTokenService{TokenService: base}
		verifier := NewTokenVerifier(counting, hashedToken)

		assert.True(t, verifier.Enabled())
		assert.False(t, verifier.Verify(""))
		assert.False(t, verifier.Verify("wrong"))
		assert.True(t, verifier.Verify(plainToken))
		assert.True(t, verifier.Verify(plainToken))
		assert.False(t, verifier.Verify("wrong-again"))
		assert.Equal(t, int32(2), counting.compares.Load())
	})

	t.Run("concurrent verification", func(t *testing.T) {
		verifier := NewTokenVerifier(base, hashedToken)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.True(t, verifier.Verify(plainToken))
			}()
		}
		wg.Wait()
	})
}
