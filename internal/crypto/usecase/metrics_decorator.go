package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/secpolicy/internal/crypto/domain"
	"github.com/allisson/secpolicy/internal/metrics"
)

// cipherWithMetrics decorates Cipher with metrics instrumentation.
type cipherWithMetrics struct {
	next    Cipher
	metrics metrics.BusinessMetrics
}

// NewCipherWithMetrics wraps a Cipher with metrics recording.
func NewCipherWithMetrics(cipher Cipher, m metrics.BusinessMetrics) Cipher {
	return &cipherWithMetrics{
		next:    cipher,
		metrics: m,
	}
}

// Encrypt records metrics for field encryption.
func (c *cipherWithMetrics) Encrypt(
	ctx context.Context,
	plaintext, aad []byte,
) (*cryptoDomain.Envelope, error) {
	start := time.Now()
	envelope, err := c.next.Encrypt(ctx, plaintext, aad)

	c.metrics.Observe(ctx, "crypto", "field_encrypt", metrics.StatusOf(err), time.Since(start))

	return envelope, err
}

// Decrypt records metrics for field decryption.
func (c *cipherWithMetrics) Decrypt(
	ctx context.Context,
	envelope *cryptoDomain.Envelope,
	aad []byte,
) ([]byte, error) {
	start := time.Now()
	plaintext, err := c.next.Decrypt(ctx, envelope, aad)

	c.metrics.Observe(ctx, "crypto", "field_decrypt", metrics.StatusOf(err), time.Since(start))

	return plaintext, err
}

// keyManagerWithMetrics decorates the write operations of KeyManager with metrics.
// Read paths pass through untouched.
type keyManagerWithMetrics struct {
	KeyManager
	metrics metrics.BusinessMetrics
}

// NewKeyManagerWithMetrics wraps a KeyManager with metrics recording.
func NewKeyManagerWithMetrics(keyManager KeyManager, m metrics.BusinessMetrics) KeyManager {
	return &keyManagerWithMetrics{
		KeyManager: keyManager,
		metrics:    m,
	}
}

func (k *keyManagerWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	k.metrics.Observe(ctx, "crypto", operation, metrics.StatusOf(err), time.Since(start))
}

// Rotate records metrics for key rotation.
func (k *keyManagerWithMetrics) Rotate(ctx context.Context) (*cryptoDomain.KeyInfo, error) {
	start := time.Now()
	info, err := k.KeyManager.Rotate(ctx)
	k.record(ctx, "key_rotate", start, err)
	return info, err
}

// Promote records metrics for key promotion.
func (k *keyManagerWithMetrics) Promote(ctx context.Context, id uuid.UUID) (*cryptoDomain.KeyInfo, error) {
	start := time.Now()
	info, err := k.KeyManager.Promote(ctx, id)
	k.record(ctx, "key_promote", start, err)
	return info, err
}

// PurgeExpired records metrics for key purges.
func (k *keyManagerWithMetrics) PurgeExpired(ctx context.Context) (int, error) {
	start := time.Now()
	count, err := k.KeyManager.PurgeExpired(ctx)
	k.record(ctx, "key_purge", start, err)
	return count, err
}

// Export records metrics for key export.
func (k *keyManagerWithMetrics) Export(ctx context.Context) (*cryptoDomain.KeyExport, error) {
	start := time.Now()
	export, err := k.KeyManager.Export(ctx)
	k.record(ctx, "key_export", start, err)
	return export, err
}

// Import records metrics for key import.
func (k *keyManagerWithMetrics) Import(ctx context.Context, export *cryptoDomain.KeyExport) (int, error) {
	start := time.Now()
	count, err := k.KeyManager.Import(ctx, export)
	k.record(ctx, "key_import", start, err)
	return count, err
}
