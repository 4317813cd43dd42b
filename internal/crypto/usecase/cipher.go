package usecase

import (
	"context"

	cryptoDomain "github.com/allisson/secpolicy/internal/crypto/domain"
)

// cipherUseCase implements Cipher on top of the KeyManager.
type cipherUseCase struct {
	keyManager KeyManager
}

// NewCipher creates a Cipher resolving keys through keyManager.
func NewCipher(keyManager KeyManager) Cipher {
	return &cipherUseCase{keyManager: keyManager}
}

// Encrypt seals plaintext under the current key.
func (c *cipherUseCase) Encrypt(ctx context.Context, plaintext, aad []byte) (*cryptoDomain.Envelope, error) {
	keyID, aead, err := c.keyManager.CurrentCipher(ctx)
	if err != nil {
		return nil, err
	}

	sealed, nonce, err := aead.Encrypt(plaintext, aad)
	if err != nil {
		return nil, err
	}

	return cryptoDomain.NewEnvelope(keyID, nonce, sealed)
}

// Decrypt resolves the envelope key, retired keys included, and opens the envelope.
func (c *cipherUseCase) Decrypt(ctx context.Context, envelope *cryptoDomain.Envelope, aad []byte) ([]byte, error) {
	if err := envelope.Validate(); err != nil {
		return nil, err
	}

	aead, err := c.keyManager.CipherFor(ctx, envelope.KeyID)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Decrypt(envelope.Sealed(), envelope.Nonce, aad)
	if err != nil {
		return nil, cryptoDomain.ErrAuthenticationFailed
	}
	return plaintext, nil
}
