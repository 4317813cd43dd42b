package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	cryptoDomain "github.com/allisson/secpolicy/internal/crypto/domain"
)

// AESGCMCipher seals with AES-256-GCM, a 12-byte random nonce and a 16-byte tag. Safe for
// concurrent use.
type AESGCMCipher struct {
	aead   cipher.AEAD
	nonces io.Reader
}

// NewAESGCM expands a 32-byte key. Nonces come from crypto/rand.
func NewAESGCM(key []byte) (*AESGCMCipher, error) {
	return newAESGCM(key, rand.Reader)
}

func newAESGCM(key []byte, nonces io.Reader) (*AESGCMCipher, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, cryptoDomain.NonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &AESGCMCipher{aead: aead, nonces: nonces}, nil
}

// Encrypt returns ciphertext||tag and the nonce it used. When the nonce source fails
// nothing is sealed.
func (a *AESGCMCipher) Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error) {
	nonce = make([]byte, cryptoDomain.NonceSize)
	if _, err := io.ReadFull(a.nonces, nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return a.aead.Seal(nil, nonce, plaintext, aad), nonce, nil
}

// Decrypt opens ciphertext||tag. Every failure, a malformed nonce included, is reported as
// ErrAuthenticationFailed.
func (a *AESGCMCipher) Decrypt(ciphertext, nonce, aad []byte) ([]byte, error) {
	if len(nonce) != cryptoDomain.NonceSize {
		return nil, cryptoDomain.ErrAuthenticationFailed
	}
	plaintext, err := a.aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, cryptoDomain.ErrAuthenticationFailed
	}
	return plaintext, nil
}
