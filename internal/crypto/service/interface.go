// Package service provides the cryptographic building blocks behind field encryption:
// the AES-256-GCM AEAD, key material generation and seeding, and KMS unwrapping of the
// master secret.
package service

import (
	"context"

	cryptoDomain "github.com/allisson/secpolicy/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns sealed output (ciphertext ‖ tag)
	// and the fresh nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt opens sealed output using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// KeyFactory creates data keys.
type KeyFactory interface {
	// GenerateKey creates a random 256-bit key with a uuid v7 id. The key is returned
	// with status active but is not current until promoted by the key manager.
	GenerateKey(version uint) (*cryptoDomain.EncryptionKey, error)

	// DeriveSeedKey derives the first key from the master secret. The same secret and
	// salt always produce the same id and material.
	DeriveSeedKey(secret *cryptoDomain.MasterSecret, salt []byte) (*cryptoDomain.EncryptionKey, error)
}

// KMSService opens KMS keepers and unwraps the master secret.
type KMSService interface {
	// OpenKeeper opens a keeper for the configured KMS provider.
	OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error)
}
