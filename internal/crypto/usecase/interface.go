// Package usecase implements the key lifecycle and authenticated encryption of the
// security primitives.
//
// # Key Components
//
//   - KeyManager: owns the in-memory key ring, seeding, rotation, overlap, purge and the
//     background rotation timer
//   - Cipher: AES-256-GCM encryption and decryption with keys resolved through KeyManager
//
// # Concurrency
//
// The key ring and its ciphers are published as one immutable snapshot through an atomic
// pointer. Readers never lock; writers (rotation, purge, import, close) serialize on a
// mutex and swap the pointer once per change.
package usecase

import (
	"context"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/secpolicy/internal/crypto/domain"
	cryptoService "github.com/allisson/secpolicy/internal/crypto/service"
)

// KeyManager defines the key lifecycle operations.
type KeyManager interface {
	// Init derives the seed key from the master secret and makes it current. Calling it again
	// is a no-op.
	Init(ctx context.Context) error

	// GenerateKey creates a new pending key. It becomes current only through Promote.
	GenerateKey(ctx context.Context) (*cryptoDomain.KeyInfo, error)

	// Promote makes a pending key current and retires the previous current key with
	// expiresAt = now + overlap.
	Promote(ctx context.Context, id uuid.UUID) (*cryptoDomain.KeyInfo, error)

	// Rotate generates and promotes a key in one step, then purges expired keys.
	Rotate(ctx context.Context) (*cryptoDomain.KeyInfo, error)

	// Current returns metadata of the current key or ErrNoActiveKey.
	Current(ctx context.Context) (*cryptoDomain.KeyInfo, error)

	// Get returns metadata of a retained key or ErrKeyNotFound. Retired keys past their
	// overlap are not found even before the purge sweep.
	Get(ctx context.Context, id uuid.UUID) (*cryptoDomain.KeyInfo, error)

	// List returns metadata of every retained key ordered by version.
	List(ctx context.Context) ([]cryptoDomain.KeyInfo, error)

	// CurrentCipher returns the id and AEAD of the current key.
	CurrentCipher(ctx context.Context) (uuid.UUID, cryptoService.AEAD, error)

	// CipherFor returns the AEAD for a decrypt-capable key.
	CipherFor(ctx context.Context, id uuid.UUID) (cryptoService.AEAD, error)

	// PurgeExpired removes retired keys whose overlap elapsed and zeroes their material.
	PurgeExpired(ctx context.Context) (int, error)

	// Export returns every retained key with its material. Requires export to be enabled.
	Export(ctx context.Context) (*cryptoDomain.KeyExport, error)

	// Import adds keys from an export document and returns how many were added.
	Import(ctx context.Context, export *cryptoDomain.KeyExport) (int, error)

	// Stats summarizes the key ring.
	Stats(ctx context.Context) (*cryptoDomain.KeyStats, error)

	// Start launches the rotation and purge timer. It returns immediately.
	Start(ctx context.Context)

	// Stop halts the timer. No rotation fires after Stop returns and an in-flight rotation
	// completes before it does.
	Stop()

	// Close stops the timer and zeroes all key material.
	Close()
}

// Cipher defines authenticated encryption of individual values.
type Cipher interface {
	// Encrypt seals plaintext under the current key with a fresh nonce.
	Encrypt(ctx context.Context, plaintext, aad []byte) (*cryptoDomain.Envelope, error)

	// Decrypt verifies and opens an envelope. It fails closed: ErrInvalidEnvelope,
	// ErrKeyNotFound or ErrAuthenticationFailed, never partial plaintext.
	Decrypt(ctx context.Context, envelope *cryptoDomain.Envelope, aad []byte) ([]byte, error)
}
