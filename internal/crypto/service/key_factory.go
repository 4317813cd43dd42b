package service

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"

	cryptoDomain "github.com/allisson/secpolicy/internal/crypto/domain"
	kdfService "github.com/allisson/secpolicy/internal/kdf/service"
)

const seedKeyIDInfo = "secpolicy-seed-key-id-v1"

// KeyFactoryService implements KeyFactory.
//
// Generated keys come from crypto/rand. The seed key is PBKDF2-derived from the master
// secret, and its id is a uuid v5 over an HKDF expansion of the derived material so the
// id reveals nothing about the key while staying stable across restarts.
type KeyFactoryService struct {
	deriver kdfService.KeyDeriver
	now     func() time.Time
}

// NewKeyFactory creates a new KeyFactoryService.
func NewKeyFactory(deriver kdfService.KeyDeriver) *KeyFactoryService {
	return &KeyFactoryService{
		deriver: deriver,
		now:     time.Now,
	}
}

// GenerateKey creates a random 256-bit key.
func (f *KeyFactoryService) GenerateKey(version uint) (*cryptoDomain.EncryptionKey, error) {
	material := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(material); err != nil {
		return nil, fmt.Errorf("failed to generate key material: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		cryptoDomain.Zero(material)
		return nil, fmt.Errorf("failed to generate key id: %w", err)
	}

	return &cryptoDomain.EncryptionKey{
		ID:        id,
		Material:  material,
		Version:   version,
		Status:    cryptoDomain.KeyStatusActive,
		CreatedAt: f.now().UTC(),
	}, nil
}

// DeriveSeedKey derives version 1 from the master secret with PBKDF2-HMAC-SHA256.
func (f *KeyFactoryService) DeriveSeedKey(
	secret *cryptoDomain.MasterSecret,
	salt []byte,
) (*cryptoDomain.EncryptionKey, error) {
	if secret == nil || len(secret.Bytes()) == 0 {
		return nil, cryptoDomain.ErrMasterSecretNotSet
	}

	material, err := f.deriver.DeriveDefault(secret.Bytes(), salt, cryptoDomain.KeySize)
	if err != nil {
		return nil, err
	}

	idBytes := make([]byte, 32)
	reader := hkdf.New(sha256.New, material, salt, []byte(seedKeyIDInfo))
	if _, err := io.ReadFull(reader, idBytes); err != nil {
		cryptoDomain.Zero(material)
		return nil, fmt.Errorf("failed to derive seed key id: %w", err)
	}

	return &cryptoDomain.EncryptionKey{
		ID:        uuid.NewSHA1(uuid.NameSpaceOID, idBytes),
		Material:  material,
		Version:   1,
		Status:    cryptoDomain.KeyStatusActive,
		CreatedAt: f.now().UTC(),
	}, nil
}
