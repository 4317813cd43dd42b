package domain

import (
	"encoding/base64"
	"time"

	"github.com/google/uuid"
)

// KeyExport is the JSON backup document produced by the key manager. It contains raw key
// material and is always flagged sensitive.
type KeyExport struct {
	Sensitive    bool          `json:"sensitive"`
	Algorithm    Algorithm     `json:"algorithm"`
	ExportedAt   time.Time     `json:"exported_at"`
	CurrentKeyID string        `json:"current_key_id"`
	Keys         []ExportedKey `json:"keys"`
}

// ExportedKey is one key inside a KeyExport.
type ExportedKey struct {
	ID        string     `json:"id"`
	Key       string     `json:"key"`
	Version   uint       `json:"version"`
	Status    KeyStatus  `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	RetiredAt *time.Time `json:"retired_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// NewExportedKey copies key into its export representation.
func NewExportedKey(key *EncryptionKey) ExportedKey {
	return ExportedKey{
		ID:        key.ID.String(),
		Key:       base64.StdEncoding.EncodeToString(key.Material),
		Version:   key.Version,
		Status:    key.Status,
		CreatedAt: key.CreatedAt,
		RetiredAt: copyTime(key.RetiredAt),
		ExpiresAt: copyTime(key.ExpiresAt),
	}
}

// ToEncryptionKey decodes and validates an exported key. Purged keys and keys of the wrong
// size are rejected.
func (e ExportedKey) ToEncryptionKey() (*EncryptionKey, error) {
	id, err := uuid.Parse(e.ID)
	if err != nil {
		return nil, ErrInvalidKeyExport
	}

	switch e.Status {
	case KeyStatusPending, KeyStatusActive, KeyStatusRetired:
	default:
		return nil, ErrInvalidKeyExport
	}

	material, err := base64.StdEncoding.DecodeString(e.Key)
	if err != nil {
		return nil, ErrInvalidKeyExport
	}
	if len(material) != KeySize {
		Zero(material)
		return nil, ErrInvalidKeySize
	}

	return &EncryptionKey{
		ID:        id,
		Material:  material,
		Version:   e.Version,
		Status:    e.Status,
		CreatedAt: e.CreatedAt,
		RetiredAt: copyTime(e.RetiredAt),
		ExpiresAt: copyTime(e.ExpiresAt),
	}, nil
}
