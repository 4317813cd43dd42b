package domain

import (
	"time"

	"github.com/google/uuid"
)

// KeyStatus is the lifecycle position of an EncryptionKey: pending → active → retired → purged.
// A pending key was generated but not yet promoted to current.
type KeyStatus string

const (
	KeyStatusPending KeyStatus = "pending"
	KeyStatusActive  KeyStatus = "active"
	KeyStatusRetired KeyStatus = "retired"
	KeyStatusPurged  KeyStatus = "purged"
)

// EncryptionKey is a 256-bit symmetric data key owned by the key manager.
//
// Material never leaves the process except through an explicit export. Active keys have no
// ExpiresAt; a retired key stays decrypt-capable until ExpiresAt (retirement + overlap).
type EncryptionKey struct {
	ID        uuid.UUID
	Material  []byte
	Version   uint
	Status    KeyStatus
	CreatedAt time.Time
	RetiredAt *time.Time
	ExpiresAt *time.Time
}

// KeyInfo is the metadata view of an EncryptionKey handed to readers. It carries no material.
type KeyInfo struct {
	ID        uuid.UUID  `json:"id"`
	Version   uint       `json:"version"`
	Status    KeyStatus  `json:"status"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	RetiredAt *time.Time `json:"retired_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// IsActive reports whether the key is the one used for new encryptions.
func (k *EncryptionKey) IsActive() bool {
	return k.Status == KeyStatusActive
}

// Expired reports whether a retired key has passed its overlap window at now.
// Expired keys are treated as purged even before the purge sweep removes them.
func (k *EncryptionKey) Expired(now time.Time) bool {
	switch k.Status {
	case KeyStatusPurged:
		return true
	case KeyStatusRetired:
		return k.ExpiresAt != nil && !now.Before(*k.ExpiresAt)
	default:
		return false
	}
}

// Retired returns a retired copy of the key expiring overlap after now. Material is shared.
func (k *EncryptionKey) Retired(now time.Time, overlap time.Duration) *EncryptionKey {
	retiredAt := now
	expiresAt := now.Add(overlap)

	retired := *k
	retired.Status = KeyStatusRetired
	retired.RetiredAt = &retiredAt
	retired.ExpiresAt = &expiresAt
	return &retired
}

// Pending returns a copy of the key with status pending.
func (k *EncryptionKey) Pending() *EncryptionKey {
	pending := *k
	pending.Status = KeyStatusPending
	pending.RetiredAt = nil
	pending.ExpiresAt = nil
	return &pending
}

// Info returns a copy of the key metadata without material.
func (k *EncryptionKey) Info() KeyInfo {
	return KeyInfo{
		ID:        k.ID,
		Version:   k.Version,
		Status:    k.Status,
		Active:    k.IsActive(),
		CreatedAt: k.CreatedAt,
		RetiredAt: copyTime(k.RetiredAt),
		ExpiresAt: copyTime(k.ExpiresAt),
	}
}

// Destroy zeroes the key material in place. The struct itself is left untouched because
// older ring snapshots may still be read concurrently.
func (k *EncryptionKey) Destroy() {
	Zero(k.Material)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
