package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// KeyRing is an immutable snapshot of the retained keys.
//
// Every mutation returns a new ring so a snapshot can be published with a single atomic
// pointer swap; readers never observe a half-rotated state.
type KeyRing struct {
	current      uuid.UUID
	keys         map[uuid.UUID]*EncryptionKey
	lastRotation time.Time
}

// NewKeyRing creates a ring whose only key is the active seed.
func NewKeyRing(seed *EncryptionKey, now time.Time) *KeyRing {
	return &KeyRing{
		current:      seed.ID,
		keys:         map[uuid.UUID]*EncryptionKey{seed.ID: seed},
		lastRotation: now,
	}
}

// Current returns the active key.
func (r *KeyRing) Current() (*EncryptionKey, bool) {
	if r == nil {
		return nil, false
	}
	key, ok := r.keys[r.current]
	return key, ok
}

// Get returns a retained key that can still decrypt at now.
func (r *KeyRing) Get(id uuid.UUID, now time.Time) (*EncryptionKey, bool) {
	if r == nil {
		return nil, false
	}
	key, ok := r.keys[id]
	if !ok || key.Expired(now) {
		return nil, false
	}
	return key, true
}

// Contains reports whether id is retained, expired or not.
func (r *KeyRing) Contains(id uuid.UUID) bool {
	if r == nil {
		return false
	}
	_, ok := r.keys[id]
	return ok
}

// Keys returns the retained keys ordered by version.
func (r *KeyRing) Keys() []*EncryptionKey {
	if r == nil {
		return nil
	}
	keys := make([]*EncryptionKey, 0, len(r.keys))
	for _, key := range r.keys {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Version < keys[j].Version })
	return keys
}

// Len returns the number of retained keys.
func (r *KeyRing) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// LastRotation returns when the current key was promoted.
func (r *KeyRing) LastRotation() time.Time {
	return r.lastRotation
}

// NextVersion returns the version for the next generated key.
func (r *KeyRing) NextVersion() uint {
	var highest uint
	for _, key := range r.keys {
		if key.Version > highest {
			highest = key.Version
		}
	}
	return highest + 1
}

// WithRotated promotes next to current and retires the previous current key with
// expiresAt = now + overlap.
func (r *KeyRing) WithRotated(next *EncryptionKey, now time.Time, overlap time.Duration) *KeyRing {
	keys := make(map[uuid.UUID]*EncryptionKey, len(r.keys)+1)
	for id, key := range r.keys {
		keys[id] = key
	}

	if previous, ok := r.keys[r.current]; ok {
		keys[previous.ID] = previous.Retired(now, overlap)
	}

	promoted := *next
	promoted.Status = KeyStatusActive
	promoted.RetiredAt = nil
	promoted.ExpiresAt = nil
	keys[promoted.ID] = &promoted

	return &KeyRing{current: promoted.ID, keys: keys, lastRotation: now}
}

// WithKey adds a non-current key (used by import). The key must not already be retained.
func (r *KeyRing) WithKey(key *EncryptionKey) (*KeyRing, error) {
	if _, exists := r.keys[key.ID]; exists {
		return nil, ErrDuplicateKey
	}

	keys := make(map[uuid.UUID]*EncryptionKey, len(r.keys)+1)
	for id, existing := range r.keys {
		keys[id] = existing
	}
	keys[key.ID] = key

	return &KeyRing{current: r.current, keys: keys, lastRotation: r.lastRotation}, nil
}

// WithoutExpired drops retired keys past their overlap and returns them so their material
// can be destroyed. The receiver is returned unchanged when nothing expired.
func (r *KeyRing) WithoutExpired(now time.Time) (*KeyRing, []*EncryptionKey) {
	var expired []*EncryptionKey
	for id, key := range r.keys {
		if id != r.current && key.Expired(now) {
			expired = append(expired, key)
		}
	}
	if len(expired) == 0 {
		return r, nil
	}

	keys := make(map[uuid.UUID]*EncryptionKey, len(r.keys)-len(expired))
	for id, key := range r.keys {
		if id == r.current || !key.Expired(now) {
			keys[id] = key
		}
	}

	return &KeyRing{current: r.current, keys: keys, lastRotation: r.lastRotation}, expired
}

// WithPromoted makes the pending key id current, retiring the previous current key.
func (r *KeyRing) WithPromoted(id uuid.UUID, now time.Time, overlap time.Duration) (*KeyRing, error) {
	key, ok := r.keys[id]
	if !ok {
		return nil, ErrKeyNotFound
	}
	if key.Status != KeyStatusPending {
		return nil, ErrKeyNotPending
	}
	return r.WithRotated(key, now, overlap), nil
}
