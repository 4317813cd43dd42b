package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKey(t *testing.T, version uint) *EncryptionKey {
	t.Helper()
	material := make([]byte, KeySize)
	for i := range material {
		material[i] = byte(version)
	}
	return &EncryptionKey{
		ID:        uuid.Must(uuid.NewV7()),
		Material:  material,
		Version:   version,
		Status:    KeyStatusActive,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestEncryptionKey_Retired(t *testing.T) {
	key := newTestKey(t, 1)
	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	retired := key.Retired(now, 24*time.Hour)

	assert.Equal(t, KeyStatusActive, key.Status, "original is not modified")
	assert.Equal(t, KeyStatusRetired, retired.Status)
	require.NotNil(t, retired.RetiredAt)
	require.NotNil(t, retired.ExpiresAt)
	assert.Equal(t, now, *retired.RetiredAt)
	assert.Equal(t, now.Add(24*time.Hour), *retired.ExpiresAt)
	assert.False(t, retired.IsActive())
}

func TestEncryptionKey_Expired(t *testing.T) {
	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	active := newTestKey(t, 1)
	assert.False(t, active.Expired(now.Add(1000*time.Hour)))

	retired := active.Retired(now, time.Hour)
	assert.False(t, retired.Expired(now.Add(59*time.Minute)))
	assert.True(t, retired.Expired(now.Add(time.Hour)))

	purged := newTestKey(t, 2)
	purged.Status = KeyStatusPurged
	assert.True(t, purged.Expired(now))
}

func TestEncryptionKey_Info(t *testing.T) {
	key := newTestKey(t, 3)
	info := key.Info()

	assert.Equal(t, key.ID, info.ID)
	assert.Equal(t, uint(3), info.Version)
	assert.True(t, info.Active)
	assert.Nil(t, info.ExpiresAt)
}

func TestEncryptionKey_Destroy(t *testing.T) {
	key := newTestKey(t, 7)
	material := key.Material

	key.Destroy()

	assert.Len(t, key.Material, KeySize)
	for _, b := range material {
		assert.Equal(t, byte(0), b)
	}
}
