package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/secrets"

	cryptoDomain "github.com/allisson/secpolicy/internal/crypto/domain"
	apperrors "github.com/allisson/secpolicy/internal/errors"
)

func localKeyURI(t *testing.T) string {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return "base64key://" + base64.URLEncoding.EncodeToString(key)
}

func TestKMSService_OpenKeeper(t *testing.T) {
	ctx := context.Background()
	kms := NewKMSService()

	keeper, err := kms.OpenKeeper(ctx, localKeyURI(t))
	require.NoError(t, err)
	assert.IsType(t, &secrets.Keeper{}, keeper)
	assert.NoError(t, keeper.Close())

	for _, uri := range []string{"", "invalid://uri"} {
		keeper, err := kms.OpenKeeper(ctx, uri)
		assert.ErrorContains(t, err, "failed to open KMS keeper", uri)
		assert.Nil(t, keeper)
	}
}

func TestKMSService_KeepersAreIsolated(t *testing.T) {
	ctx := context.Background()
	kms := NewKMSService()

	wrapped, err := WrapMasterSecret(ctx, kms, localKeyURI(t), []byte("seed"))
	require.NoError(t, err)

	err = withKeeper(ctx, kms, localKeyURI(t), func(other cryptoDomain.KMSKeeper) error {
		raw, err := base64.StdEncoding.DecodeString(wrapped)
		require.NoError(t, err)
		_, err = other.Decrypt(ctx, raw)
		return err
	})
	assert.Error(t, err)
}

func TestLoadMasterSecret(t *testing.T) {
	ctx := context.Background()
	kms := NewKMSService()

	t.Run("unwrapped value is used as is", func(t *testing.T) {
		secret, err := LoadMasterSecret(ctx, kms, "0123456789abcdef0123456789abcdef", "")
		require.NoError(t, err)
		assert.Equal(t, "0123456789abcdef0123456789abcdef", string(secret.Bytes()))
	})

	t.Run("wrapped value is unwrapped", func(t *testing.T) {
		uri := localKeyURI(t)
		wrapped, err := WrapMasterSecret(ctx, kms, uri, []byte("kms-protected-master-secret"))
		require.NoError(t, err)
		assert.NotContains(t, wrapped, "kms-protected")

		secret, err := LoadMasterSecret(ctx, kms, wrapped, uri)
		require.NoError(t, err)
		assert.Equal(t, "kms-protected-master-secret", string(secret.Bytes()))
	})

	failures := []struct {
		name       string
		configured func(t *testing.T) string
		want       error
	}{
		{"missing", func(*testing.T) string { return "" }, cryptoDomain.ErrMasterSecretNotSet},
		{"not base64", func(*testing.T) string { return "%%%" }, cryptoDomain.ErrInvalidMasterSecretBase64},
		{"wrapped under another key", func(t *testing.T) string {
			wrapped, err := WrapMasterSecret(ctx, kms, localKeyURI(t), []byte("seed"))
			require.NoError(t, err)
			return wrapped
		}, cryptoDomain.ErrKMSDecryptionFailed},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadMasterSecret(ctx, kms, tt.configured(t), localKeyURI(t))
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, apperrors.ErrConfiguration, "fatal at startup")
		})
	}
}
