package service

import (
	"context"
	"encoding/base64"
	"fmt"

	"gocloud.dev/secrets"
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"

	cryptoDomain "github.com/allisson/secpolicy/internal/crypto/domain"
)

type kmsService struct{}

// NewKMSService opens keepers through gocloud.dev/secrets. The registered schemes are
// gcpkms, awskms, azurekeyvault, hashivault and base64key.
func NewKMSService() KMSService {
	return kmsService{}
}

func (kmsService) OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	return keeper, nil
}

func withKeeper(ctx context.Context, kms KMSService, keyURI string, fn func(cryptoDomain.KMSKeeper) error) error {
	keeper, err := kms.OpenKeeper(ctx, keyURI)
	if err != nil {
		return err
	}
	defer func() { _ = keeper.Close() }()
	return fn(keeper)
}

// LoadMasterSecret turns MASTER_SECRET into key material. Without keyURI the value is the
// secret itself; with one it is the base64 output of WrapMasterSecret.
func LoadMasterSecret(ctx context.Context, kms KMSService, configured, keyURI string) (*cryptoDomain.MasterSecret, error) {
	switch {
	case configured == "":
		return nil, cryptoDomain.ErrMasterSecretNotSet
	case keyURI == "":
		return cryptoDomain.NewMasterSecret([]byte(configured))
	}

	wrapped, err := base64.StdEncoding.DecodeString(configured)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoDomain.ErrInvalidMasterSecretBase64, err)
	}

	var secret *cryptoDomain.MasterSecret
	err = withKeeper(ctx, kms, keyURI, func(keeper cryptoDomain.KMSKeeper) error {
		plaintext, err := keeper.Decrypt(ctx, wrapped)
		if err != nil {
			return fmt.Errorf("%w: %v", cryptoDomain.ErrKMSDecryptionFailed, err)
		}
		defer cryptoDomain.Zero(plaintext)

		secret, err = cryptoDomain.NewMasterSecret(plaintext)
		return err
	})
	return secret, err
}

// WrapMasterSecret seals plaintext under keyURI and returns the base64 ciphertext.
func WrapMasterSecret(ctx context.Context, kms KMSService, keyURI string, plaintext []byte) (string, error) {
	var wrapped string
	err := withKeeper(ctx, kms, keyURI, func(keeper cryptoDomain.KMSKeeper) error {
		ciphertext, err := keeper.Encrypt(ctx, plaintext)
		if err != nil {
			return fmt.Errorf("failed to encrypt master secret with KMS: %w", err)
		}
		wrapped = base64.StdEncoding.EncodeToString(ciphertext)
		return nil
	})
	return wrapped, err
}
