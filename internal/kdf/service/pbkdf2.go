package service

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	kdfDomain "github.com/allisson/secpolicy/internal/kdf/domain"
)

type pbkdf2Deriver struct {
	params kdfDomain.Pbkdf2Params
}

// NewPbkdf2Deriver creates a KeyDeriver enforcing params.MinIterations as the floor.
func NewPbkdf2Deriver(params kdfDomain.Pbkdf2Params) (KeyDeriver, error) {
	if params.MinIterations < 1 {
		return nil, fmt.Errorf("%w: iteration floor must be positive", kdfDomain.ErrKeyDerivation)
	}
	if params.Iterations < params.MinIterations {
		return nil, fmt.Errorf("%w: %d iterations is below the floor of %d",
			kdfDomain.ErrKeyDerivation, params.Iterations, params.MinIterations)
	}
	return &pbkdf2Deriver{params: params}, nil
}

// Derive runs PBKDF2-HMAC-SHA256 over secret and salt.
func (d *pbkdf2Deriver) Derive(secret, salt []byte, iterations, outputLength int) ([]byte, error) {
	switch {
	case len(secret) == 0:
		return nil, fmt.Errorf("%w: secret is empty", kdfDomain.ErrKeyDerivation)
	case len(salt) == 0:
		return nil, fmt.Errorf("%w: salt is empty", kdfDomain.ErrKeyDerivation)
	case outputLength <= 0:
		return nil, fmt.Errorf("%w: output length must be positive", kdfDomain.ErrKeyDerivation)
	case iterations < d.params.MinIterations:
		return nil, fmt.Errorf("%w: %d iterations is below the floor of %d",
			kdfDomain.ErrKeyDerivation, iterations, d.params.MinIterations)
	}

	return pbkdf2.Key(secret, salt, iterations, outputLength, sha256.New), nil
}

// DeriveDefault derives with the configured iteration count.
func (d *pbkdf2Deriver) DeriveDefault(secret, salt []byte, outputLength int) ([]byte, error) {
	return d.Derive(secret, salt, d.params.Iterations, outputLength)
}
