package service

import (
	cryptoDomain "github.com/allisson/secpolicy/internal/crypto/domain"
)

type aeadConstructor func(key []byte) (AEAD, error)

// AEADManagerService builds the AEAD for a key's algorithm. Keys carry their algorithm so
// envelopes sealed before an algorithm change stay readable.
type AEADManagerService struct {
	constructors map[cryptoDomain.Algorithm]aeadConstructor
}

// NewAEADManager returns a manager that knows AES-256-GCM only.
func NewAEADManager() *AEADManagerService {
	return &AEADManagerService{
		constructors: map[cryptoDomain.Algorithm]aeadConstructor{
			cryptoDomain.AESGCM: func(key []byte) (AEAD, error) { return NewAESGCM(key) },
		},
	}
}

// CreateCipher fails with ErrInvalidKeySize before looking at alg, so a wrong-sized key
// never reaches a cipher constructor.
func (am *AEADManagerService) CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	newAEAD, ok := am.constructors[alg]
	if !ok {
		return nil, cryptoDomain.ErrUnsupportedAlgorithm
	}
	return newAEAD(key)
}
