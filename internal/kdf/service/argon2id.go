package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	kdfDomain "github.com/allisson/secpolicy/internal/kdf/domain"
)

type argon2idHasher struct {
	params kdfDomain.Argon2Params
}

// NewArgon2idHasher creates a PasswordHasher producing PHC strings of the form
// $argon2id$v=19$m=65536,t=4,p=3$<salt>$<hash> (unpadded standard base64).
func NewArgon2idHasher(params kdfDomain.Argon2Params) (PasswordHasher, error) {
	if params.TimeCost < 1 || params.Parallelism < 1 || params.MemoryKiB < 8*uint32(params.Parallelism) {
		return nil, fmt.Errorf("%w: argon2 parameters out of range", kdfDomain.ErrKeyDerivation)
	}
	if params.SaltLength < 8 || params.KeyLength < 16 {
		return nil, fmt.Errorf("%w: argon2 salt or key length too short", kdfDomain.ErrKeyDerivation)
	}
	return &argon2idHasher{params: params}, nil
}

// Hash returns the encoded argon2id hash of password with a fresh random salt.
func (h *argon2idHasher) Hash(password []byte) (string, error) {
	if len(password) == 0 {
		return "", fmt.Errorf("%w: password is empty", kdfDomain.ErrKeyDerivation)
	}

	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey(password, salt, h.params.TimeCost, h.params.MemoryKiB, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.MemoryKiB,
		h.params.TimeCost,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the hash with the parameters stored in encoded and compares in
// constant time. Hashes made with other parameters still verify.
func (h *argon2idHasher) Verify(password []byte, encoded string) (bool, error) {
	params, salt, expected, err := decodeArgon2idHash(encoded)
	if err != nil {
		return false, err
	}

	actual := argon2.IDKey(password, salt, params.TimeCost, params.MemoryKiB, params.Parallelism, uint32(len(expected)))
	return subtle.ConstantTimeCompare(actual, expected) == 1, nil
}

func decodeArgon2idHash(encoded string) (kdfDomain.Argon2Params, []byte, []byte, error) {
	var params kdfDomain.Argon2Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return params, nil, nil, kdfDomain.ErrInvalidPasswordHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return params, nil, nil, kdfDomain.ErrInvalidPasswordHash
	}
	if version != argon2.Version {
		return params, nil, nil, kdfDomain.ErrIncompatibleVersion
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.MemoryKiB, &params.TimeCost, &params.Parallelism); err != nil {
		return params, nil, nil, kdfDomain.ErrInvalidPasswordHash
	}
	if params.TimeCost < 1 || params.Parallelism < 1 {
		return params, nil, nil, kdfDomain.ErrInvalidPasswordHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return params, nil, nil, kdfDomain.ErrInvalidPasswordHash
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return params, nil, nil, kdfDomain.ErrInvalidPasswordHash
	}

	params.SaltLength = uint32(len(salt))
	params.KeyLength = uint32(len(key))
	return params, salt, key, nil
}
