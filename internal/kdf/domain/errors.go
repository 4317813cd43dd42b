package domain

import (
	"github.com/allisson/secpolicy/internal/errors"
)

var (
	// ErrKeyDerivation indicates derivation inputs were rejected (empty secret or salt,
	// non-positive output length, or an iteration count below the floor).
	ErrKeyDerivation = errors.Wrap(errors.ErrInvalidInput, "key derivation failed")

	// ErrInvalidPasswordHash indicates an encoded hash is not a well-formed argon2id PHC string.
	ErrInvalidPasswordHash = errors.Wrap(errors.ErrInvalidInput, "invalid password hash")

	// ErrIncompatibleVersion indicates the hash was produced by another argon2 version.
	ErrIncompatibleVersion = errors.Wrap(errors.ErrInvalidInput, "incompatible argon2 version")
)
