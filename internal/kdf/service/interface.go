// Package service implements the key derivation paths: PBKDF2 for data keys and
// Argon2id for password hashing.
package service

// KeyDeriver derives raw key material from a secret.
type KeyDeriver interface {
	// Derive runs PBKDF2-HMAC-SHA256 and returns outputLength bytes.
	Derive(secret, salt []byte, iterations, outputLength int) ([]byte, error)

	// DeriveDefault derives with the configured iteration count.
	DeriveDefault(secret, salt []byte, outputLength int) ([]byte, error)
}

// PasswordHasher hashes and verifies passwords. It never returns raw key material.
type PasswordHasher interface {
	// Hash returns an argon2id PHC string for password.
	Hash(password []byte) (string, error)

	// Verify reports whether password matches encoded. It returns an error only when
	// encoded is malformed.
	Verify(password []byte, encoded string) (bool, error)
}
