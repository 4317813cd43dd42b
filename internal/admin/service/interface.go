// Package service provides the admin bearer token: generation, Argon2id hashing and
// verification against the configured hash.
package service

// TokenService defines operations for admin token generation and hashing.
type TokenService interface {
	// GenerateToken creates a new random token. The plain token is shown once; only the hash
	// is configured (ADMIN_TOKEN_HASH).
	GenerateToken() (plainToken string, hashedToken string, err error)

	// HashToken hashes a plain token using Argon2id in PHC format.
	HashToken(plainToken string) (hashedToken string, err error)

	// CompareToken reports whether plainToken matches hashedToken.
	CompareToken(plainToken string, hashedToken string) bool
}

// TokenVerifier checks presented bearer tokens against the configured hash.
type TokenVerifier interface {
	// Verify reports whether token is the admin token.
	Verify(token string) bool

	// Enabled reports whether an admin token hash is configured.
	Enabled() bool
}
