package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"sync"

	"github.com/allisson/go-pwdhash"

	apperrors "github.com/allisson/secpolicy/internal/errors"
)

// tokenService implements TokenService using Argon2id for hashing.
type tokenService struct {
	hasher *pwdhash.PasswordHasher
}

// NewTokenService creates a new TokenService using the Moderate Argon2id policy.
func NewTokenService() TokenService {
	hasher, err := pwdhash.New(
		pwdhash.WithPolicy(pwdhash.PolicyModerate),
	)
	if err != nil {
		// This should never happen with valid policy
		panic(err)
	}

	return &tokenService{
		hasher: hasher,
	}
}

// GenerateToken creates a new 32-byte random token encoded as URL-safe base64.
func (s *tokenService) GenerateToken() (string, string, error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate random token")
	}

	plainToken := base64.RawURLEncoding.EncodeToString(randomBytes)

	hashedToken, err := s.HashToken(plainToken)
	if err != nil {
		return "", "", err
	}

	return plainToken, hashedToken, nil
}

// HashToken hashes a plain token using Argon2id.
func (s *tokenService) HashToken(plainToken string) (string, error) {
	hashedToken, err := s.hasher.Hash([]byte(plainToken))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash token")
	}
	return hashedToken, nil
}

// CompareToken verifies a plain token against its Argon2id hash.
func (s *tokenService) CompareToken(plainToken string, hashedToken string) bool {
	ok, err := s.hasher.Verify([]byte(plainToken), hashedToken)
	if err != nil {
		return false
	}
	return ok
}

// tokenVerifier verifies bearer tokens against one configured hash. After the first
// successful Argon2id verification the SHA-256 digest of the token is remembered so later
// requests are compared in constant time without paying the Argon2id cost again.
type tokenVerifier struct {
	tokens     TokenService
	hashed     string
	mu         sync.RWMutex
	verified   [sha256.Size]byte
	isVerified bool
}

// NewTokenVerifier creates a TokenVerifier for hashedToken. An empty hash disables admin access.
func NewTokenVerifier(tokens TokenService, hashedToken string) TokenVerifier {
	return &tokenVerifier{
		tokens: tokens,
		hashed: hashedToken,
	}
}

func (v *tokenVerifier) Enabled() bool {
	return v.hashed != ""
}

func (v *tokenVerifier) Verify(token string) bool {
	if !v.Enabled() || token == "" {
		return false
	}

	digest := sha256.Sum256([]byte(token))

	v.mu.RLock()
	if v.isVerified {
		match := subtle.ConstantTimeCompare(digest[:], v.verified[:]) == 1
		v.mu.RUnlock()
		return match
	}
	v.mu.RUnlock()

	if !v.tokens.CompareToken(token, v.hashed) {
		return false
	}

	v.mu.Lock()
	v.verified = digest
	v.isVerified = true
	v.mu.Unlock()
	return true
}
