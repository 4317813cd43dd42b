package config

import (
	"fmt"
	"strings"

	apperrors "github.com/allisson/secpolicy/internal/errors"
)

const (
	// SupportedAlgorithm is the only data encryption algorithm.
	SupportedAlgorithm = "AES-256-GCM"
	// SupportedKeySizeBits is the only data key size.
	SupportedKeySizeBits = 256
)

// ErrInvalidConfiguration is returned when the configuration cannot start the service safely.
var ErrInvalidConfiguration = apperrors.Wrap(apperrors.ErrConfiguration, "invalid configuration")

// Validate checks the security-relevant settings. A plaintext master secret must meet
// MasterSecretMinLength; a KMS-wrapped secret is checked after unwrapping.
func (c *Config) Validate() error {
	var problems []string

	switch {
	case strings.TrimSpace(c.MasterSecret) == "":
		problems = append(problems, "MASTER_SECRET is required")
	case c.KMSKeyURI == "" && len(c.MasterSecret) < c.MasterSecretMinLength:
		problems = append(problems,
			fmt.Sprintf("MASTER_SECRET must be at least %d characters", c.MasterSecretMinLength))
	}

	if c.KDFSalt == "" {
		problems = append(problems, "KDF_SALT is required")
	}
	if c.KDFMinIterations < 1 {
		problems = append(problems, "KDF_MIN_ITERATIONS must be positive")
	}
	if c.KDFIterations < c.KDFMinIterations {
		problems = append(problems,
			fmt.Sprintf("KDF_ITERATIONS %d is below the floor %d", c.KDFIterations, c.KDFMinIterations))
	}
	if c.Argon2MemoryKiB < 8*c.Argon2Parallelism || c.Argon2TimeCost < 1 || c.Argon2Parallelism < 1 {
		problems = append(problems, "argon2 parameters are out of range")
	}

	if c.KeyRotationInterval <= 0 {
		problems = append(problems, "KEY_ROTATION_INTERVAL_HOURS must be positive")
	}
	// Zero would drop the previous key on rotation while envelopes under it are in flight.
	if c.KeyOverlap <= 0 {
		problems = append(problems, "KEY_OVERLAP_HOURS must be positive")
	}
	if c.KeyPurgeInterval <= 0 {
		problems = append(problems, "KEY_PURGE_INTERVAL_SECONDS must be positive")
	}

	if c.RateLimitMaxAttempts < 1 {
		problems = append(problems, "RATE_LIMIT_MAX_ATTEMPTS must be positive")
	}
	if c.RateLimitWindow <= 0 || c.RateLimitBanDuration <= 0 {
		problems = append(problems, "rate limit window and ban duration must be positive")
	}

	if c.CsrfTokenLength < 16 {
		problems = append(problems, "CSRF_TOKEN_LENGTH_BYTES must be at least 16")
	}
	if c.CsrfExpire <= 0 {
		problems = append(problems, "CSRF_EXPIRE_SECONDS must be positive")
	}

	switch c.AuditSink {
	case AuditSinkLog, AuditSinkDatabase:
	default:
		problems = append(problems, fmt.Sprintf("AUDIT_SINK %q must be 'log' or 'database'", c.AuditSink))
	}
	if c.AuditBufferSize < 1 {
		problems = append(problems, "AUDIT_BUFFER_SIZE must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfiguration, strings.Join(problems, "; "))
	}
	return nil
}
