package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PolicyFile is the YAML layout of SECURITY_POLICY_FILE. Every field is optional;
// only the fields present in the file override the environment.
type PolicyFile struct {
	Algorithm   string `yaml:"algorithm"`
	KeySizeBits int    `yaml:"key_size_bits"`

	KDF struct {
		Iterations    *int `yaml:"iterations"`
		MinIterations *int `yaml:"min_iterations"`
		Argon2        struct {
			MemoryKiB   *int `yaml:"memory_kib"`
			TimeCost    *int `yaml:"time_cost"`
			Parallelism *int `yaml:"parallelism"`
		} `yaml:"argon2"`
	} `yaml:"kdf"`

	Keys struct {
		RotationIntervalHours *int `yaml:"rotation_interval_hours"`
		OverlapHours          *int `yaml:"overlap_hours"`
	} `yaml:"keys"`

	RateLimit struct {
		MaxAttempts        *int `yaml:"max_attempts"`
		WindowSeconds      *int `yaml:"window_seconds"`
		BanDurationSeconds *int `yaml:"ban_duration_seconds"`
	} `yaml:"rate_limit"`

	Csrf struct {
		TokenLengthBytes *int `yaml:"token_length_bytes"`
		ExpireSeconds    *int `yaml:"expire_seconds"`
	} `yaml:"csrf"`
}

// ApplyPolicyFile reads the YAML policy file at path and overrides the matching fields.
func (c *Config) ApplyPolicyFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return fmt.Errorf("%w: read policy file: %v", ErrInvalidConfiguration, err)
	}

	var pf PolicyFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return fmt.Errorf("%w: parse policy file: %v", ErrInvalidConfiguration, err)
	}

	return c.applyPolicy(&pf)
}

func (c *Config) applyPolicy(pf *PolicyFile) error {
	if pf.Algorithm != "" && pf.Algorithm != SupportedAlgorithm {
		return fmt.Errorf("%w: algorithm %q is not supported, only %s",
			ErrInvalidConfiguration, pf.Algorithm, SupportedAlgorithm)
	}
	if pf.KeySizeBits != 0 && pf.KeySizeBits != SupportedKeySizeBits {
		return fmt.Errorf("%w: key_size_bits must be %d", ErrInvalidConfiguration, SupportedKeySizeBits)
	}

	setInt(&c.KDFIterations, pf.KDF.Iterations)
	setInt(&c.KDFMinIterations, pf.KDF.MinIterations)
	setInt(&c.Argon2MemoryKiB, pf.KDF.Argon2.MemoryKiB)
	setInt(&c.Argon2TimeCost, pf.KDF.Argon2.TimeCost)
	setInt(&c.Argon2Parallelism, pf.KDF.Argon2.Parallelism)

	setDuration(&c.KeyRotationInterval, pf.Keys.RotationIntervalHours, time.Hour)
	setDuration(&c.KeyOverlap, pf.Keys.OverlapHours, time.Hour)

	setInt(&c.RateLimitMaxAttempts, pf.RateLimit.MaxAttempts)
	setDuration(&c.RateLimitWindow, pf.RateLimit.WindowSeconds, time.Second)
	setDuration(&c.RateLimitBanDuration, pf.RateLimit.BanDurationSeconds, time.Second)

	setInt(&c.CsrfTokenLength, pf.Csrf.TokenLengthBytes)
	setDuration(&c.CsrfExpire, pf.Csrf.ExpireSeconds, time.Second)

	return nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *int, unit time.Duration) {
	if v != nil {
		*dst = time.Duration(*v) * unit
	}
}
