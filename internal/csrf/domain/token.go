// Package domain defines per-session anti-forgery tokens.
package domain

import (
	"time"
)

const (
	DefaultTokenLength = 32
	MinTokenLength     = 16
	DefaultExpire      = time.Hour
)

// Config holds the token parameters.
type Config struct {
	TokenLength int
	Expire      time.Duration
}

// DefaultConfig returns 32-byte tokens valid for one hour.
func DefaultConfig() Config {
	return Config{
		TokenLength: DefaultTokenLength,
		Expire:      DefaultExpire,
	}
}

// Validate checks the token length floor and a positive expiry.
func (c Config) Validate() error {
	if c.TokenLength < MinTokenLength {
		return ErrInvalidConfig
	}
	if c.Expire <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// CsrfToken binds a random value to one session. It is not single-use: the same token is
// returned until it expires or the session is invalidated.
type CsrfToken struct {
	Value     string
	SessionID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token is past its expiry at now.
func (t *CsrfToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
