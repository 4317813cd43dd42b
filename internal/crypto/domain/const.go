package domain

// Algorithm represents the AEAD algorithm used for field encryption.
//
// Only AES-256-GCM is supported. Unauthenticated modes are never offered.
type Algorithm string

// AESGCM represents the AES-256-GCM authenticated encryption algorithm.
const AESGCM Algorithm = "aes-256-gcm"

// Sizes of the AES-256-GCM primitives, in bytes.
const (
	KeySize   = 32
	NonceSize = 12
	TagSize   = 16
)

// EnvelopeFormatVersion is the only envelope layout produced and accepted.
const EnvelopeFormatVersion = 1
