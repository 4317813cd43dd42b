package domain

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Envelope is one AES-256-GCM encryption result.
//
// The wire payload is base64(nonce[12] ‖ tag[16] ‖ ciphertext[N]) with KeyID carried alongside.
// KeyID is a weak reference: the key may be purged while envelopes referencing it still exist.
type Envelope struct {
	KeyID         uuid.UUID
	Nonce         []byte
	Tag           []byte
	Ciphertext    []byte
	FormatVersion int
}

// NewEnvelope splits the trailing tag from GCM sealed output (ciphertext ‖ tag).
func NewEnvelope(keyID uuid.UUID, nonce, sealed []byte) (*Envelope, error) {
	if len(nonce) != NonceSize || len(sealed) < TagSize {
		return nil, ErrInvalidEnvelope
	}

	split := len(sealed) - TagSize
	ciphertext := make([]byte, split)
	copy(ciphertext, sealed[:split])
	tag := make([]byte, TagSize)
	copy(tag, sealed[split:])

	return &Envelope{
		KeyID:         keyID,
		Nonce:         nonce,
		Tag:           tag,
		Ciphertext:    ciphertext,
		FormatVersion: EnvelopeFormatVersion,
	}, nil
}

// Validate checks the structural invariants of the envelope.
func (e *Envelope) Validate() error {
	switch {
	case e == nil:
		return ErrInvalidEnvelope
	case e.FormatVersion != EnvelopeFormatVersion:
		return fmt.Errorf("%w: unsupported format version %d", ErrInvalidEnvelope, e.FormatVersion)
	case e.KeyID == uuid.Nil:
		return fmt.Errorf("%w: missing key id", ErrInvalidEnvelope)
	case len(e.Nonce) != NonceSize:
		return fmt.Errorf("%w: nonce must be %d bytes", ErrInvalidEnvelope, NonceSize)
	case len(e.Tag) != TagSize:
		return fmt.Errorf("%w: tag must be %d bytes", ErrInvalidEnvelope, TagSize)
	}
	return nil
}

// Sealed returns ciphertext ‖ tag as expected by cipher.AEAD.Open.
func (e *Envelope) Sealed() []byte {
	sealed := make([]byte, 0, len(e.Ciphertext)+len(e.Tag))
	sealed = append(sealed, e.Ciphertext...)
	return append(sealed, e.Tag...)
}

// Encode returns base64(nonce ‖ tag ‖ ciphertext).
func (e *Envelope) Encode() string {
	payload := make([]byte, 0, len(e.Nonce)+len(e.Tag)+len(e.Ciphertext))
	payload = append(payload, e.Nonce...)
	payload = append(payload, e.Tag...)
	payload = append(payload, e.Ciphertext...)
	return base64.StdEncoding.EncodeToString(payload)
}

// String returns the compact single-column form "v1:<keyId>:<payload>".
func (e *Envelope) String() string {
	return fmt.Sprintf("v%d:%s:%s", e.FormatVersion, e.KeyID, e.Encode())
}

// ParseEnvelope decodes a base64 payload carried with keyID.
func ParseEnvelope(keyID string, payload string) (*Envelope, error) {
	id, err := uuid.Parse(keyID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid key id", ErrInvalidEnvelope)
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 payload", ErrInvalidEnvelope)
	}
	if len(raw) < NonceSize+TagSize {
		return nil, fmt.Errorf("%w: payload too short", ErrInvalidEnvelope)
	}

	return &Envelope{
		KeyID:         id,
		Nonce:         raw[:NonceSize],
		Tag:           raw[NonceSize : NonceSize+TagSize],
		Ciphertext:    raw[NonceSize+TagSize:],
		FormatVersion: EnvelopeFormatVersion,
	}, nil
}

// ParseCompactEnvelope parses the "v1:<keyId>:<payload>" form produced by String.
func ParseCompactEnvelope(s string) (*Envelope, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 || !strings.HasPrefix(parts[0], "v") {
		return nil, fmt.Errorf("%w: expected format v<version>:<key_id>:<payload>", ErrInvalidEnvelope)
	}

	version, err := strconv.Atoi(strings.TrimPrefix(parts[0], "v"))
	if err != nil || version != EnvelopeFormatVersion {
		return nil, fmt.Errorf("%w: unsupported format version %q", ErrInvalidEnvelope, parts[0])
	}

	return ParseEnvelope(parts[1], parts[2])
}
