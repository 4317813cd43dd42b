package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	auditDomain "github.com/allisson/secpolicy/internal/audit/domain"
)

const signingKeyInfo = "security-event-signing-v1"

type eventSigner struct {
	signingKey []byte
}

// NewEventSigner derives a 32-byte signing key from the master secret with HKDF-SHA256.
// The signing key is independent from the data-encryption keys, so rotation never
// invalidates stored signatures.
func NewEventSigner(masterSecret []byte) (EventSigner, error) {
	if len(masterSecret) == 0 {
		return nil, fmt.Errorf("master secret is empty")
	}

	reader := hkdf.New(sha256.New, masterSecret, nil, []byte(signingKeyInfo))
	signingKey := make([]byte, 32)
	if _, err := io.ReadFull(reader, signingKey); err != nil {
		return nil, fmt.Errorf("failed to derive signing key: %w", err)
	}

	return &eventSigner{signingKey: signingKey}, nil
}

// canonicalize converts the event to the byte sequence that is signed.
// Format: id || type || severity || identity || session_ref || request_id || method || path ||
// user_agent || metadata || created_at, with every variable-length field length-prefixed.
func (s *eventSigner) canonicalize(event *auditDomain.SecurityEvent) ([]byte, error) {
	buf := make([]byte, 0, 512)

	buf = append(buf, event.ID[:]...)
	buf = appendLengthPrefixed(buf, []byte(event.Type))
	buf = appendLengthPrefixed(buf, []byte(event.Severity))
	buf = appendLengthPrefixed(buf, []byte(event.Identity))
	buf = appendLengthPrefixed(buf, []byte(event.SessionRef))
	buf = appendLengthPrefixed(buf, []byte(event.RequestID))
	buf = appendLengthPrefixed(buf, []byte(event.Method))
	buf = appendLengthPrefixed(buf, []byte(event.Path))
	buf = appendLengthPrefixed(buf, []byte(event.UserAgent))

	if event.Metadata != nil {
		// json.Marshal sorts map keys, which keeps the form deterministic
		metadataBytes, err := json.Marshal(event.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		buf = appendLengthPrefixed(buf, metadataBytes)
	} else {
		buf = appendLengthPrefixed(buf, nil)
	}

	timeBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(timeBytes, uint64(event.CreatedAt.UnixNano()))
	buf = append(buf, timeBytes...)

	return buf, nil
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by data.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	dataLen := len(data)
	if dataLen > 0xFFFFFFFF {
		panic("data length exceeds uint32 max (4GB)")
	}
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(dataLen))
	buf = append(buf, length...)
	buf = append(buf, data...)
	return buf
}

// Sign generates the HMAC-SHA256 signature for the event.
func (s *eventSigner) Sign(event *auditDomain.SecurityEvent) ([]byte, error) {
	canonical, err := s.canonicalize(event)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize event: %w", err)
	}

	mac := hmac.New(sha256.New, s.signingKey)
	mac.Write(canonical)
	return mac.Sum(nil), nil
}

// Verify checks if the event signature is valid.
func (s *eventSigner) Verify(event *auditDomain.SecurityEvent) error {
	expected, err := s.Sign(event)
	if err != nil {
		return fmt.Errorf("failed to compute expected signature: %w", err)
	}

	if !hmac.Equal(event.Signature, expected) {
		return auditDomain.ErrSignatureInvalid
	}

	return nil
}

func (s *eventSigner) Close() {
	for i := range s.signingKey {
		s.signingKey[i] = 0
	}
}
