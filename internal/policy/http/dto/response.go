package dto

import (
	"encoding/base64"
	"time"

	cryptoDomain "github.com/allisson/secpolicy/internal/crypto/domain"
	csrfDomain "github.com/allisson/secpolicy/internal/csrf/domain"
)

// CsrfTokenResponse is returned by the CSRF token endpoint.
type CsrfTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MapCsrfTokenToResponse converts a token into its response.
func MapCsrfTokenToResponse(token *csrfDomain.CsrfToken) CsrfTokenResponse {
	return CsrfTokenResponse{
		Token:     token.Value,
		ExpiresAt: token.ExpiresAt,
	}
}

// EncryptFieldResponse carries both envelope forms.
type EncryptFieldResponse struct {
	KeyID         string `json:"key_id"`
	Ciphertext    string `json:"ciphertext"`
	Envelope      string `json:"envelope"`
	FormatVersion int    `json:"format_version"`
}

// MapEnvelopeToResponse converts an envelope into its response.
func MapEnvelopeToResponse(envelope *cryptoDomain.Envelope) EncryptFieldResponse {
	return EncryptFieldResponse{
		KeyID:         envelope.KeyID.String(),
		Ciphertext:    envelope.Encode(),
		Envelope:      envelope.String(),
		FormatVersion: envelope.FormatVersion,
	}
}

// DecryptFieldResponse carries the base64-encoded plaintext.
type DecryptFieldResponse struct {
	Plaintext string `json:"plaintext"`
}

// MapPlaintextToResponse encodes plaintext for the response.
func MapPlaintextToResponse(plaintext []byte) DecryptFieldResponse {
	return DecryptFieldResponse{Plaintext: base64.StdEncoding.EncodeToString(plaintext)}
}
