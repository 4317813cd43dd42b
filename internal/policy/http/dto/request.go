// Package dto provides data transfer objects for the field encryption endpoints.
package dto

import (
	"encoding/base64"

	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/allisson/secpolicy/internal/crypto/domain"
	customValidation "github.com/allisson/secpolicy/internal/validation"
)

// EncryptFieldRequest contains the value to encrypt.
type EncryptFieldRequest struct {
	Plaintext      string `json:"plaintext"`                 // Base64-encoded plaintext
	AssociatedData string `json:"associated_data,omitempty"` // Base64-encoded AAD bound to the ciphertext
}

// Validate checks if the encrypt request is valid.
func (r *EncryptFieldRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Plaintext,
			validation.Required,
			customValidation.NotBlank,
			customValidation.Base64,
		),
		validation.Field(&r.AssociatedData,
			customValidation.Base64,
		),
	)
}

// DecodePlaintext returns the decoded plaintext. Call after Validate.
func (r *EncryptFieldRequest) DecodePlaintext() ([]byte, error) {
	return base64.StdEncoding.DecodeString(r.Plaintext)
}

// DecodeAssociatedData returns the decoded AAD or nil when absent.
func (r *EncryptFieldRequest) DecodeAssociatedData() ([]byte, error) {
	return decodeOptional(r.AssociatedData)
}

// DecryptFieldRequest accepts either the compact envelope or key_id plus ciphertext.
type DecryptFieldRequest struct {
	Envelope       string `json:"envelope,omitempty"`   // Compact form "v1:<key_id>:<base64>"
	KeyID          string `json:"key_id,omitempty"`     // Key id carried alongside the ciphertext
	Ciphertext     string `json:"ciphertext,omitempty"` // Base64(nonce ‖ tag ‖ ciphertext)
	AssociatedData string `json:"associated_data,omitempty"`
}

// Validate checks that exactly one envelope form is present.
func (r *DecryptFieldRequest) Validate() error {
	compact := r.Envelope != ""

	return validation.ValidateStruct(r,
		validation.Field(&r.Envelope,
			validation.When(compact, customValidation.CompactEnvelope),
		),
		validation.Field(&r.KeyID,
			validation.When(!compact, validation.Required, customValidation.UUID),
			validation.When(compact, validation.Empty.Error("must be empty when envelope is set")),
		),
		validation.Field(&r.Ciphertext,
			validation.When(!compact, validation.Required, customValidation.Base64),
			validation.When(compact, validation.Empty.Error("must be empty when envelope is set")),
		),
		validation.Field(&r.AssociatedData,
			customValidation.Base64,
		),
	)
}

// ParseEnvelope returns the envelope from whichever form the request carries. Call after Validate.
func (r *DecryptFieldRequest) ParseEnvelope() (*cryptoDomain.Envelope, error) {
	if r.Envelope != "" {
		return cryptoDomain.ParseCompactEnvelope(r.Envelope)
	}
	return cryptoDomain.ParseEnvelope(r.KeyID, r.Ciphertext)
}

// DecodeAssociatedData returns the decoded AAD or nil when absent.
func (r *DecryptFieldRequest) DecodeAssociatedData() ([]byte, error) {
	return decodeOptional(r.AssociatedData)
}

func decodeOptional(value string) ([]byte, error) {
	if value == "" {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(value)
}
