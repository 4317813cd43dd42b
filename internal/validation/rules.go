// Package validation holds the jellydator/validation rules shared by request DTOs and CLI commands.
package validation

import (
	"encoding/base64"
	"strings"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/allisson/secpolicy/internal/crypto/domain"
	apperrors "github.com/allisson/secpolicy/internal/errors"
)

// WrapValidationError turns a rule failure into ErrInvalidInput so the HTTP layer answers 422.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NotBlank rejects strings made only of whitespace.
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// UUID accepts the canonical key id form.
var UUID = validation.NewStringRuleWithError(
	func(s string) bool {
		_, err := uuid.Parse(s)
		return err == nil
	},
	validation.NewError("validation_uuid", "must be a valid UUID"),
)

// Base64 accepts standard base64 of any decoded size.
var Base64 = Base64Bytes(0)

// Base64Bytes accepts standard base64 whose decoded form is at most maxBytes long.
// A maxBytes of zero disables the size check. Empty strings are left to Required.
func Base64Bytes(maxBytes int) validation.Rule {
	return validation.NewStringRuleWithError(
		func(s string) bool {
			if maxBytes > 0 && base64.StdEncoding.DecodedLen(len(s)) > maxBytes+2 {
				return false
			}
			decoded, err := base64.StdEncoding.DecodeString(s)
			return err == nil && (maxBytes == 0 || len(decoded) <= maxBytes)
		},
		validation.NewError("validation_base64", "must be valid base64-encoded data within the size limit"),
	)
}

// CompactEnvelope accepts the single-column "v1:<key_id>:<payload>" ciphertext form.
var CompactEnvelope = validation.NewStringRuleWithError(
	func(s string) bool {
		_, err := cryptoDomain.ParseCompactEnvelope(s)
		return err == nil
	},
	validation.NewError("validation_envelope", "must be a v1 envelope with a key id and a base64 payload"),
)
