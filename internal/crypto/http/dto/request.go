package dto

import (
	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/allisson/secpolicy/internal/crypto/domain"
	customValidation "github.com/allisson/secpolicy/internal/validation"
)

// ImportKeysRequest wraps the export document produced by the export endpoint.
type ImportKeysRequest struct {
	cryptoDomain.KeyExport
}

// Validate checks the document shape. Material and status are checked again by the key manager.
func (r *ImportKeysRequest) Validate() error {
	return validation.ValidateStruct(&r.KeyExport,
		validation.Field(&r.Algorithm,
			validation.Required,
			validation.In(cryptoDomain.AESGCM),
		),
		validation.Field(&r.Keys,
			validation.Required,
			validation.Each(validation.By(validateExportedKey)),
		),
	)
}

func validateExportedKey(value interface{}) error {
	key, ok := value.(cryptoDomain.ExportedKey)
	if !ok {
		return validation.NewError("validation_exported_key", "must be an exported key")
	}

	return validation.ValidateStruct(&key,
		validation.Field(&key.ID, validation.Required, customValidation.UUID),
		validation.Field(&key.Key, validation.Required, customValidation.Base64),
		validation.Field(&key.Status, validation.Required),
	)
}
