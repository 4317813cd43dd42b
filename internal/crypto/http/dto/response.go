// Package dto provides data transfer objects for the key administration endpoints.
package dto

import (
	cryptoDomain "github.com/allisson/secpolicy/internal/crypto/domain"
)

// ListKeysResponse carries key metadata and ring statistics. Key material is never listed.
type ListKeysResponse struct {
	Data  []cryptoDomain.KeyInfo `json:"data"`
	Stats *cryptoDomain.KeyStats `json:"stats"`
}

// ImportKeysResponse reports how many keys an import added.
type ImportKeysResponse struct {
	Imported int `json:"imported"`
}
