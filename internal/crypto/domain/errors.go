package domain

import (
	"github.com/allisson/secpolicy/internal/errors"
)

// Cryptographic error definitions.
//
// These wrap the standard errors from internal/errors so the HTTP layer can map them.
// Decryption failures never disclose which check failed.
var (
	// ErrUnsupportedAlgorithm indicates the requested encryption algorithm is not supported.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates key material is not exactly 32 bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrAuthenticationFailed indicates the tag did not verify: wrong key, wrong AAD or
	// tampered data. No plaintext is returned.
	ErrAuthenticationFailed = errors.Wrap(errors.ErrInvalidInput, "authentication failed")

	// ErrInvalidEnvelope indicates an envelope that cannot be parsed (bad base64, short
	// payload, unknown format version, missing key id).
	ErrInvalidEnvelope = errors.Wrap(errors.ErrInvalidInput, "invalid envelope")

	// ErrNoActiveKey indicates the key manager has no current key (not initialized or closed).
	ErrNoActiveKey = errors.Wrap(errors.ErrUnavailable, "no active key")

	// ErrKeyNotFound indicates the key was purged, its overlap elapsed, or it never existed.
	ErrKeyNotFound = errors.Wrap(errors.ErrNotFound, "key not found")

	// ErrKeyNotPending indicates an attempt to promote a key that is not pending.
	ErrKeyNotPending = errors.Wrap(errors.ErrConflict, "key is not pending")

	// ErrDuplicateKey indicates an imported key id already exists in the ring.
	ErrDuplicateKey = errors.Wrap(errors.ErrConflict, "key already exists")

	// ErrInvalidKeyExport indicates an export document that cannot be imported.
	ErrInvalidKeyExport = errors.Wrap(errors.ErrInvalidInput, "invalid key export")

	// ErrKeyExportDisabled indicates export/import was requested while disabled by configuration.
	ErrKeyExportDisabled = errors.Wrap(errors.ErrForbidden, "key export is disabled")

	// ErrMasterSecretNotSet indicates the master secret is missing.
	ErrMasterSecretNotSet = errors.Wrap(errors.ErrConfiguration, "master secret is not set")

	// ErrInvalidMasterSecretBase64 indicates a KMS-wrapped master secret is not valid base64.
	ErrInvalidMasterSecretBase64 = errors.Wrap(errors.ErrConfiguration, "invalid master secret base64")

	// ErrKMSDecryptionFailed indicates the KMS refused to unwrap the master secret.
	ErrKMSDecryptionFailed = errors.Wrap(errors.ErrConfiguration, "failed to decrypt master secret with KMS")
)
