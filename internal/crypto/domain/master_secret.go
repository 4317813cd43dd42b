package domain

// MasterSecret holds the plaintext seed material the first data key is derived from.
//
// When the configured secret is KMS-wrapped it is unwrapped once at startup and the
// plaintext only ever lives here. Close zeroes it.
type MasterSecret struct {
	value []byte
}

// NewMasterSecret copies value into a MasterSecret.
func NewMasterSecret(value []byte) (*MasterSecret, error) {
	if len(value) == 0 {
		return nil, ErrMasterSecretNotSet
	}
	buf := make([]byte, len(value))
	copy(buf, value)
	return &MasterSecret{value: buf}, nil
}

// Bytes returns the secret. Callers must not retain or modify the slice.
func (m *MasterSecret) Bytes() []byte {
	return m.value
}

// Close zeroes the secret.
func (m *MasterSecret) Close() {
	Zero(m.value)
	m.value = nil
}
