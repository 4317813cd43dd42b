package domain

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	keyID := uuid.Must(uuid.NewV7())
	nonce := bytes.Repeat([]byte{1}, NonceSize)
	sealed := append(bytes.Repeat([]byte{2}, 5), bytes.Repeat([]byte{3}, TagSize)...)

	env, err := NewEnvelope(keyID, nonce, sealed)
	require.NoError(t, err)

	assert.Equal(t, bytes.Repeat([]byte{2}, 5), env.Ciphertext)
	assert.Equal(t, bytes.Repeat([]byte{3}, TagSize), env.Tag)
	assert.Equal(t, sealed, env.Sealed())
	assert.Equal(t, EnvelopeFormatVersion, env.FormatVersion)
	assert.NoError(t, env.Validate())

	_, err = NewEnvelope(keyID, nonce[:8], sealed)
	assert.ErrorIs(t, err, ErrInvalidEnvelope)

	_, err = NewEnvelope(keyID, nonce, sealed[:TagSize-1])
	assert.ErrorIs(t, err, ErrInvalidEnvelope)
}

func TestEnvelope_EncodeLayout(t *testing.T) {
	keyID := uuid.Must(uuid.NewV7())
	env := &Envelope{
		KeyID:         keyID,
		Nonce:         bytes.Repeat([]byte{0xAA}, NonceSize),
		Tag:           bytes.Repeat([]byte{0xBB}, TagSize),
		Ciphertext:    []byte("cipher"),
		FormatVersion: EnvelopeFormatVersion,
	}

	raw, err := base64.StdEncoding.DecodeString(env.Encode())
	require.NoError(t, err)
	assert.Equal(t, env.Nonce, raw[:NonceSize])
	assert.Equal(t, env.Tag, raw[NonceSize:NonceSize+TagSize])
	assert.Equal(t, env.Ciphertext, raw[NonceSize+TagSize:])

	parsed, err := ParseEnvelope(keyID.String(), env.Encode())
	require.NoError(t, err)
	assert.Equal(t, env, parsed)

	compact := env.String()
	assert.True(t, strings.HasPrefix(compact, "v1:"+keyID.String()+":"))
	fromCompact, err := ParseCompactEnvelope(compact)
	require.NoError(t, err)
	assert.Equal(t, env, fromCompact)
}

func TestParseEnvelope_Errors(t *testing.T) {
	keyID := uuid.Must(uuid.NewV7()).String()
	short := base64.StdEncoding.EncodeToString(make([]byte, NonceSize+TagSize-1))

	tests := []struct {
		name    string
		keyID   string
		payload string
	}{
		{name: "invalid key id", keyID: "not-a-uuid", payload: base64.StdEncoding.EncodeToString(make([]byte, 40))},
		{name: "invalid base64", keyID: keyID, payload: "%%%"},
		{name: "payload too short", keyID: keyID, payload: short},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEnvelope(tt.keyID, tt.payload)
			assert.ErrorIs(t, err, ErrInvalidEnvelope)
		})
	}

	for _, compact := range []string{"", "v1:only-two", "x1:" + keyID + ":AAAA", "v2:" + keyID + ":AAAA"} {
		_, err := ParseCompactEnvelope(compact)
		assert.ErrorIs(t, err, ErrInvalidEnvelope, compact)
	}
}

func TestEnvelope_Validate(t *testing.T) {
	valid := func() *Envelope {
		return &Envelope{
			KeyID:         uuid.Must(uuid.NewV7()),
			Nonce:         make([]byte, NonceSize),
			Tag:           make([]byte, TagSize),
			FormatVersion: EnvelopeFormatVersion,
		}
	}

	var nilEnvelope *Envelope
	assert.ErrorIs(t, nilEnvelope.Validate(), ErrInvalidEnvelope)

	env := valid()
	env.FormatVersion = 2
	assert.ErrorIs(t, env.Validate(), ErrInvalidEnvelope)

	env = valid()
	env.KeyID = uuid.Nil
	assert.ErrorIs(t, env.Validate(), ErrInvalidEnvelope)

	env = valid()
	env.Tag = env.Tag[:8]
	assert.ErrorIs(t, env.Validate(), ErrInvalidEnvelope)
}
