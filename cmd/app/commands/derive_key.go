package commands

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"

	cryptoDomain "github.com/allisson/secpolicy/internal/crypto/domain"
	kdfService "github.com/allisson/secpolicy/internal/kdf/service"
)

// DeriveKeyOptions holds the derive-key inputs.
type DeriveKeyOptions struct {
	Secret     string
	Salt       string
	Iterations int
	Length     int
	Format     string
}

// RunDeriveKey derives key material with PBKDF2-HMAC-SHA256 and prints it base64 and hex
// encoded. A zero iteration count uses the configured default. The secret is read from the
// first line of the reader when empty.
func RunDeriveKey(
	deriver kdfService.KeyDeriver,
	logger *slog.Logger,
	ioTuple IOTuple,
	opts DeriveKeyOptions,
) error {
	if err := checkFormat(opts.Format); err != nil {
		return err
	}

	secret := opts.Secret
	if secret == "" {
		line, err := readLine(ioTuple.Reader)
		if err != nil {
			return fmt.Errorf("failed to read secret: %w", err)
		}
		secret = line
	}

	var (
		key []byte
		err error
	)
	if opts.Iterations == 0 {
		key, err = deriver.DeriveDefault([]byte(secret), []byte(opts.Salt), opts.Length)
	} else {
		key, err = deriver.Derive([]byte(secret), []byte(opts.Salt), opts.Iterations, opts.Length)
	}
	if err != nil {
		return fmt.Errorf("failed to derive key: %w", err)
	}
	defer cryptoDomain.Zero(key)

	logger.Info("key derived", slog.Int("length", opts.Length))

	return render(ioTuple.Writer, opts.Format, derivedKey{
		Length: len(key),
		Base64: base64.StdEncoding.EncodeToString(key),
		Hex:    hex.EncodeToString(key),
	})
}

type derivedKey struct {
	Length int    `json:"length"`
	Base64 string `json:"base64"`
	Hex    string `json:"hex"`
}

func (k derivedKey) writeText(w io.Writer) {
	_, _ = fmt.Fprintf(w, "base64: %s\nhex:    %s\n", k.Base64, k.Hex)
}
