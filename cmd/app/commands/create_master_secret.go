package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"

	cryptoDomain "github.com/allisson/secpolicy/internal/crypto/domain"
	cryptoService "github.com/allisson/secpolicy/internal/crypto/service"
)

const masterSecretLength = 32

var errKMSFlagsPaired = errors.New(
	"--kms-provider and --kms-key-uri go together; for local development use " +
		`--kms-provider=localsecrets --kms-key-uri="base64key://<32-byte-base64-key>"`,
)

type masterSecretResult struct {
	KMSProvider  string `json:"kms_provider,omitempty"`
	KMSKeyURI    string `json:"kms_key_uri,omitempty"`
	MasterSecret string `json:"master_secret"`
}

func (r masterSecretResult) writeText(w io.Writer) {
	if r.KMSKeyURI == "" {
		_, _ = fmt.Fprintln(w, "# Unwrapped secret, development only")
	} else {
		_, _ = fmt.Fprintf(w, "# Wrapped by %s\nKMS_PROVIDER=\"%s\"\nKMS_KEY_URI=\"%s\"\n",
			r.KMSProvider, r.KMSProvider, r.KMSKeyURI)
	}
	_, _ = fmt.Fprintf(w, "MASTER_SECRET=\"%s\"\n", r.MasterSecret)
}

// RunCreateMasterSecret prints 32 random bytes for MASTER_SECRET. Given a KMS key the
// secret is wrapped first and only the ciphertext is printed; localsecrets is meant for
// development, production uses gcpkms, awskms, azurekeyvault or hashivault.
func RunCreateMasterSecret(
	ctx context.Context,
	kmsService cryptoService.KMSService,
	logger *slog.Logger,
	writer io.Writer,
	kmsProvider, kmsKeyURI string,
	format string,
) error {
	if (kmsProvider == "") != (kmsKeyURI == "") {
		return errKMSFlagsPaired
	}
	if err := checkFormat(format); err != nil {
		return err
	}

	secret := make([]byte, masterSecretLength)
	if _, err := rand.Read(secret); err != nil {
		return fmt.Errorf("failed to generate master secret: %w", err)
	}
	defer cryptoDomain.Zero(secret)

	result := masterSecretResult{KMSProvider: kmsProvider, KMSKeyURI: kmsKeyURI}
	if kmsKeyURI == "" {
		logger.Warn("master secret printed without KMS wrapping")
		result.MasterSecret = base64.StdEncoding.EncodeToString(secret)
		return render(writer, format, result)
	}

	wrapped, err := cryptoService.WrapMasterSecret(ctx, kmsService, kmsKeyURI, secret)
	if err != nil {
		return err
	}
	logger.Info("master secret wrapped", slog.String("kms_provider", kmsProvider))

	result.MasterSecret = wrapped
	return render(writer, format, result)
}
