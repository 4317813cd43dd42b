package commands

import (
	"fmt"
	"log/slog"

	validation "github.com/jellydator/validation"

	kdfService "github.com/allisson/secpolicy/internal/kdf/service"
	customValidation "github.com/allisson/secpolicy/internal/validation"
)

// passwordPolicy is the minimum strength accepted by hash-password.
var passwordPolicy = customValidation.PasswordStrength{
	MinLength:      12,
	MaxLength:      128,
	RequireUpper:   true,
	RequireLower:   true,
	RequireNumber:  true,
	RequireSpecial: true,
}

// RunHashPassword hashes a password with Argon2id and prints the PHC string.
// When password is empty it is read from the first line of the reader.
// With verifyHash set the password is checked against it instead of hashed.
func RunHashPassword(
	hasher kdfService.PasswordHasher,
	logger *slog.Logger,
	ioTuple IOTuple,
	password string,
	verifyHash string,
) error {
	if password == "" {
		line, err := readLine(ioTuple.Reader)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = line
	}

	if verifyHash != "" {
		ok, err := hasher.Verify([]byte(password), verifyHash)
		if err != nil {
			return fmt.Errorf("failed to verify password: %w", err)
		}
		if !ok {
			_, _ = fmt.Fprintln(ioTuple.Writer, "Password does not match")
			return fmt.Errorf("password does not match hash")
		}
		_, _ = fmt.Fprintln(ioTuple.Writer, "Password matches")
		return nil
	}

	if err := validation.Validate(password, validation.Required, passwordPolicy); err != nil {
		return fmt.Errorf("password rejected: %w", customValidation.WrapValidationError(err))
	}

	encoded, err := hasher.Hash([]byte(password))
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	logger.Info("password hashed")
	_, _ = fmt.Fprintln(ioTuple.Writer, encoded)
	return nil
}
