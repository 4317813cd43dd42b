package commands

import (
	"fmt"
	"io"
	"log/slog"

	adminService "github.com/allisson/secpolicy/internal/admin/service"
)

// RunCreateAdminToken generates the admin bearer token and its Argon2id hash.
// The plain token is shown once; only ADMIN_TOKEN_HASH is configured on the server.
func RunCreateAdminToken(
	tokenService adminService.TokenService,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	if err := checkFormat(format); err != nil {
		return err
	}

	plainToken, hashedToken, err := tokenService.GenerateToken()
	if err != nil {
		return fmt.Errorf("failed to generate admin token: %w", err)
	}

	logger.Info("admin token generated")

	return render(writer, format, adminTokenResult{Token: plainToken, TokenHash: hashedToken})
}

type adminTokenResult struct {
	Token     string `json:"token"`
	TokenHash string `json:"token_hash"`
}

func (r adminTokenResult) writeText(w io.Writer) {
	_, _ = fmt.Fprintf(w, "# Shown once. Keep it in your secrets manager.\nADMIN_TOKEN=\"%s\"\n\n", r.Token)
	_, _ = fmt.Fprintf(w, "# Server side\nADMIN_TOKEN_HASH='%s'\n", r.TokenHash)
}
