package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/secpolicy/cmd/app/commands"
	"github.com/allisson/secpolicy/internal/app"
	"github.com/allisson/secpolicy/internal/config"
)

func getCredentialCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-admin-token",
			Usage: "Print a new admin bearer token and the ADMIN_TOKEN_HASH value for it",
			Flags: []cli.Flag{formatFlag()},
			Action: withContainer(func(_ context.Context, cmd *cli.Command, _ *config.Config, c *app.Container) error {
				return commands.RunCreateAdminToken(c.AdminTokenService(), c.Logger(), commands.DefaultIO().Writer,
					cmd.String("format"))
			}),
		},
		{
			Name:  "hash-password",
			Usage: "Print the argon2id hash of a password, or check one with --verify",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "password",
					Aliases: []string{"p"},
					Usage:   "Password to hash; stdin is read when empty",
				},
				&cli.StringFlag{
					Name:  "verify",
					Usage: "Encoded hash the password must match",
				},
			},
			Action: withContainer(func(_ context.Context, cmd *cli.Command, _ *config.Config, c *app.Container) error {
				hasher, err := c.PasswordHasher()
				if err != nil {
					return err
				}
				return commands.RunHashPassword(hasher, c.Logger(), commands.DefaultIO(),
					cmd.String("password"), cmd.String("verify"))
			}),
		},
	}
}
