package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/secpolicy/cmd/app/commands"
	"github.com/allisson/secpolicy/internal/app"
	"github.com/allisson/secpolicy/internal/config"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-master-secret",
			Usage: "Print a fresh MASTER_SECRET, wrapped by a KMS key when one is given",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "kms-provider",
					Usage: "One of localsecrets, gcpkms, awskms, azurekeyvault, hashivault",
				},
				&cli.StringFlag{
					Name:  "kms-key-uri",
					Usage: "Wrapping key, e.g. base64key://... or gcpkms://projects/...",
				},
				formatFlag(),
			},
			Action: withContainer(func(ctx context.Context, cmd *cli.Command, _ *config.Config, c *app.Container) error {
				return commands.RunCreateMasterSecret(ctx, c.KMSService(), c.Logger(), commands.DefaultIO().Writer,
					cmd.String("kms-provider"), cmd.String("kms-key-uri"), cmd.String("format"))
			}),
		},
		{
			Name:  "derive-key",
			Usage: "Run PBKDF2-HMAC-SHA256 over a secret and print the key",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "secret",
					Usage: "Secret to derive from; stdin is read when empty",
				},
				&cli.StringFlag{
					Name:     "salt",
					Required: true,
				},
				&cli.IntFlag{
					Name:  "iterations",
					Usage: "Overrides KDF_ITERATIONS when positive",
				},
				&cli.IntFlag{
					Name:  "length",
					Value: 32,
					Usage: "Key length in bytes",
				},
				formatFlag(),
			},
			Action: withContainer(func(_ context.Context, cmd *cli.Command, _ *config.Config, c *app.Container) error {
				deriver, err := c.KeyDeriver()
				if err != nil {
					return err
				}
				return commands.RunDeriveKey(deriver, c.Logger(), commands.DefaultIO(), commands.DeriveKeyOptions{
					Secret:     cmd.String("secret"),
					Salt:       cmd.String("salt"),
					Iterations: int(cmd.Int("iterations")),
					Length:     int(cmd.Int("length")),
					Format:     cmd.String("format"),
				})
			}),
		},
	}
}
