package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/secpolicy/cmd/app/commands"
	"github.com/allisson/secpolicy/internal/app"
	"github.com/allisson/secpolicy/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Serve the policy API until SIGINT or SIGTERM",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Apply the security event schema to DB_DRIVER",
			Action: withContainer(func(_ context.Context, _ *cli.Command, cfg *config.Config, c *app.Container) error {
				return commands.RunMigrations(c.Logger(), cfg.DBDriver, cfg.DBConnectionString)
			}),
		},
		{
			Name:  "clean-security-events",
			Usage: "Purge stored security events past a retention age",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:     "days",
					Aliases:  []string{"d"},
					Required: true,
					Usage:    "Retention in days; older events are deleted",
				},
				&cli.BoolFlag{
					Name:    "dry-run",
					Aliases: []string{"n"},
					Usage:   "Only count the events that would be deleted",
				},
				formatFlag(),
			},
			Action: withContainer(func(ctx context.Context, cmd *cli.Command, _ *config.Config, c *app.Container) error {
				events, err := c.SecurityEventUseCase()
				if err != nil {
					return err
				}
				return commands.RunCleanSecurityEvents(ctx, events, c.Logger(), commands.DefaultIO().Writer,
					int(cmd.Int("days")), cmd.Bool("dry-run"), cmd.String("format"))
			}),
		},
		{
			Name:  "verify-security-events",
			Usage: "Check the HMAC signature of every stored event in a date range",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "start-date",
					Aliases:  []string{"s"},
					Required: true,
					Usage:    "Range start, YYYY-MM-DD or 'YYYY-MM-DD HH:MM:SS' (UTC)",
				},
				&cli.StringFlag{
					Name:     "end-date",
					Aliases:  []string{"e"},
					Required: true,
					Usage:    "Range end, same formats as --start-date",
				},
				formatFlag(),
			},
			Action: withContainer(func(ctx context.Context, cmd *cli.Command, _ *config.Config, c *app.Container) error {
				events, err := c.SecurityEventUseCase()
				if err != nil {
					return err
				}
				return commands.RunVerifySecurityEvents(ctx, events, c.Logger(), commands.DefaultIO().Writer,
					cmd.String("start-date"), cmd.String("end-date"), cmd.String("format"))
			}),
		},
	}
}
