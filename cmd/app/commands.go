package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/secpolicy/internal/app"
	"github.com/allisson/secpolicy/internal/config"
)

// containerAction receives a container built from the environment. The container is shut
// down after the action returns.
type containerAction func(ctx context.Context, cmd *cli.Command, cfg *config.Config, container *app.Container) error

func withContainer(action containerAction) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		container := app.NewContainer(cfg)
		defer func() { _ = container.Shutdown(ctx) }()

		return action(ctx, cmd, cfg, container)
	}
}

func formatFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format: 'text' or 'json'",
	}
}

func inCategory(category string, cmds []*cli.Command) []*cli.Command {
	for _, cmd := range cmds {
		cmd.Category = category
	}
	return cmds
}

func getCommands(version string) []*cli.Command {
	var cmds []*cli.Command
	cmds = append(cmds, inCategory("service", getSystemCommands(version))...)
	cmds = append(cmds, inCategory("keys", getKeyCommands())...)
	cmds = append(cmds, inCategory("credentials", getCredentialCommands())...)
	return cmds
}
