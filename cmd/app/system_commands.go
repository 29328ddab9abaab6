package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/gatekeeper/cmd/app/commands"
	"github.com/allisson/gatekeeper/internal/app"
	"github.com/allisson/gatekeeper/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the HTTP server",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Apply (or roll back) the api_keys schema migrations",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "steps",
					Value: 0,
					Usage: "Number of migrations to apply; negative rolls back, 0 applies all pending",
				},
				&cli.StringFlag{
					Name:  "dir",
					Value: "migrations",
					Usage: "Directory holding the postgresql/ and mysql/ migration sets",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunMigrations(container.Logger(), commands.MigrateOptions{
					Driver:           cfg.DBDriver,
					ConnectionString: cfg.DBConnectionString,
					Dir:              cmd.String("dir"),
					Steps:            int(cmd.Int("steps")),
				})
			},
		},
		{
			Name:  "list-scopes",
			Usage: "List the scopes that can be granted to API keys",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunListScopes(commands.DefaultIO().Writer, cmd.String("format"))
			},
		},
	}
}
