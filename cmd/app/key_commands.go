package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/gatekeeper/cmd/app/commands"
	"github.com/allisson/gatekeeper/internal/app"
	"github.com/allisson/gatekeeper/internal/config"
)

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format: 'text' or 'json'",
	}
}

func ownerFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "owner",
		Aliases:  []string{"o"},
		Required: true,
		Usage:    "Owner identity ID (the session user the key acts for)",
	}
}

func getAPIKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-api-key",
			Usage: "Issue a new scoped API key",
			Flags: []cli.Flag{
				ownerFlag(),
				&cli.StringFlag{
					Name:     "name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Human-readable key name",
				},
				&cli.StringFlag{
					Name:     "scopes",
					Aliases:  []string{"s"},
					Required: true,
					Usage:    "Comma-separated scopes (see list-scopes)",
				},
				&cli.StringFlag{
					Name:    "expires-at",
					Aliases: []string{"e"},
					Usage:   "Optional expiration in RFC 3339 format",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				apiKeyUseCase, err := container.APIKeyUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateAPIKey(
					ctx,
					apiKeyUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("owner"),
					cmd.String("name"),
					cmd.String("scopes"),
					cmd.String("expires-at"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "list-api-keys",
			Usage: "List the API keys of an owner",
			Flags: []cli.Flag{
				ownerFlag(),
				&cli.IntFlag{
					Name:  "offset",
					Value: 0,
					Usage: "Number of keys to skip",
				},
				&cli.IntFlag{
					Name:  "limit",
					Value: 50,
					Usage: "Maximum number of keys to list",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				apiKeyUseCase, err := container.APIKeyUseCase()
				if err != nil {
					return err
				}

				return commands.RunListAPIKeys(
					ctx,
					apiKeyUseCase,
					commands.DefaultIO().Writer,
					cmd.String("owner"),
					int(cmd.Int("offset")),
					int(cmd.Int("limit")),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "revoke-api-key",
			Usage: "Revoke an API key so it can no longer authenticate",
			Flags: []cli.Flag{
				ownerFlag(),
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "API key ID (UUID)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				apiKeyUseCase, err := container.APIKeyUseCase()
				if err != nil {
					return err
				}

				return commands.RunRevokeAPIKey(
					ctx,
					apiKeyUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("owner"),
					cmd.String("id"),
				)
			},
		},
		{
			Name:  "rotate-api-key",
			Usage: "Revoke an API key and issue a replacement with the same name and scopes",
			Flags: []cli.Flag{
				ownerFlag(),
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "API key ID (UUID)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				apiKeyUseCase, err := container.APIKeyUseCase()
				if err != nil {
					return err
				}

				return commands.RunRotateAPIKey(
					ctx,
					apiKeyUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("owner"),
					cmd.String("id"),
					cmd.String("format"),
				)
			},
		},
	}
}
