package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/phivault/cmd/app/commands"
	"github.com/allisson/phivault/internal/app"
	"github.com/allisson/phivault/internal/config"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-data-key",
			Usage: "Provision the data key for an alternate name if it does not exist",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "alt-name",
					Aliases: []string{"n"},
					Value:   "",
					Usage:   "Alternate name of the data key (defaults to DATA_KEY_ALT_NAME)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				altName := cmd.String("alt-name")
				if altName == "" {
					altName = cfg.DataKeyAltName
				}

				dataKeyUseCase, err := container.DataKeyUseCase(ctx)
				if err != nil {
					return err
				}

				return commands.RunCreateDataKey(
					ctx,
					dataKeyUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					altName,
				)
			},
		},
	}
}
