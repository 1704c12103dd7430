package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/phivault/cmd/app/commands"
	"github.com/allisson/phivault/internal/app"
	"github.com/allisson/phivault/internal/config"
)

func getRecordCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "view-patient",
			Usage: "Print the role-projected view of a patient record",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Patient record ID",
				},
				&cli.StringSliceFlag{
					Name:    "role",
					Aliases: []string{"r"},
					Usage:   "Viewer role (repeatable, e.g. --role doctor --role nurse)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				recordUseCase, err := container.RecordUseCase(ctx)
				if err != nil {
					return err
				}

				return commands.RunViewPatient(
					ctx,
					recordUseCase,
					commands.DefaultIO().Writer,
					cmd.String("id"),
					cmd.StringSlice("role"),
				)
			},
		},
	}
}
