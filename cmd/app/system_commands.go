package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/phivault/cmd/app/commands"
	"github.com/allisson/phivault/internal/app"
	"github.com/allisson/phivault/internal/config"
)

func getSystemCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "migrate",
			Usage: "Run database migrations",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunMigrations(container.Logger(), cfg.DBDriver, cfg.DBConnectionString)
			},
		},
		{
			Name:  "metrics-server",
			Usage: "Serve the Prometheus metrics endpoint",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				provider, err := container.MetricsProvider()
				if err != nil {
					return err
				}

				return commands.RunMetricsServer(ctx, provider, container.Logger(), cfg.MetricsPort)
			},
		},
		{
			Name:  "show-policy",
			Usage: "Print the active field encryption policy",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				fieldPolicy, err := container.FieldPolicy()
				if err != nil {
					return err
				}

				return commands.RunShowPolicy(fieldPolicy, commands.DefaultIO().Writer)
			},
		},
	}
}
