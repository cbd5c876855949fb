package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/cedms/cmd/app/commands"
	"github.com/allisson/cedms/internal/app"
	"github.com/allisson/cedms/internal/config"
)

func getAuditCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "verify-audit-logs",
			Usage: "Replay the audit hash chain and report the first tampered entry",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				ledger, err := container.Ledger()
				if err != nil {
					return err
				}

				return commands.RunVerifyAuditLogs(
					ctx,
					ledger,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "clear-audit-logs",
			Usage: "Truncate the audit ledger, leaving a single AUDIT_LOGS_CLEARED entry",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:    "yes",
					Aliases: []string{"y"},
					Usage:   "Skip the confirmation prompt",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				ledger, err := container.Ledger()
				if err != nil {
					return err
				}

				return commands.RunClearAuditLogs(
					ctx,
					ledger,
					container.Logger(),
					commands.DefaultIO(),
					cmd.Bool("yes"),
					cmd.String("format"),
				)
			},
		},
	}
}
