package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/cedms/cmd/app/commands"
	"github.com/allisson/cedms/internal/app"
	"github.com/allisson/cedms/internal/config"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "generate-keys",
			Usage: "Create the master key and the RSA signing key pair if they are missing",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				keyStore, err := container.KeyStore()
				if err != nil {
					return err
				}

				return commands.RunGenerateKeys(
					ctx,
					keyStore,
					container.Logger(),
					commands.DefaultIO().Writer,
					cfg.KeysDir,
					cfg.MasterKeyProtection,
					cmd.String("format"),
				)
			},
		},
	}
}
