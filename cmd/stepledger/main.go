// Package main is the stepledger command line tool.
package main

import (
	"context"
	"os"

	"github.com/dukex/stepledger/pkg/log"
	cli "github.com/urfave/cli/v3"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.WithModule("cli").Error("stepledger failed", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:                  "stepledger",
		Usage:                 "Run, validate and inspect workflow step results",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			NewRunCommand(),
			NewValidateCommand(),
			NewFormatCommand(),
			NewShowCommand(),
			NewWatchCommand(),
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Persistence URL (file path, postgres://, redis://)",
				Value:   "./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			log.Setup(command.String("log-level"))

			return ctx, nil
		},
	}
}
