package main

import (
	"context"
	"fmt"

	"github.com/dukex/stepledger/pkg/models"
	cli "github.com/urfave/cli/v3"
)

func NewFormatCommand() *cli.Command {
	return &cli.Command{
		Name:      "format",
		Usage:     "Re-emit a step result in canonical form",
		ArgsUsage: "FILE",
		Action: func(ctx context.Context, command *cli.Command) error {
			document, err := readDocument(command)
			if err != nil {
				return err
			}

			result, err := models.ParseWorkflowStepResult(document)
			if err != nil {
				return err
			}

			fmt.Fprintln(command.Root().Writer, result.String())

			return nil
		},
	}
}
