package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukex/stepledger/pkg/log"
	"github.com/dukex/stepledger/pkg/models"
	"github.com/dukex/stepledger/pkg/persistence"
	"github.com/dukex/stepledger/pkg/runner"
	"github.com/dukex/stepledger/pkg/services"
	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
)

var errMissingCommand = errors.New("expected a command after --")

func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run a command as a workflow step and print its result",
		ArgsUsage: "-- COMMAND [ARGS...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "step",
				Usage:    "Step name",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "run-id",
				Usage: "Run ID to save under (generated if empty)",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Save the result to --database-url",
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Working directory of the command",
			},
			&cli.StringSliceFlag{
				Name:  "output",
				Usage: "Path the step produces; recorded as a step file when present",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Abort the command after this long",
			},
			&cli.BoolFlag{
				Name:  "fail",
				Usage: "Exit non-zero when the step does not succeed",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			args := command.Args().Slice()
			if len(args) == 0 {
				return errMissingCommand
			}

			logger := log.WithModule("cli")

			step := &runner.CommandStep{
				StepName: command.String("step"),
				Command:  args,
				Dir:      command.String("dir"),
				Outputs:  command.StringSlice("output"),
				Timeout:  command.Duration("timeout"),
			}

			result := runner.NewRunner(logger).Run(ctx, step)

			fmt.Fprintln(command.Root().Writer, result.String())

			if command.Bool("save") {
				runID := command.String("run-id")
				if runID == "" {
					runID = uuid.NewString()
				}

				err := withPersistence(ctx, command, func(p persistence.Persistence) error {
					_, err := services.NewStepResults(logger, p, nil, nil).Save(ctx, runID, step.StepName, result)

					return err
				})
				if err != nil {
					return err
				}

				fmt.Fprintf(command.Root().ErrWriter, "saved %s/%s\n", runID, step.StepName)
			}

			if stepResult, _ := result.StepResult(); command.Bool("fail") && stepResult != models.StepResultSuccess {
				return cli.Exit("step "+stepResult.String(), 1)
			}

			return nil
		},
	}
}
