package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/stepledger/pkg/models"
	"github.com/dukex/stepledger/pkg/schema"
	cli "github.com/urfave/cli/v3"
)

func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check a step result document against the schema and the decoder",
		ArgsUsage: "FILE",
		Action: func(ctx context.Context, command *cli.Command) error {
			document, err := readDocument(command)
			if err != nil {
				return err
			}

			out := command.Root().Writer
			failed := false

			validator, err := schema.NewValidator()
			if err != nil {
				return err
			}

			var violation *schema.ValidationError

			err = validator.ValidateStepResult(document)
			switch {
			case errors.As(err, &violation):
				failed = true

				fmt.Fprintln(out, "schema: invalid")

				for _, v := range violation.Violations {
					fmt.Fprintln(out, "  - "+v)
				}
			case err != nil:
				failed = true

				fmt.Fprintln(out, "schema: "+err.Error())
			default:
				fmt.Fprintln(out, "schema: ok")
			}

			_, report, err := models.ParseWorkflowStepResultWithReport(document)
			if err != nil {
				fmt.Fprintln(out, "decode: "+err.Error())

				return cli.Exit("invalid step result", 1)
			}

			fmt.Fprintln(out, "decode: ok")
			fmt.Fprintf(out, "dropped step values: %d\n", report.DroppedStepValues)

			if len(report.SkippedTimestamps) > 0 {
				fmt.Fprintf(out, "skipped timestamps: %s\n", strings.Join(report.SkippedTimestamps, ", "))
			}

			if len(report.SkippedFields) > 0 {
				fmt.Fprintf(out, "skipped fields: %s\n", strings.Join(report.SkippedFields, ", "))
			}

			if failed || !report.Clean() {
				return cli.Exit("step result has problems", 1)
			}

			return nil
		},
	}
}
