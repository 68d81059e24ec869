package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dukex/stepledger/pkg/jsontree"
	"github.com/dukex/stepledger/pkg/log"
	"github.com/dukex/stepledger/pkg/models"
	"github.com/dukex/stepledger/pkg/persistence"
	"github.com/dukex/stepledger/pkg/services"
	cli "github.com/urfave/cli/v3"
)

func NewShowCommand() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Print stored step results",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "run-id",
				Usage: "Run to show; lists runs when empty",
			},
			&cli.StringFlag{
				Name:  "step",
				Usage: "Only this step",
			},
			&cli.StringFlag{
				Name:  "query",
				Usage: "JSONPath expression evaluated against each result",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			return withPersistence(ctx, command, func(p persistence.Persistence) error {
				stepResults := services.NewStepResults(log.WithModule("cli"), p, nil, nil)

				runID := command.String("run-id")
				if runID == "" {
					runs, err := stepResults.ListRuns(ctx)
					if err != nil {
						return err
					}

					for _, run := range runs {
						fmt.Fprintln(command.Root().Writer, run)
					}

					return nil
				}

				var records []*models.StepRecord

				if step := command.String("step"); step != "" {
					record, err := stepResults.Fetch(ctx, runID, step)
					if err != nil {
						return err
					}

					records = append(records, record)
				} else {
					var err error

					records, err = stepResults.ListRun(ctx, runID)
					if err != nil {
						return err
					}
				}

				for _, record := range records {
					if err := printRecord(command, record, command.String("query")); err != nil {
						return err
					}
				}

				return nil
			})
		},
	}
}

func printRecord(command *cli.Command, record *models.StepRecord, query string) error {
	out := command.Root().Writer

	fmt.Fprintf(out, "# %s/%s recorded %s\n", record.RunID, record.StepName, models.FormatISO8601(record.RecordedAt))

	if query == "" {
		fmt.Fprintln(out, record.Result.String())

		return nil
	}

	node, err := jsontree.Parse(record.Result.String())
	if err != nil {
		return err
	}

	matches, err := jsontree.Query(node, query)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(jsontree.Normalize(matches), "", "  ")
	if err != nil {
		return err
	}

	fmt.Fprintln(out, string(data))

	return nil
}
