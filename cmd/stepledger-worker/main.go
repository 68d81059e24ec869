// Package main runs scheduled command steps and records their results.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukex/stepledger/pkg/cmd"
	"github.com/dukex/stepledger/pkg/config"
	"github.com/dukex/stepledger/pkg/log"
	"github.com/dukex/stepledger/pkg/runner"
	"github.com/dukex/stepledger/pkg/schema"
	"github.com/dukex/stepledger/pkg/services"
	cli "github.com/urfave/cli/v3"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := log.WithModule("worker")

	command := &cli.Command{
		Name:                  "stepledger-worker",
		Usage:                 "Run scheduled command steps and record their results",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "steps-file",
				Usage:    "YAML file with the step definitions",
				Required: true,
				Sources:  cli.EnvVars("STEPS_FILE"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Persistence URL (file path, postgres://, redis://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka, none)",
				Value:   "none",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Value:   "localhost:9092",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.BoolFlag{
				Name:  "once",
				Usage: "Run every step once under a single run ID and exit",
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger = log.WithModule("worker")

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			stepsFile, err := config.LoadSteps(command.String("steps-file"))
			if err != nil {
				return err
			}

			shutdownTracing, err := cmd.SetupTracing(ctx, logger, command.Bool("tracing"), "stepledger-worker")
			if err != nil {
				return err
			}

			defer func() {
				if err := shutdownTracing(context.Background()); err != nil {
					logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
				}
			}()

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persistence.Close(context.Background()); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewOptionalEventBus(logger, cmd.EventBusConfig{
				Provider:     command.String("event-bus"),
				ServiceName:  "stepledger-worker",
				KafkaBrokers: command.String("kafka-brokers"),
			})
			if err != nil {
				return err
			}

			if eventBus != nil {
				defer func() {
					if err := eventBus.Close(); err != nil {
						logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
					}
				}()
			}

			schemaValidator, err := schema.NewValidator()
			if err != nil {
				return err
			}

			stepResults := services.NewStepResults(logger, persistence, eventBus, schemaValidator)
			worker := NewWorker(logger, runner.NewRunner(logger.With("component", "runner")), stepResults, stepsFile.Steps)

			if command.Bool("once") {
				records, err := worker.RunAll(ctx)
				if err != nil {
					return err
				}

				for _, record := range records {
					stepResult, _ := record.Result.StepResult()
					fmt.Fprintf(command.Root().Writer, "%s\t%s\t%s\n", record.RunID, record.StepName, stepResult)
				}

				return nil
			}

			if err := worker.Start(ctx); err != nil {
				return err
			}

			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			return worker.Stop(shutdownCtx)
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		logger.Error("Stepledger worker failed", "error", err)
		os.Exit(1)
	}
}
