package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukex/stepledger/pkg/cmd"
	"github.com/dukex/stepledger/pkg/eventbus"
	"github.com/dukex/stepledger/pkg/events"
	"github.com/dukex/stepledger/pkg/log"
	cli "github.com/urfave/cli/v3"
)

func NewWatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Print step result events as they are published",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "kafka",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Value:   "localhost:9092",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			logger := log.WithModule("cli")

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			bus, err := cmd.NewEventBus(logger, cmd.EventBusConfig{
				Provider:     command.String("event-bus"),
				ServiceName:  "stepledger-watch",
				KafkaBrokers: command.String("kafka-brokers"),
			})
			if err != nil {
				return err
			}

			defer func() {
				if err := bus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			if err := watchEvents(ctx, bus, command); err != nil {
				return err
			}

			<-ctx.Done()

			return nil
		},
	}
}

func watchEvents(ctx context.Context, bus eventbus.EventSubscriber, command *cli.Command) error {
	out := command.Root().Writer

	err := bus.Handle(events.StepResultRecordedEvent, func(_ context.Context, event any) error {
		recorded, ok := event.(*events.StepResultRecorded)
		if !ok {
			return fmt.Errorf("unexpected event payload %T", event)
		}

		fmt.Fprintf(out, "recorded %s/%s result=%s complete=%t errors=%d warnings=%d\n",
			recorded.RunID, recorded.StepName, recorded.StepResult, recorded.Complete,
			recorded.ErrorCount, recorded.WarningCount)

		return nil
	})
	if err != nil {
		return err
	}

	err = bus.Handle(events.StepResultDeletedEvent, func(_ context.Context, event any) error {
		deleted, ok := event.(*events.StepResultDeleted)
		if !ok {
			return fmt.Errorf("unexpected event payload %T", event)
		}

		fmt.Fprintf(out, "deleted %s/%s\n", deleted.RunID, deleted.StepName)

		return nil
	})
	if err != nil {
		return err
	}

	return bus.Subscribe(ctx)
}
