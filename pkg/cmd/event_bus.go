package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/stepledger/pkg/channels/gochannel"
	"github.com/dukex/stepledger/pkg/channels/kafka"
	"github.com/dukex/stepledger/pkg/eventbus"
)

var ErrUnsupportedEventBus = errors.New("unsupported event bus provider")

// EventBusConfig selects and configures an event bus backend.
type EventBusConfig struct {
	Provider string // "gochannel" or "kafka"
	// ServiceName names the Kafka consumer group (cg-<ServiceName>).
	ServiceName  string
	KafkaBrokers string // comma separated
}

func NewEventBus(logger *slog.Logger, config EventBusConfig) (*eventbus.WatermillEventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)
	busLogger := logger.With("module", "event-bus")

	switch config.Provider {
	case "gochannel":
		pub, sub := gochannel.CreateChannel(wmLogger)

		return eventbus.NewWatermillEventBus(busLogger, pub, sub), nil
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, config.ServiceName, kafka.Config{
			Brokers: splitBrokers(config.KafkaBrokers),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(busLogger, pub, sub), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEventBus, config.Provider)
	}
}

func splitBrokers(brokers string) []string {
	var out []string

	for _, broker := range strings.Split(brokers, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			out = append(out, broker)
		}
	}

	return out
}

// NewOptionalEventBus is NewEventBus for binaries where events are optional.
// An empty provider or "none" yields a nil bus.
func NewOptionalEventBus(logger *slog.Logger, config EventBusConfig) (eventbus.EventBus, error) {
	if config.Provider == "" || config.Provider == "none" {
		return nil, nil //nolint:nilnil
	}

	bus, err := NewEventBus(logger, config)
	if err != nil {
		return nil, err
	}

	return bus, nil
}
