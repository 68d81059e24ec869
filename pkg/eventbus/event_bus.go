// Package eventbus publishes and consumes step result events over watermill.
package eventbus

import (
	"context"

	"github.com/dukex/stepledger/pkg/events"
)

// Event is any payload with a registered events.EventType.
type Event interface {
	GetType() events.EventType
}

// EventPublisher sends events to events.Topic. key selects the partition;
// callers use the run ID so one run's events stay ordered.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

// EventSubscriber dispatches incoming events to one handler per type.
// Register handlers before calling Subscribe.
type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

// EventHandler receives a pointer to the decoded event, for example
// *events.StepResultRecorded. Returning an error nacks the message.
type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}
