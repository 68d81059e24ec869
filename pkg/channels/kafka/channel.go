// Package kafka provides the Kafka-backed event channel.
package kafka

import (
	"errors"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
)

var ErrNoBrokers = errors.New("no Kafka brokers configured")

// KeyMetadata names the message metadata entry used as the Kafka partition key.
const KeyMetadata = "key"

// Config selects the brokers and consumer group of a channel.
type Config struct {
	Brokers []string
	// ConsumerGroup defaults to "cg-<serviceName>".
	ConsumerGroup string
}

func CreateChannel(logger watermill.LoggerAdapter, serviceName string, config Config) (*kafka.Publisher, *kafka.Subscriber, error) {
	if len(config.Brokers) == 0 || config.Brokers[0] == "" {
		return nil, nil, ErrNoBrokers
	}

	consumerGroup := config.ConsumerGroup
	if consumerGroup == "" {
		consumerGroup = "cg-" + serviceName
	}

	// Messages of one run land on one partition and so stay ordered.
	marshaler := kafka.NewWithPartitioningMarshaler(partitionKey)

	saramaSubscriberConfig := kafka.DefaultSaramaSubscriberConfig()
	saramaSubscriberConfig.Consumer.Offsets.Initial = sarama.OffsetOldest

	subscriber, err := kafka.NewSubscriber(
		kafka.SubscriberConfig{
			Brokers:               config.Brokers,
			Unmarshaler:           marshaler,
			OverwriteSaramaConfig: saramaSubscriberConfig,
			ConsumerGroup:         consumerGroup,
			OTELEnabled:           true,
		},
		logger,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Kafka subscriber: %w", err)
	}

	saramaPublisherConfig := kafka.DefaultSaramaSyncPublisherConfig()
	saramaPublisherConfig.Producer.Return.Successes = true

	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:               config.Brokers,
			Marshaler:             marshaler,
			OverwriteSaramaConfig: saramaPublisherConfig,
			OTELEnabled:           true,
		},
		logger,
	)
	if err != nil {
		_ = subscriber.Close()

		return nil, nil, fmt.Errorf("failed to create Kafka publisher: %w", err)
	}

	return publisher, subscriber, nil
}

func partitionKey(_ string, msg *message.Message) (string, error) {
	return msg.Metadata.Get(KeyMetadata), nil
}
