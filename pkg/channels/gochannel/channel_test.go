package gochannel_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dukex/stepledger/pkg/channels/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateChannel_SharesOneInstance(t *testing.T) {
	pub, sub := gochannel.CreateChannel(watermill.NopLogger{})
	t.Cleanup(func() { _ = pub.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := sub.Subscribe(ctx, "topic")
	require.NoError(t, err)

	require.NoError(t, pub.Publish("topic", message.NewMessage(watermill.NewUUID(), []byte("hello"))))

	select {
	case msg := <-messages:
		assert.Equal(t, "hello", string(msg.Payload))
		msg.Ack()
	case <-time.After(5 * time.Second):
		t.Fatal("message was not delivered")
	}
}
