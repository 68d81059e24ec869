package cmd

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/dukex/stepledger/pkg/channels/kafka"
	"github.com/dukex/stepledger/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePersistenceProvider(t *testing.T) {
	tests := map[string]string{
		"file:///var/lib/stepledger":    "file",
		"/var/lib/stepledger":           "file",
		"./data":                        "file",
		"postgres://u:p@localhost/db":   "postgres",
		"postgresql://u:p@localhost/db": "postgresql",
		"redis://localhost:6379/0":      "redis",
		"mongodb://localhost/db":        "file",
	}

	for url, expected := range tests {
		assert.Equal(t, expected, parsePersistenceProvider(url), url)
	}
}

func TestNewPersistence_File(t *testing.T) {
	dir := t.TempDir()

	p, err := NewPersistence(t.Context(), slog.New(slog.DiscardHandler), "file://"+filepath.ToSlash(dir))
	require.NoError(t, err)

	_, ok := p.(*file.Persistence)
	assert.True(t, ok)
	assert.NoError(t, p.HealthCheck(t.Context()))
}

func TestNewEventBus(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	bus, err := NewEventBus(logger, EventBusConfig{Provider: "gochannel"})
	require.NoError(t, err)
	require.NoError(t, bus.Close())

	_, err = NewEventBus(logger, EventBusConfig{Provider: "nats"})
	assert.ErrorIs(t, err, ErrUnsupportedEventBus)

	_, err = NewEventBus(logger, EventBusConfig{Provider: "kafka", ServiceName: "test"})
	assert.ErrorIs(t, err, kafka.ErrNoBrokers)
}

func TestSplitBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, splitBrokers(" a:9092, ,b:9092"))
	assert.Empty(t, splitBrokers(""))
}

func TestNewOptionalEventBus(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	for _, provider := range []string{"", "none"} {
		bus, err := NewOptionalEventBus(logger, EventBusConfig{Provider: provider})
		require.NoError(t, err)
		assert.Nil(t, bus)
	}

	bus, err := NewOptionalEventBus(logger, EventBusConfig{Provider: "gochannel"})
	require.NoError(t, err)
	require.NotNil(t, bus)
	assert.NoError(t, bus.Close())

	_, err = NewOptionalEventBus(logger, EventBusConfig{Provider: "nats"})
	assert.ErrorIs(t, err, ErrUnsupportedEventBus)
}

func TestSetupTracing_Disabled(t *testing.T) {
	shutdown, err := SetupTracing(t.Context(), slog.New(slog.DiscardHandler), false, "stepledger-test")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(t.Context()))
}
