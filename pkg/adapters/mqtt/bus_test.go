package mqtt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/checklist/internal/delivery"
	"github.com/aretw0/checklist/internal/logging"
	"github.com/aretw0/checklist/pkg/ports"
	"github.com/aretw0/checklist/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestBus(broker *fakeBroker) *Bus {
	b := newBus(Config{Broker: "tcp://fake:1883", ClientID: "test"})
	b.client = broker
	return b
}

func TestMQTTBus_Contract(t *testing.T) {
	tests.RunBusContract(t, func(t *testing.T) ports.Bus {
		return newTestBus(newFakeBroker())
	})
}

func TestMQTTBus_Defaults(t *testing.T) {
	b := newBus(Config{})
	assert.Equal(t, DefaultConnectTimeout, b.cfg.ConnectTimeout)
}

func TestMQTTBus_UnsubscribesOnCancel(t *testing.T) {
	broker := newFakeBroker()
	bus := newTestBus(broker)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	msgs, err := bus.Subscribe(ctx, "hermes/intent/#", "hermes/nlu/intentNotRecognized")
	require.NoError(t, err)
	assert.Equal(t, 2, broker.routeCount())

	cancel()
	tests.WaitClosed(t, msgs)
	assert.Eventually(t, func() bool { return broker.routeCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestMQTTBus_ResubscribesAfterReconnect(t *testing.T) {
	broker := newFakeBroker()
	bus := newTestBus(broker)
	defer bus.Close()
	ctx := context.Background()

	msgs, err := bus.Subscribe(ctx, "rhasspy/checklist/start")
	require.NoError(t, err)

	broker.dropRoutes()
	bus.resubscribe()

	require.NoError(t, bus.Publish(ctx, "rhasspy/checklist/start", []byte("{}")))
	assert.Equal(t, "rhasspy/checklist/start", tests.Receive(t, msgs).Topic)
}

func TestMQTTBus_Errors(t *testing.T) {
	broker := newFakeBroker()
	bus := newTestBus(broker)
	defer bus.Close()
	ctx := context.Background()

	broker.subscribeErr = errors.New("not authorized")
	_, err := bus.Subscribe(ctx, "a/b")
	assert.ErrorContains(t, err, "not authorized")

	broker.publishErr = errors.New("connection lost")
	err = bus.Publish(ctx, "a/b", nil)
	assert.ErrorContains(t, err, "connection lost")
}

func TestMQTTBus_CloseDisconnects(t *testing.T) {
	broker := newFakeBroker()
	bus := newTestBus(broker)

	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())
	assert.True(t, broker.disconnected)
}

// syncBuffer is a log sink that can be read while the bus writes to it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestMQTTBus_WarnsWhenSubscriberFallsBehind(t *testing.T) {
	logs := &syncBuffer{}
	broker := newFakeBroker()
	bus := newBus(Config{Broker: "tcp://fake:1883", ClientID: "test"},
		WithLogger(logging.NewWriter(logs, slog.LevelWarn, logging.FormatText)))
	bus.client = broker
	defer bus.Close()
	ctx := context.Background()

	msgs, err := bus.Subscribe(ctx, "hermes/intent/#")
	require.NoError(t, err)

	// 1. Fill the subscriber buffer without reading
	for i := 0; i < delivery.DefaultBuffer; i++ {
		require.NoError(t, bus.Publish(ctx, fmt.Sprintf("hermes/intent/n%d", i), nil))
	}
	assert.Empty(t, logs.String())

	// 2. The next message waits for the subscriber and says so
	published := make(chan error, 1)
	go func() { published <- bus.Publish(ctx, "hermes/intent/late", nil) }()
	assert.Eventually(t, func() bool {
		return strings.Contains(logs.String(), "mqtt subscriber is behind")
	}, time.Second, 10*time.Millisecond)

	// 3. Reading releases it, and order is kept
	assert.Equal(t, "hermes/intent/n0", tests.Receive(t, msgs).Topic)
	require.NoError(t, <-published)
	for i := 1; i < delivery.DefaultBuffer; i++ {
		tests.Receive(t, msgs)
	}
	assert.Equal(t, "hermes/intent/late", tests.Receive(t, msgs).Topic)
}
