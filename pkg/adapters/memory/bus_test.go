package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/checklist/pkg/adapters/memory"
	"github.com/aretw0/checklist/pkg/ports"
	"github.com/aretw0/checklist/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestMemoryBus_Contract(t *testing.T) {
	tests.RunBusContract(t, func(t *testing.T) ports.Bus {
		return memory.NewBus()
	})
}

func TestMemoryBus_PayloadIsolation(t *testing.T) {
	bus := memory.NewBus()
	defer bus.Close()
	ctx := context.Background()

	msgs, err := bus.Subscribe(ctx, "t")
	require.NoError(t, err)

	payload := []byte("original")
	require.NoError(t, bus.Publish(ctx, "t", payload))
	payload[0] = 'X'

	assert.Equal(t, "original", string(tests.Receive(t, msgs).Payload))
}

func TestMemoryBus_SubscribeAfterClose(t *testing.T) {
	bus := memory.NewBus()
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	_, err := bus.Subscribe(context.Background(), "t")
	assert.ErrorIs(t, err, ports.ErrBusClosed)
}
