package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/checklist/pkg/adapters/redis"
	"github.com/aretw0/checklist/pkg/ports"
	"github.com/aretw0/checklist/pkg/ports/tests"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func TestRedisBus_Contract(t *testing.T) {
	tests.RunBusContract(t, func(t *testing.T) ports.Bus {
		_, client := newClient(t)
		return redis.NewBusFromClient(client)
	})
}

func TestRedisBus_ParentTopicMatchesHash(t *testing.T) {
	_, client := newClient(t)
	bus := redis.NewBusFromClient(client)
	defer bus.Close()
	ctx := context.Background()

	msgs, err := bus.Subscribe(ctx, "hermes/intent/#")
	require.NoError(t, err)

	// "hermes/intentX" matches the glob but not the MQTT filter.
	require.NoError(t, bus.Publish(ctx, "hermes/intentX", []byte("no")))
	require.NoError(t, bus.Publish(ctx, "hermes/intent", []byte("yes")))

	msg := tests.Receive(t, msgs)
	assert.Equal(t, "hermes/intent", msg.Topic)
}

func TestRedisBus_UsesTopicsAsChannels(t *testing.T) {
	mr, client := newClient(t)
	bus := redis.NewBusFromClient(client)
	defer bus.Close()
	ctx := context.Background()

	_, err := bus.Subscribe(ctx, "rhasspy/checklist/start")
	require.NoError(t, err)

	assert.Contains(t, mr.PubSubChannels("*"), "rhasspy/checklist/start")
	assert.NoError(t, bus.Ping(ctx))
}

func TestRedisBus_OwnedClientIsClosed(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	bus := redis.NewBus(mr.Addr(), "", 0)
	require.NoError(t, bus.Ping(context.Background()))
	require.NoError(t, bus.Close())

	assert.Error(t, bus.Ping(context.Background()))
}
