// Package tests holds reusable contract suites for the ports.
// Adapters run them from their own tests to prove they honor the interfaces.
package tests

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/checklist/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// DeliveryTimeout bounds how long the suites wait for a message.
const DeliveryTimeout = 2 * time.Second

// RunBusContract verifies that a Bus implementation adheres to the port contract.
// newBus must return a fresh, connected bus; the suite closes it.
func RunBusContract(t *testing.T, newBus func(t *testing.T) ports.Bus) {
	t.Helper()

	// 1. Exact topics
	t.Run("Exact_Topic", func(t *testing.T) {
		bus := newBus(t)
		defer bus.Close()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		msgs, err := bus.Subscribe(ctx, "rhasspy/checklist/start")
		require.NoError(t, err)

		require.NoError(t, bus.Publish(ctx, "rhasspy/checklist/start", []byte(`{"id":"a"}`)))

		msg := Receive(t, msgs)
		assert.Equal(t, "rhasspy/checklist/start", msg.Topic)
		assert.JSONEq(t, `{"id":"a"}`, string(msg.Payload))
	})

	// 2. Wildcards
	t.Run("Wildcards", func(t *testing.T) {
		bus := newBus(t)
		defer bus.Close()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		multi, err := bus.Subscribe(ctx, "hermes/intent/#")
		require.NoError(t, err)
		single, err := bus.Subscribe(ctx, "hermes/+/sessionEnded")
		require.NoError(t, err)

		require.NoError(t, bus.Publish(ctx, "hermes/intent/Confirm", []byte("1")))
		require.NoError(t, bus.Publish(ctx, "hermes/dialogueManager/sessionEnded", []byte("2")))

		assert.Equal(t, "hermes/intent/Confirm", Receive(t, multi).Topic)
		assert.Equal(t, "hermes/dialogueManager/sessionEnded", Receive(t, single).Topic)
	})

	// 3. Filtering
	t.Run("Non_Matching_Topics_Skipped", func(t *testing.T) {
		bus := newBus(t)
		defer bus.Close()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		msgs, err := bus.Subscribe(ctx, "hermes/intent/#")
		require.NoError(t, err)

		require.NoError(t, bus.Publish(ctx, "hermes/nlu/intentNotRecognized", []byte("skip")))
		require.NoError(t, bus.Publish(ctx, "hermes/intent/Cancel", []byte("keep")))

		msg := Receive(t, msgs)
		assert.Equal(t, "hermes/intent/Cancel", msg.Topic)
		assert.Equal(t, "keep", string(msg.Payload))
	})

	// 4. Several filters on one subscription
	t.Run("Multiple_Filters", func(t *testing.T) {
		bus := newBus(t)
		defer bus.Close()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		msgs, err := bus.Subscribe(ctx, "a/one", "b/two")
		require.NoError(t, err)

		require.NoError(t, bus.Publish(ctx, "a/one", []byte("1")))
		require.NoError(t, bus.Publish(ctx, "b/two", []byte("2")))

		got := []string{Receive(t, msgs).Topic, Receive(t, msgs).Topic}
		assert.ElementsMatch(t, []string{"a/one", "b/two"}, got)
	})

	// 5. Cancellation
	t.Run("Cancel_Closes_Channel", func(t *testing.T) {
		bus := newBus(t)
		defer bus.Close()
		ctx, cancel := context.WithCancel(context.Background())

		msgs, err := bus.Subscribe(ctx, "x/y")
		require.NoError(t, err)

		cancel()
		WaitClosed(t, msgs)
	})

	// 6. Close
	t.Run("Close_Ends_Subscriptions", func(t *testing.T) {
		bus := newBus(t)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		msgs, err := bus.Subscribe(ctx, "x/y")
		require.NoError(t, err)

		require.NoError(t, bus.Close())
		WaitClosed(t, msgs)

		assert.Error(t, bus.Publish(ctx, "x/y", []byte("late")), "publish after close must fail")
	})
}

// Receive waits for the next message or fails the test.
func Receive(t *testing.T, msgs <-chan ports.Message) ports.Message {
	t.Helper()
	select {
	case msg, ok := <-msgs:
		require.True(t, ok, "subscription closed unexpectedly")
		return msg
	case <-time.After(DeliveryTimeout):
		t.Fatal("timed out waiting for message")
	}
	return ports.Message{}
}

// WaitClosed drains msgs until it is closed or fails the test.
func WaitClosed(t *testing.T, msgs <-chan ports.Message) {
	t.Helper()
	deadline := time.After(DeliveryTimeout)
	for {
		select {
		case _, ok := <-msgs:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("subscription channel was not closed")
		}
	}
}
