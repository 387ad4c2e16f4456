package ports

import (
	"context"
	"errors"
)

// ErrBusClosed is returned by operations on a closed Bus.
var ErrBusClosed = errors.New("bus closed")

// Message is a single payload received on, or published to, a topic.
type Message struct {
	Topic   string
	Payload []byte
}

// Bus defines the publish/subscribe transport.
// Topic filters follow MQTT semantics: '+' matches one level and '#' matches the remaining levels.
type Bus interface {
	// Subscribe starts delivering messages whose topic matches any of the filters.
	// The returned channel is closed when ctx is canceled or the bus is closed.
	Subscribe(ctx context.Context, filters ...string) (<-chan Message, error)

	// Publish sends a payload to a topic.
	Publish(ctx context.Context, topic string, payload []byte) error

	// Close releases the underlying connection and ends every subscription.
	Close() error
}
