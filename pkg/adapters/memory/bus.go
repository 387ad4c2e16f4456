package memory

import (
	"context"
	"sync"

	"github.com/aretw0/checklist/internal/delivery"
	"github.com/aretw0/checklist/pkg/hermes"
	"github.com/aretw0/checklist/pkg/ports"
)

// Bus implements ports.Bus in process.
// It backs the tests and the embedded mode of the HTTP front-end.
// Safe for concurrent use.
type Bus struct {
	mu     sync.RWMutex
	subs   map[*subscription]struct{}
	closed bool
}

type subscription struct {
	filters []string
	sink    *delivery.Sink
}

// NewBus creates an empty in-memory bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[*subscription]struct{}),
	}
}

// Subscribe registers the filters until ctx ends or the bus closes.
func (b *Bus) Subscribe(ctx context.Context, filters ...string) (<-chan ports.Message, error) {
	sub := &subscription{
		filters: filters,
		sink:    delivery.NewSink(delivery.DefaultBuffer),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ports.ErrBusClosed
	}
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-sub.sink.Done():
		}
		b.remove(sub)
	}()

	return sub.sink.C(), nil
}

// Publish delivers the payload to every matching subscription, in subscription order per subscriber.
func (b *Bus) Publish(ctx context.Context, topic string, payload []byte) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ports.ErrBusClosed
	}
	targets := make([]*subscription, 0, len(b.subs))
	for sub := range b.subs {
		if sub.matches(topic) {
			targets = append(targets, sub)
		}
	}
	b.mu.RUnlock()

	for _, sub := range targets {
		// Each subscriber gets its own copy so nobody can mutate a shared slice.
		msg := ports.Message{Topic: topic, Payload: append([]byte(nil), payload...)}
		sub.sink.Deliver(ctx, msg)
	}
	return ctx.Err()
}

// Close ends every subscription. Further calls are no-ops.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := b.subs
	b.subs = make(map[*subscription]struct{})
	b.mu.Unlock()

	for sub := range subs {
		sub.sink.Close()
	}
	return nil
}

func (b *Bus) remove(sub *subscription) {
	b.mu.Lock()
	delete(b.subs, sub)
	b.mu.Unlock()
	sub.sink.Close()
}

func (s *subscription) matches(topic string) bool {
	for _, f := range s.filters {
		if hermes.MatchTopic(f, topic) {
			return true
		}
	}
	return false
}
