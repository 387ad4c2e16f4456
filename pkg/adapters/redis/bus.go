package redis

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/checklist/internal/delivery"
	"github.com/aretw0/checklist/internal/logging"
	"github.com/aretw0/checklist/pkg/hermes"
	"github.com/aretw0/checklist/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Bus implements ports.Bus over Redis Pub/Sub.
// Hermes topics are used verbatim as channel names; wildcard filters become PSUBSCRIBE patterns.
type Bus struct {
	client *backend.Client
	owned  bool
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
	sinks  map[*delivery.Sink]struct{}
	wg     sync.WaitGroup
}

// Option configures the Bus.
type Option func(*Bus)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

// NewBus connects to Redis. The bus owns the client and closes it on Close.
func NewBus(address, password string, db int, opts ...Option) *Bus {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	b := NewBusFromClient(rdb, opts...)
	b.owned = true
	return b
}

// NewBusFromClient creates a bus from an existing client, which stays open after Close.
func NewBusFromClient(client *backend.Client, opts ...Option) *Bus {
	b := &Bus{
		client: client,
		logger: logging.NewNop(),
		sinks:  make(map[*delivery.Sink]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Ping checks the connection.
func (b *Bus) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Subscribe opens a dedicated Pub/Sub connection for the filters.
// It returns once Redis has confirmed every subscription.
func (b *Bus) Subscribe(ctx context.Context, filters ...string) (<-chan ports.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ports.ErrBusClosed
	}

	var channels, patterns []string
	for _, f := range filters {
		if strings.ContainsAny(f, "+#") {
			patterns = append(patterns, globPattern(f))
		} else {
			channels = append(channels, f)
		}
	}
	slices.Sort(channels)
	channels = slices.Compact(channels)
	slices.Sort(patterns)
	patterns = slices.Compact(patterns)

	ps := b.client.Subscribe(ctx)
	if len(channels) > 0 {
		if err := ps.Subscribe(ctx, channels...); err != nil {
			_ = ps.Close()
			return nil, fmt.Errorf("redis subscribe: %w", err)
		}
	}
	if len(patterns) > 0 {
		if err := ps.PSubscribe(ctx, patterns...); err != nil {
			_ = ps.Close()
			return nil, fmt.Errorf("redis psubscribe: %w", err)
		}
	}

	// 1. Wait for the confirmations, keeping anything that slipped in before the last one.
	var early []*backend.Message
	for confirmed := 0; confirmed < len(channels)+len(patterns); {
		reply, err := ps.Receive(ctx)
		if err != nil {
			_ = ps.Close()
			return nil, fmt.Errorf("redis subscription not confirmed: %w", err)
		}
		switch m := reply.(type) {
		case *backend.Subscription:
			confirmed++
		case *backend.Message:
			early = append(early, m)
		}
	}

	// 2. Forward until the subscriber or the bus goes away.
	sink := delivery.NewSink(delivery.DefaultBuffer)
	b.sinks[sink] = struct{}{}
	b.wg.Add(1)

	go func() {
		defer b.wg.Done()
		defer b.release(sink)
		defer ps.Close()

		for _, m := range early {
			if !b.forward(ctx, sink, filters, m) {
				return
			}
		}

		in := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-sink.Done():
				return
			case m, ok := <-in:
				if !ok {
					return
				}
				if !b.forward(ctx, sink, filters, m) {
					return
				}
			}
		}
	}()

	return sink.C(), nil
}

// forward delivers m when its channel really matches the filters.
// Glob patterns are wider than MQTT filters, so every message is checked again.
func (b *Bus) forward(ctx context.Context, sink *delivery.Sink, filters []string, m *backend.Message) bool {
	for _, f := range filters {
		if hermes.MatchTopic(f, m.Channel) {
			return sink.Deliver(ctx, ports.Message{Topic: m.Channel, Payload: []byte(m.Payload)})
		}
	}
	b.logger.Debug("dropping message outside filters", "topic", m.Channel)
	return true
}

// Publish sends the payload on the channel named after the topic.
func (b *Bus) Publish(ctx context.Context, topic string, payload []byte) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return ports.ErrBusClosed
	}

	if err := b.client.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", topic, err)
	}
	return nil
}

// Close ends all subscriptions and, when the bus owns it, the client.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	sinks := make([]*delivery.Sink, 0, len(b.sinks))
	for s := range b.sinks {
		sinks = append(sinks, s)
	}
	b.mu.Unlock()

	for _, s := range sinks {
		s.Close()
	}
	b.wg.Wait()

	if b.owned {
		return b.client.Close()
	}
	return nil
}

func (b *Bus) release(sink *delivery.Sink) {
	b.mu.Lock()
	delete(b.sinks, sink)
	b.mu.Unlock()
	sink.Close()
}

// globPattern turns an MQTT filter into a Redis glob that matches at least the same topics.
func globPattern(filter string) string {
	var sb strings.Builder
	levels := strings.Split(filter, "/")
	for i, level := range levels {
		switch level {
		case "#":
			// "a/#" also matches "a" itself, so the separator becomes optional.
			sb.WriteString("*")
			return sb.String()
		case "+":
			if i > 0 {
				sb.WriteByte('/')
			}
			sb.WriteString("*")
		default:
			if i > 0 {
				sb.WriteByte('/')
			}
			sb.WriteString(escapeGlob(level))
		}
	}
	return sb.String()
}

func escapeGlob(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
