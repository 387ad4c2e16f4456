// Package mqtt implements ports.Bus on an MQTT broker, the native Hermes transport.
package mqtt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/checklist/internal/delivery"
	"github.com/aretw0/checklist/internal/logging"
	"github.com/aretw0/checklist/pkg/ports"
	paho "github.com/eclipse/paho.mqtt.golang"
)

// Config holds the broker connection settings.
type Config struct {
	Broker         string // e.g. tcp://localhost:1883
	ClientID       string
	Username       string
	Password       string
	QoS            byte
	ConnectTimeout time.Duration
}

// DefaultConnectTimeout applies when Config.ConnectTimeout is zero.
const DefaultConnectTimeout = 10 * time.Second

// client is the part of paho.Client used by the bus.
type client interface {
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	SubscribeMultiple(filters map[string]byte, callback paho.MessageHandler) paho.Token
	Unsubscribe(topics ...string) paho.Token
}

// Bus implements ports.Bus using the Eclipse Paho client.
// Subscriptions are restored after an automatic reconnect.
// Two live subscriptions must not share a filter: paho keeps one handler per filter.
//
// Messages are delivered in order (paho's SetOrderMatters), so a subscriber
// whose buffer is full holds paho's handler goroutine until it reads again.
// Inbound Hermes traffic is lost otherwise, and a skill that falls behind must
// still see every answer in sequence. A warning is logged each time this happens.
type Bus struct {
	client client
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
	subs   map[*subscription]struct{}
	wg     sync.WaitGroup
}

type subscription struct {
	filters map[string]byte
	handler paho.MessageHandler
	sink    *delivery.Sink
}

// Option configures the Bus.
type Option func(*Bus)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

// Dial connects to the broker described by cfg.
func Dial(ctx context.Context, cfg Config, opts ...Option) (*Bus, error) {
	b := newBus(cfg, opts...)

	copts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetOrderMatters(true).
		SetConnectTimeout(b.cfg.ConnectTimeout).
		SetOnConnectHandler(func(paho.Client) { b.resubscribe() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			b.logger.Warn("mqtt connection lost", "broker", cfg.Broker, "err", err)
		})
	b.client = paho.NewClient(copts)

	if err := wait(ctx, b.client.Connect(), b.cfg.ConnectTimeout); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, err)
	}
	b.logger.Info("mqtt connected", "broker", cfg.Broker, "client_id", cfg.ClientID)
	return b, nil
}

func newBus(cfg Config, opts ...Option) *Bus {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	b := &Bus{
		cfg:    cfg,
		logger: logging.NewNop(),
		subs:   make(map[*subscription]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers the filters with the broker and waits for the SUBACK.
func (b *Bus) Subscribe(ctx context.Context, filters ...string) (<-chan ports.Message, error) {
	sub := &subscription{
		filters: make(map[string]byte, len(filters)),
		sink:    delivery.NewSink(delivery.DefaultBuffer),
	}
	for _, f := range filters {
		sub.filters[f] = b.cfg.QoS
	}
	sub.handler = func(_ paho.Client, m paho.Message) {
		if sub.sink.Full() {
			b.logger.Warn("mqtt subscriber is behind, holding inbound messages", "topic", m.Topic(), "buffer", delivery.DefaultBuffer)
		}
		sub.sink.Deliver(ctx, ports.Message{Topic: m.Topic(), Payload: m.Payload()})
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ports.ErrBusClosed
	}
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	if err := wait(ctx, b.client.SubscribeMultiple(sub.filters, sub.handler), b.cfg.ConnectTimeout); err != nil {
		b.drop(sub)
		return nil, fmt.Errorf("mqtt subscribe: %w", err)
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		select {
		case <-ctx.Done():
		case <-sub.sink.Done():
		}
		b.drop(sub)
	}()

	return sub.sink.C(), nil
}

// Publish sends a non-retained message with the configured QoS.
func (b *Bus) Publish(ctx context.Context, topic string, payload []byte) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return ports.ErrBusClosed
	}

	if err := wait(ctx, b.client.Publish(topic, b.cfg.QoS, false, payload), b.cfg.ConnectTimeout); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", topic, err)
	}
	return nil
}

// Close ends all subscriptions and disconnects from the broker.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := make([]*subscription, 0, len(b.subs))
	for s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		s.sink.Close()
	}
	b.wg.Wait()

	b.client.Disconnect(250)
	return nil
}

// drop unregisters sub. The broker is only told while the bus is open.
func (b *Bus) drop(sub *subscription) {
	b.mu.Lock()
	_, live := b.subs[sub]
	delete(b.subs, sub)
	closed := b.closed
	b.mu.Unlock()

	sub.sink.Close()
	if !live || closed {
		return
	}

	topics := make([]string, 0, len(sub.filters))
	for f := range sub.filters {
		topics = append(topics, f)
	}
	// Best effort: an unsubscribe lost with the connection is harmless under a clean session.
	b.client.Unsubscribe(topics...)
}

func (b *Bus) resubscribe() {
	b.mu.Lock()
	subs := make([]*subscription, 0, len(b.subs))
	for s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		// The connect handler runs on paho's goroutine: do not wait for the SUBACK here.
		b.client.SubscribeMultiple(s.filters, s.handler)
	}
	if len(subs) > 0 {
		b.logger.Info("mqtt subscriptions restored", "count", len(subs))
	}
}

var errTimeout = errors.New("timed out")

// wait blocks until the token completes, ctx ends or timeout elapses.
func wait(ctx context.Context, token paho.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errTimeout
	}
}
