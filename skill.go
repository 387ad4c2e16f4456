package checklist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/checklist/internal/codec"
	"github.com/aretw0/checklist/internal/dialogue"
	"github.com/aretw0/checklist/internal/logging"
	"github.com/aretw0/checklist/pkg/domain"
	"github.com/aretw0/checklist/pkg/hermes"
	"github.com/aretw0/checklist/pkg/observability"
	"github.com/aretw0/checklist/pkg/ports"
)

// DefaultClaimTTL bounds how long a replica holds a checklist it never finished.
const DefaultClaimTTL = 30 * time.Minute

// Skill is the high-level entry point: it connects the dialogue controller to a bus.
// Messages are handled one at a time in arrival order.
type Skill struct {
	bus        ports.Bus
	dispatcher ports.ActionDispatcher
	controller *dialogue.Controller

	claimer  ports.Claimer
	claimTTL time.Duration
	release  ports.ReleaseFunc

	metrics  *observability.Metrics
	hooks    domain.LifecycleHooks
	siteIDs  []string
	teardown dialogue.TeardownPolicy
	logger   *slog.Logger

	ready     chan struct{}
	readyOnce sync.Once

	mu         sync.RWMutex
	lastReport *domain.FinishedMessage
}

var _ ports.ChecklistService = (*Skill)(nil)

// Option defines a functional option for configuring the Skill.
type Option func(*Skill)

// WithLogger sets a custom structured logger for the skill.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Skill) {
		s.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Skill) {
		s.hooks = hooks
	}
}

// WithMetrics records Prometheus metrics for the skill.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Skill) {
		s.metrics = m
	}
}

// WithSiteIDs restricts the skill to checklists for the given Hermes sites.
func WithSiteIDs(siteIDs ...string) Option {
	return func(s *Skill) {
		s.siteIDs = siteIDs
	}
}

// WithTeardownPolicy sets the reaction to a dialogue session ended by the platform.
func WithTeardownPolicy(policy dialogue.TeardownPolicy) Option {
	return func(s *Skill) {
		s.teardown = policy
	}
}

// WithClaimer makes replicas sharing the claimer run each checklist only once.
func WithClaimer(claimer ports.Claimer, ttl time.Duration) Option {
	return func(s *Skill) {
		s.claimer = claimer
		if ttl > 0 {
			s.claimTTL = ttl
		}
	}
}

// WithDispatcher overrides how actions are executed (default: publish on the bus).
func WithDispatcher(d ports.ActionDispatcher) Option {
	return func(s *Skill) {
		s.dispatcher = d
	}
}

// New creates a skill on bus.
func New(bus ports.Bus, opts ...Option) *Skill {
	s := &Skill{
		bus:      bus,
		claimTTL: DefaultClaimTTL,
		teardown: dialogue.TeardownRepeat,
		logger:   logging.NewNop(),
		ready:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.dispatcher == nil {
		s.dispatcher = NewHermesDispatcher(bus)
	}

	hooks := s.hooks
	if s.metrics != nil {
		hooks = domain.MergeHooks(s.hooks, s.metrics.Hooks())
	}

	s.controller = dialogue.NewController(
		dialogue.WithLogger(s.logger),
		dialogue.WithLifecycleHooks(hooks),
		dialogue.WithSiteIDs(s.siteIDs...),
		dialogue.WithTeardownPolicy(s.teardown),
	)
	return s
}

// Run subscribes to the Hermes topics and handles messages until ctx is canceled
// or the bus closes the subscription.
func (s *Skill) Run(ctx context.Context) error {
	msgs, err := s.bus.Subscribe(ctx, hermes.SubscribeTopics()...)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	s.logger.Info("checklist skill ready", "topics", strings.Join(hermes.SubscribeTopics(), ","))
	s.readyOnce.Do(func() { close(s.ready) })

	for {
		select {
		case <-ctx.Done():
			s.releaseClaim(context.WithoutCancel(ctx))
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				s.releaseClaim(context.WithoutCancel(ctx))
				if err := ctx.Err(); err != nil {
					return err
				}
				return ports.ErrBusClosed
			}
			s.Handle(ctx, msg)
		}
	}
}

// Ready is closed once Run is subscribed to the bus.
func (s *Skill) Ready() <-chan struct{} {
	return s.ready
}

// Handle processes one inbound message. Failures are logged, never returned:
// a bad message must not stop the skill.
func (s *Skill) Handle(ctx context.Context, msg ports.Message) {
	// 1. Decode
	event, err := codec.DecodeEvent(msg.Topic, msg.Payload)
	if err != nil {
		s.logger.Warn("dropping undecodable message", "topic", msg.Topic, "err", err)
		var decodeErr *domain.DecodeError
		if s.metrics != nil && errors.As(err, &decodeErr) {
			s.metrics.ObserveDecodeError(decodeErr.Kind)
		}
		return
	}

	// 2. Coordinate with other replicas
	start, isStart := event.(domain.StartChecklist)
	if isStart && !s.claim(ctx, start.Request) {
		return
	}

	// 3. Transition
	actions, err := s.controller.Handle(ctx, event)
	if err != nil {
		s.logHandleError(event, err)
	}

	// 4. Side-effects
	for _, action := range actions {
		if err := s.dispatcher.Dispatch(ctx, action); err != nil {
			s.logger.Error("action failed", "type", action.Type, "err", err)
		}
		if report, ok := action.Payload.(domain.FinishedMessage); ok {
			s.recordReport(report)
		}
	}

	// A claim only lives as long as the checklist it was taken for.
	if s.controller.Status() == domain.StatusIdle {
		s.releaseClaim(ctx)
	}
}

// Start publishes a start request on the bus, as any Hermes client would.
func (s *Skill) Start(ctx context.Context, req domain.StartRequest) error {
	topic, payload, err := codec.EncodeStart(req)
	if err != nil {
		return err
	}
	return s.bus.Publish(ctx, topic, payload)
}

// Snapshot returns a copy of the active checklist, or nil when idle.
func (s *Skill) Snapshot() *domain.Checklist {
	return s.controller.Snapshot()
}

// LastReport returns the most recently published report.
func (s *Skill) LastReport() (domain.FinishedMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastReport == nil {
		return domain.FinishedMessage{}, false
	}
	return *s.lastReport, true
}

// claim reports whether this replica should run req.
func (s *Skill) claim(ctx context.Context, req domain.StartRequest) bool {
	if s.claimer == nil || s.controller.Status() != domain.StatusIdle || !s.controller.Accepts(req) {
		// Busy or foreign requests go straight to the controller, which rejects or ignores them.
		return true
	}

	release, ok, err := s.claimer.Claim(ctx, req.ID, s.claimTTL)
	if err != nil {
		// Without coordination the safest choice is to serve the request.
		s.logger.Error("claim failed, running checklist unclaimed", "checklist_id", req.ID, "err", err)
		return true
	}
	if !ok {
		s.logger.Info("checklist claimed by another replica", "checklist_id", req.ID)
		return false
	}
	s.release = release
	return true
}

func (s *Skill) releaseClaim(ctx context.Context) {
	if s.release == nil {
		return
	}
	if err := s.release(ctx); err != nil {
		s.logger.Warn("claim release failed", "err", err)
	}
	s.release = nil
}

func (s *Skill) recordReport(report domain.FinishedMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastReport = &report
}

func (s *Skill) logHandleError(event domain.Event, err error) {
	switch {
	case errors.Is(err, domain.ErrRejectedStart):
		s.logger.Info("start request rejected", "err", err)
	case errors.Is(err, domain.ErrMissingField), errors.Is(err, domain.ErrMalformed):
		s.logger.Warn("invalid start request", "err", err)
	default:
		s.logger.Error("event handling failed", "event", event.Kind(), "err", err)
	}
}
