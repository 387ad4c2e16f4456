package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/aretw0/checklist/internal/logging"
	"github.com/aretw0/checklist/pkg/domain"
)

// TeardownPolicy decides what happens when the platform ends a dialogue session
// the controller did not end itself (e.g. a timeout).
type TeardownPolicy string

const (
	// TeardownRepeat opens a new dialogue session for the current item.
	TeardownRepeat TeardownPolicy = "repeat"
	// TeardownCancel cancels the checklist on the current item.
	TeardownCancel TeardownPolicy = "cancel"
)

// ParseTeardownPolicy validates a policy name. Empty selects TeardownRepeat.
func ParseTeardownPolicy(s string) (TeardownPolicy, error) {
	switch TeardownPolicy(s) {
	case "", TeardownRepeat:
		return TeardownRepeat, nil
	case TeardownCancel:
		return TeardownCancel, nil
	}
	return "", fmt.Errorf("unknown teardown policy %q (expected %q or %q)", s, TeardownRepeat, TeardownCancel)
}

// Controller is the checklist state machine.
// Handle must be called from a single goroutine; Snapshot and Status are safe from any goroutine.
type Controller struct {
	active    *domain.Checklist
	attempts  int
	startedAt time.Time

	snapshot atomic.Pointer[domain.Checklist]

	siteIDs  []string
	teardown TeardownPolicy
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures the Controller.
type Option func(*Controller)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Controller) {
		c.hooks = hooks
	}
}

// WithSiteIDs restricts start requests to the given Hermes sites. Empty accepts all sites.
func WithSiteIDs(siteIDs ...string) Option {
	return func(c *Controller) {
		c.siteIDs = siteIDs
	}
}

// WithTeardownPolicy sets the reaction to platform-initiated session ends.
func WithTeardownPolicy(policy TeardownPolicy) Option {
	return func(c *Controller) {
		c.teardown = policy
	}
}

// WithClock overrides the time source used for lifecycle timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// NewController creates an idle controller.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		teardown: TeardownRepeat,
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Handle advances the state machine with one event and returns the actions to perform.
// Events that do not concern the active checklist yield no actions and no error.
func (c *Controller) Handle(ctx context.Context, event domain.Event) ([]domain.ActionRequest, error) {
	defer c.publishSnapshot()

	var (
		actions []domain.ActionRequest
		err     error
	)

	switch ev := event.(type) {
	case domain.StartChecklist:
		actions, err = c.start(ctx, ev.Request)
	case domain.SessionStarted:
		c.sessionStarted(ev)
	case domain.IntentRecognized:
		actions, err = c.intentRecognized(ctx, ev)
	case domain.IntentNotRecognized:
		actions, err = c.notRecognized(ctx, ev)
	case domain.SessionEnded:
		actions, err = c.sessionEnded(ctx, ev)
	default:
		return nil, fmt.Errorf("unsupported event %T", event)
	}

	if errors.Is(err, domain.ErrOutOfRange) {
		// Invariant violation: drop the checklist rather than keep answering for it.
		c.logger.Error("checklist state corrupted, discarding", "checklist_id", c.activeID(), "err", err)
		c.reset()
	}
	return actions, err
}

// Accepts reports whether a start request targets a site served by this controller.
func (c *Controller) Accepts(req domain.StartRequest) bool {
	if len(c.siteIDs) == 0 {
		return true
	}
	siteID := req.SiteID
	if siteID == "" {
		siteID = domain.DefaultSiteID
	}
	return slices.Contains(c.siteIDs, siteID)
}

// Snapshot returns a copy of the active checklist, or nil when idle.
func (c *Controller) Snapshot() *domain.Checklist {
	return c.snapshot.Load().Clone()
}

// Status returns the state of the controller.
func (c *Controller) Status() domain.Status {
	if s := c.snapshot.Load(); s != nil {
		return s.Status
	}
	return domain.StatusIdle
}

func (c *Controller) start(ctx context.Context, req domain.StartRequest) ([]domain.ActionRequest, error) {
	if c.active != nil {
		c.emitReject(ctx, req)
		return nil, fmt.Errorf("%w: %q is in progress, ignoring %q", domain.ErrRejectedStart, c.active.ID, req.ID)
	}

	if !c.Accepts(req) {
		c.logger.Debug("ignoring checklist for other site", "checklist_id", req.ID, "site_id", req.SiteID)
		return nil, nil
	}

	checklist, err := domain.NewChecklist(req)
	if err != nil {
		return nil, err
	}

	c.active = checklist
	c.attempts = 0
	c.startedAt = c.now()

	c.logger.Info("checklist started", "checklist_id", checklist.ID, "site_id", checklist.SiteID, "items", len(checklist.Items))
	if c.hooks.OnStart != nil {
		c.hooks.OnStart(ctx, &domain.ChecklistEvent{
			LifecycleBase: c.base(domain.LifecycleStarted),
			Items:         len(checklist.Items),
		})
	}

	return c.prompt(ctx, "")
}

func (c *Controller) sessionStarted(ev domain.SessionStarted) {
	if c.active == nil || ev.CustomData != c.active.ID {
		return
	}
	c.active.DialogueSessionID = ev.SessionID
	c.logger.Debug("dialogue session started", "checklist_id", c.active.ID, "session_id", ev.SessionID)
}

func (c *Controller) intentRecognized(ctx context.Context, ev domain.IntentRecognized) ([]domain.ActionRequest, error) {
	if !c.owns(ev.SessionID) {
		return nil, nil
	}

	item, err := c.active.CurrentItem()
	if err != nil {
		return nil, err
	}

	role := c.active.ResolvedIntents(item).Match(ev.IntentName)
	switch role {
	case domain.RoleCancel:
		c.logger.Debug("checklist cancelled", "checklist_id", c.active.ID, "item_id", item.ID)
		c.emitResolve(ctx, item.ID, role)
		c.active.MarkCancelled(item.ID)
		end := domain.ActionRequest{
			Type:    domain.ActionEndTurn,
			Payload: domain.EndRequest{SessionID: c.active.DialogueSessionID},
		}
		return append([]domain.ActionRequest{end}, c.finish(ctx)...), nil

	case domain.RoleConfirm:
		c.logger.Debug("item confirmed", "checklist_id", c.active.ID, "item_id", item.ID)
		c.active.MarkConfirmed(item.ID)

	case domain.RoleDisconfirm:
		c.logger.Debug("item disconfirmed", "checklist_id", c.active.ID, "item_id", item.ID)

	default:
		c.logger.Debug("unexpected intent, repeating item", "checklist_id", c.active.ID, "item_id", item.ID, "intent", ev.IntentName)
		return c.prompt(ctx, c.active.DialogueSessionID)
	}

	c.emitResolve(ctx, item.ID, role)
	c.active.Advance()
	c.attempts = 0

	if !c.active.IsComplete() {
		return c.prompt(ctx, c.active.DialogueSessionID)
	}

	c.active.Status = domain.StatusFinished
	end := domain.ActionRequest{
		Type:    domain.ActionEndTurn,
		Payload: domain.EndRequest{SessionID: c.active.DialogueSessionID, Text: c.active.EndText},
	}
	return append([]domain.ActionRequest{end}, c.finish(ctx)...), nil
}

func (c *Controller) notRecognized(ctx context.Context, ev domain.IntentNotRecognized) ([]domain.ActionRequest, error) {
	if !c.owns(ev.SessionID) {
		return nil, nil
	}
	return c.prompt(ctx, c.active.DialogueSessionID)
}

func (c *Controller) sessionEnded(ctx context.Context, ev domain.SessionEnded) ([]domain.ActionRequest, error) {
	if !c.owns(ev.SessionID) {
		return nil, nil
	}

	c.logger.Info("dialogue session ended by platform",
		"checklist_id", c.active.ID,
		"session_id", ev.SessionID,
		"reason", ev.Reason,
		"policy", c.teardown,
	)
	c.active.DialogueSessionID = ""

	if c.teardown == TeardownCancel {
		item, err := c.active.CurrentItem()
		if err != nil {
			return nil, err
		}
		c.emitResolve(ctx, item.ID, domain.RoleCancel)
		c.active.MarkCancelled(item.ID)
		return c.finish(ctx), nil
	}

	// The session is gone: the repeat needs a fresh one.
	return c.prompt(ctx, "")
}

// prompt speaks the current item. An empty sessionID opens a new dialogue session.
func (c *Controller) prompt(ctx context.Context, sessionID string) ([]domain.ActionRequest, error) {
	item, err := c.active.CurrentItem()
	if err != nil {
		return nil, err
	}

	c.attempts++
	if c.hooks.OnPrompt != nil {
		c.hooks.OnPrompt(ctx, &domain.PromptEvent{
			LifecycleBase: c.base(domain.LifecyclePrompted),
			ItemID:        item.ID,
			Attempt:       c.attempts,
		})
	}

	return []domain.ActionRequest{{
		Type: domain.ActionOpenTurn,
		Payload: domain.TurnRequest{
			SessionID:    sessionID,
			SiteID:       c.active.SiteID,
			Text:         item.Text,
			IntentFilter: c.active.ResolvedIntents(item).Filter(),
			CustomData:   c.active.ID,
		},
	}}, nil
}

// finish builds the report and returns the controller to Idle.
func (c *Controller) finish(ctx context.Context) []domain.ActionRequest {
	report := domain.BuildReport(c.active)

	c.logger.Info("checklist finished",
		"checklist_id", report.ID,
		"status", report.Status,
		"confirmed", len(report.ConfirmedIDs),
		"items", len(c.active.Items),
	)
	if c.hooks.OnFinish != nil {
		c.hooks.OnFinish(ctx, &domain.FinishEvent{
			LifecycleBase: c.base(domain.LifecycleFinished),
			Report:        report,
			Duration:      c.now().Sub(c.startedAt),
		})
	}

	c.reset()
	return []domain.ActionRequest{{Type: domain.ActionPublishFinished, Payload: report}}
}

// owns reports whether a dialogue event belongs to the active checklist.
func (c *Controller) owns(sessionID string) bool {
	return c.active != nil && c.active.DialogueSessionID != "" && sessionID == c.active.DialogueSessionID
}

func (c *Controller) reset() {
	c.active = nil
	c.attempts = 0
}

func (c *Controller) publishSnapshot() {
	c.snapshot.Store(c.active.Clone())
}

func (c *Controller) activeID() string {
	if c.active == nil {
		return ""
	}
	return c.active.ID
}

func (c *Controller) base(kind domain.LifecycleType) domain.LifecycleBase {
	return domain.LifecycleBase{
		Timestamp:   c.now(),
		Type:        kind,
		ChecklistID: c.active.ID,
		SiteID:      c.active.SiteID,
	}
}

func (c *Controller) emitResolve(ctx context.Context, itemID string, role domain.IntentRole) {
	if c.hooks.OnResolve != nil {
		c.hooks.OnResolve(ctx, &domain.ItemEvent{
			LifecycleBase: c.base(domain.LifecycleResolved),
			ItemID:        itemID,
			Role:          role,
		})
	}
}

func (c *Controller) emitReject(ctx context.Context, req domain.StartRequest) {
	if c.hooks.OnReject != nil {
		c.hooks.OnReject(ctx, &domain.ChecklistEvent{
			LifecycleBase: domain.LifecycleBase{
				Timestamp:   c.now(),
				Type:        domain.LifecycleRejected,
				ChecklistID: req.ID,
				SiteID:      req.SiteID,
			},
			Items: len(req.Items),
		})
	}
}
