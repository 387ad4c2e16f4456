package domain

import (
	"context"
	"time"
)

// EventKind identifies an inbound event.
type EventKind string

const (
	EventStartChecklist      EventKind = "start_checklist"
	EventIntentRecognized    EventKind = "intent_recognized"
	EventIntentNotRecognized EventKind = "intent_not_recognized"
	EventSessionStarted      EventKind = "session_started"
	EventSessionEnded        EventKind = "session_ended"
)

// Event is a decoded inbound message consumed by the dialogue controller.
type Event interface {
	Kind() EventKind
}

// StartChecklist asks the controller to begin a new checklist.
type StartChecklist struct {
	Request StartRequest
}

func (StartChecklist) Kind() EventKind { return EventStartChecklist }

// Slot is a named value extracted from a recognized utterance.
type Slot struct {
	Name     string `json:"slotName"`
	Entity   string `json:"entity"`
	RawValue string `json:"rawValue"`
	Value    any    `json:"value"`
}

// IntentRecognized reports that the platform understood an utterance.
type IntentRecognized struct {
	SessionID  string
	SiteID     string
	IntentName string
	Slots      []Slot
}

func (IntentRecognized) Kind() EventKind { return EventIntentRecognized }

// IntentNotRecognized reports that the utterance matched no intent of the filter.
type IntentNotRecognized struct {
	SessionID string
	SiteID    string
}

func (IntentNotRecognized) Kind() EventKind { return EventIntentNotRecognized }

// SessionStarted reports the platform session id of a turn opened by the controller.
// CustomData carries the checklist id the turn was opened for.
type SessionStarted struct {
	SessionID  string
	SiteID     string
	CustomData string
}

func (SessionStarted) Kind() EventKind { return EventSessionStarted }

// SessionEnded reports that the platform closed a dialogue session.
type SessionEnded struct {
	SessionID string
	SiteID    string
	Reason    string
}

func (SessionEnded) Kind() EventKind { return EventSessionEnded }

// LifecycleType defines the category of a lifecycle notification.
type LifecycleType string

const (
	LifecycleStarted  LifecycleType = "checklist_started"
	LifecyclePrompted LifecycleType = "item_prompted"
	LifecycleResolved LifecycleType = "item_resolved"
	LifecycleFinished LifecycleType = "checklist_finished"
	LifecycleRejected LifecycleType = "start_rejected"
)

// LifecycleBase contains common fields for all lifecycle notifications.
type LifecycleBase struct {
	Timestamp   time.Time     `json:"timestamp"`
	Type        LifecycleType `json:"type"`
	ChecklistID string        `json:"checklist_id"`
	SiteID      string        `json:"site_id"`
}

// ChecklistEvent represents a checklist being started or a start being rejected.
type ChecklistEvent struct {
	LifecycleBase
	Items int `json:"items"`
}

// PromptEvent represents a prompt being spoken for an item.
// Attempt starts at 1 and grows with every repeat of the same item.
type PromptEvent struct {
	LifecycleBase
	ItemID  string `json:"item_id"`
	Attempt int    `json:"attempt"`
}

// ItemEvent represents an item answered by the user.
type ItemEvent struct {
	LifecycleBase
	ItemID string     `json:"item_id"`
	Role   IntentRole `json:"role"`
}

// FinishEvent represents a published finished report.
type FinishEvent struct {
	LifecycleBase
	Report   FinishedMessage `json:"report"`
	Duration time.Duration   `json:"duration"`
}

// LifecycleHooks defines callbacks for controller observability.
type LifecycleHooks struct {
	OnStart   func(context.Context, *ChecklistEvent)
	OnReject  func(context.Context, *ChecklistEvent)
	OnPrompt  func(context.Context, *PromptEvent)
	OnResolve func(context.Context, *ItemEvent)
	OnFinish  func(context.Context, *FinishEvent)
}

// MergeHooks fans every callback out to all given hook sets.
func MergeHooks(all ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStart: func(ctx context.Context, e *ChecklistEvent) {
			for _, h := range all {
				if h.OnStart != nil {
					h.OnStart(ctx, e)
				}
			}
		},
		OnReject: func(ctx context.Context, e *ChecklistEvent) {
			for _, h := range all {
				if h.OnReject != nil {
					h.OnReject(ctx, e)
				}
			}
		},
		OnPrompt: func(ctx context.Context, e *PromptEvent) {
			for _, h := range all {
				if h.OnPrompt != nil {
					h.OnPrompt(ctx, e)
				}
			}
		},
		OnResolve: func(ctx context.Context, e *ItemEvent) {
			for _, h := range all {
				if h.OnResolve != nil {
					h.OnResolve(ctx, e)
				}
			}
		},
		OnFinish: func(ctx context.Context, e *FinishEvent) {
			for _, h := range all {
				if h.OnFinish != nil {
					h.OnFinish(ctx, e)
				}
			}
		},
	}
}
