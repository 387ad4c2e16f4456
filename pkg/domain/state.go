package domain

import (
	"fmt"
	"slices"
)

// Status defines where a checklist is in its lifecycle.
type Status string

const (
	StatusIdle             Status = "idle"             // No checklist is active
	StatusAwaitingResponse Status = "awaitingResponse" // A dialogue turn is open for the current item
	StatusFinished         Status = "finished"         // All items were answered
	StatusCancelled        Status = "cancelled"        // A cancel intent ended the checklist
)

// Checklist is the runtime snapshot of one in-flight checklist.
type Checklist struct {
	// ID is the caller-supplied checklist identifier.
	ID string `json:"id"`

	// Items are prompted in order.
	Items []ChecklistItem `json:"items"`

	// Cursor is the index of the current item. It equals len(Items) once complete.
	Cursor int `json:"cursor"`

	// ConfirmedIDs holds confirmed item ids, each at most once, in confirmation order.
	ConfirmedIDs []string `json:"confirmedIds"`

	// Defaults are the checklist-level intents used when an item has no override.
	Defaults Intents `json:"defaults"`

	// EndText is spoken when the checklist completes normally.
	EndText string `json:"endText"`

	SiteID string `json:"siteId"`

	// DialogueSessionID is the platform session of the open turn. Empty when none is known.
	DialogueSessionID string `json:"dialogueSessionId,omitempty"`

	Status Status `json:"status"`

	// CancelledID is the item the checklist was cancelled on. Set iff Status == StatusCancelled.
	CancelledID string `json:"cancelledId,omitempty"`
}

// NewChecklist creates a checklist positioned on its first item.
func NewChecklist(req StartRequest) (*Checklist, error) {
	if req.ID == "" {
		return nil, MissingField("id")
	}
	if len(req.Items) == 0 {
		return nil, MissingField("items")
	}

	siteID := req.SiteID
	if siteID == "" {
		siteID = DefaultSiteID
	}

	return &Checklist{
		ID:           req.ID,
		Items:        slices.Clone(req.Items),
		ConfirmedIDs: []string{},
		Defaults:     req.Defaults(),
		EndText:      req.EndText,
		SiteID:       siteID,
		Status:       StatusAwaitingResponse,
	}, nil
}

// CurrentItem returns the item under the cursor.
// Callers must check IsComplete first; past the end it returns ErrOutOfRange.
func (c *Checklist) CurrentItem() (ChecklistItem, error) {
	if c.Cursor < 0 || c.Cursor >= len(c.Items) {
		return ChecklistItem{}, fmt.Errorf("%w: cursor %d, %d items", ErrOutOfRange, c.Cursor, len(c.Items))
	}
	return c.Items[c.Cursor], nil
}

// ResolvedIntents returns the effective intents of an item of this checklist.
func (c *Checklist) ResolvedIntents(item ChecklistItem) Intents {
	return ResolveIntents(item, c.Defaults)
}

// Advance moves the cursor to the next item.
func (c *Checklist) Advance() {
	if c.Cursor < len(c.Items) {
		c.Cursor++
	}
}

// MarkConfirmed records an item as confirmed. Repeated calls are no-ops.
func (c *Checklist) MarkConfirmed(id string) {
	if slices.Contains(c.ConfirmedIDs, id) {
		return
	}
	c.ConfirmedIDs = append(c.ConfirmedIDs, id)
}

// MarkCancelled records the item the checklist was cancelled on.
func (c *Checklist) MarkCancelled(id string) {
	c.CancelledID = id
	c.Status = StatusCancelled
}

// IsComplete reports whether every item has been answered.
func (c *Checklist) IsComplete() bool {
	return c.Cursor >= len(c.Items)
}

// Clone returns a deep copy, safe to hand to readers outside the controller.
func (c *Checklist) Clone() *Checklist {
	if c == nil {
		return nil
	}
	copied := *c
	copied.Items = slices.Clone(c.Items)
	copied.ConfirmedIDs = slices.Clone(c.ConfirmedIDs)
	return &copied
}
