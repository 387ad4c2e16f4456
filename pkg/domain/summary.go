package domain

// StatusView is the read-only view of the skill exposed by the HTTP and MCP front-ends.
type StatusView struct {
	Active    bool              `json:"active"`
	Checklist *ChecklistSummary `json:"checklist,omitempty"`
}

// ChecklistSummary summarizes an active checklist.
type ChecklistSummary struct {
	ID           string   `json:"id"`
	SiteID       string   `json:"siteId"`
	Status       Status   `json:"status"`
	Items        int      `json:"items"`
	Cursor       int      `json:"cursor"`
	CurrentItem  string   `json:"currentItem,omitempty"`
	ConfirmedIDs []string `json:"confirmedIds"`
}

// Summarize builds the view of a snapshot; nil means idle.
func Summarize(c *Checklist) StatusView {
	if c == nil {
		return StatusView{Active: false}
	}
	summary := &ChecklistSummary{
		ID:           c.ID,
		SiteID:       c.SiteID,
		Status:       c.Status,
		Items:        len(c.Items),
		Cursor:       c.Cursor,
		ConfirmedIDs: c.ConfirmedIDs,
	}
	if summary.ConfirmedIDs == nil {
		summary.ConfirmedIDs = []string{}
	}
	if item, err := c.CurrentItem(); err == nil {
		summary.CurrentItem = item.ID
	}
	return StatusView{Active: true, Checklist: summary}
}
