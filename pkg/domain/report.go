package domain

import "slices"

// FinishStatus is the overall outcome of a checklist.
type FinishStatus string

const (
	FinishUnknown       FinishStatus = "unknown"
	FinishAllConfirmed  FinishStatus = "allConfirmed"
	FinishSomeConfirmed FinishStatus = "someConfirmed"
	FinishNoneConfirmed FinishStatus = "noneConfirmed"
	FinishCancelled     FinishStatus = "cancelled"
)

// FinishedMessage is the terminal report published for a checklist.
type FinishedMessage struct {
	ID           string       `json:"id"`
	Status       FinishStatus `json:"status"`
	ConfirmedIDs []string     `json:"confirmedIds"`
	CancelledID  *string      `json:"cancelledId"`
	SiteID       string       `json:"siteId"`
}

// BuildReport computes the final status of a checklist.
// Confirmed ids are listed in item order.
func BuildReport(c *Checklist) FinishedMessage {
	report := FinishedMessage{
		ID:           c.ID,
		Status:       FinishUnknown,
		ConfirmedIDs: []string{},
		SiteID:       c.SiteID,
	}

	for _, item := range c.Items {
		if slices.Contains(c.ConfirmedIDs, item.ID) {
			report.ConfirmedIDs = append(report.ConfirmedIDs, item.ID)
		}
	}

	switch {
	case c.CancelledID != "":
		cancelled := c.CancelledID
		report.CancelledID = &cancelled
		report.Status = FinishCancelled
	case len(report.ConfirmedIDs) == len(c.Items):
		report.Status = FinishAllConfirmed
	case len(report.ConfirmedIDs) == 0:
		report.Status = FinishNoneConfirmed
	default:
		report.Status = FinishSomeConfirmed
	}

	return report
}
