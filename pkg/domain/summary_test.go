package domain_test

import (
	"testing"

	"github.com/aretw0/checklist/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	assert.Equal(t, domain.StatusView{Active: false}, domain.Summarize(nil))

	c, err := domain.NewChecklist(twoItems())
	assert.NoError(t, err)
	c.MarkConfirmed("item-1")
	c.Advance()

	view := domain.Summarize(c)
	assert.True(t, view.Active)
	assert.Equal(t, &domain.ChecklistSummary{
		ID:           "list-1",
		SiteID:       domain.DefaultSiteID,
		Status:       domain.StatusAwaitingResponse,
		Items:        2,
		Cursor:       1,
		CurrentItem:  "item-2",
		ConfirmedIDs: []string{"item-1"},
	}, view.Checklist)

	c.Advance()
	assert.Empty(t, domain.Summarize(c).Checklist.CurrentItem, "no current item past the end")
}
