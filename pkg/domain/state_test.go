package domain_test

import (
	"testing"

	"github.com/aretw0/checklist/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoItems() domain.StartRequest {
	return domain.StartRequest{
		ID: "list-1",
		Items: []domain.ChecklistItem{
			{ID: "item-1", Text: "Is the stove off?"},
			{ID: "item-2", Text: "Are the windows closed?"},
		},
		ConfirmIntent:    "Confirm",
		DisconfirmIntent: "Disconfirm",
	}
}

func TestNewChecklist(t *testing.T) {
	c, err := domain.NewChecklist(twoItems())
	require.NoError(t, err)

	assert.Equal(t, "list-1", c.ID)
	assert.Equal(t, 0, c.Cursor)
	assert.Equal(t, domain.DefaultSiteID, c.SiteID)
	assert.Equal(t, domain.StatusAwaitingResponse, c.Status)
	assert.Empty(t, c.ConfirmedIDs)
	assert.Empty(t, c.CancelledID)
}

func TestNewChecklist_Rejects(t *testing.T) {
	_, err := domain.NewChecklist(domain.StartRequest{ID: "x"})
	assert.ErrorIs(t, err, domain.ErrMissingField)

	req := twoItems()
	req.ID = ""
	_, err = domain.NewChecklist(req)
	assert.ErrorIs(t, err, domain.ErrMissingField)
}

func TestChecklist_Cursor(t *testing.T) {
	c, err := domain.NewChecklist(twoItems())
	require.NoError(t, err)

	item, err := c.CurrentItem()
	require.NoError(t, err)
	assert.Equal(t, "item-1", item.ID)

	c.Advance()
	item, err = c.CurrentItem()
	require.NoError(t, err)
	assert.Equal(t, "item-2", item.ID)
	assert.False(t, c.IsComplete())

	c.Advance()
	assert.True(t, c.IsComplete())
	assert.Equal(t, 2, c.Cursor)

	_, err = c.CurrentItem()
	assert.ErrorIs(t, err, domain.ErrOutOfRange)

	// Advancing past the end keeps cursor == len(items).
	c.Advance()
	assert.Equal(t, 2, c.Cursor)
}

func TestChecklist_MarkConfirmed_Once(t *testing.T) {
	c, err := domain.NewChecklist(twoItems())
	require.NoError(t, err)

	c.MarkConfirmed("item-1")
	c.MarkConfirmed("item-1")
	assert.Equal(t, []string{"item-1"}, c.ConfirmedIDs)
}

func TestChecklist_MarkCancelled(t *testing.T) {
	c, err := domain.NewChecklist(twoItems())
	require.NoError(t, err)

	c.MarkCancelled("item-2")
	assert.Equal(t, "item-2", c.CancelledID)
	assert.Equal(t, domain.StatusCancelled, c.Status)
}

func TestChecklist_Clone_IsIndependent(t *testing.T) {
	c, err := domain.NewChecklist(twoItems())
	require.NoError(t, err)
	c.MarkConfirmed("item-1")

	copied := c.Clone()
	c.MarkConfirmed("item-2")
	c.Items[0].Text = "changed"

	assert.Equal(t, []string{"item-1"}, copied.ConfirmedIDs)
	assert.Equal(t, "Is the stove off?", copied.Items[0].Text)
}
