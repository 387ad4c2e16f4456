package domain_test

import (
	"testing"

	"github.com/aretw0/checklist/pkg/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestBuildReport(t *testing.T) {
	tests := []struct {
		name      string
		confirmed []string
		cancelled string
		want      domain.FinishedMessage
	}{
		{
			name:      "all confirmed",
			confirmed: []string{"item-1", "item-2"},
			want: domain.FinishedMessage{
				ID: "list-1", Status: domain.FinishAllConfirmed,
				ConfirmedIDs: []string{"item-1", "item-2"}, SiteID: "default",
			},
		},
		{
			name:      "some confirmed",
			confirmed: []string{"item-2"},
			want: domain.FinishedMessage{
				ID: "list-1", Status: domain.FinishSomeConfirmed,
				ConfirmedIDs: []string{"item-2"}, SiteID: "default",
			},
		},
		{
			name: "none confirmed",
			want: domain.FinishedMessage{
				ID: "list-1", Status: domain.FinishNoneConfirmed,
				ConfirmedIDs: []string{}, SiteID: "default",
			},
		},
		{
			name:      "cancelled wins over confirmations",
			confirmed: []string{"item-1"},
			cancelled: "item-2",
			want: domain.FinishedMessage{
				ID: "list-1", Status: domain.FinishCancelled,
				ConfirmedIDs: []string{"item-1"}, CancelledID: ptr("item-2"), SiteID: "default",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := domain.NewChecklist(twoItems())
			require.NoError(t, err)
			for _, id := range tt.confirmed {
				c.MarkConfirmed(id)
			}
			if tt.cancelled != "" {
				c.MarkCancelled(tt.cancelled)
			}

			got := domain.BuildReport(c)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("BuildReport() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildReport_ItemOrder(t *testing.T) {
	c, err := domain.NewChecklist(twoItems())
	require.NoError(t, err)

	// Confirmation order differs from item order; the report follows item order.
	c.ConfirmedIDs = []string{"item-2", "item-1"}

	got := domain.BuildReport(c)
	if diff := cmp.Diff([]string{"item-1", "item-2"}, got.ConfirmedIDs); diff != "" {
		t.Errorf("ConfirmedIDs mismatch (-want +got):\n%s", diff)
	}
}
