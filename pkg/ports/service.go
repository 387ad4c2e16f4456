package ports

import (
	"context"

	"github.com/aretw0/checklist/pkg/domain"
)

// ChecklistService is the surface used by front-ends that do not speak Hermes themselves.
type ChecklistService interface {
	// Start submits a checklist as if it had been published on the start topic.
	Start(ctx context.Context, req domain.StartRequest) error

	// Snapshot returns a copy of the active checklist, or nil when idle.
	Snapshot() *domain.Checklist

	// LastReport returns the most recently published report, if any.
	LastReport() (domain.FinishedMessage, bool)
}
