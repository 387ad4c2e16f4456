package ports

import (
	"context"

	"github.com/aretw0/checklist/pkg/domain"
)

// ActionDispatcher defines how side-effects are executed.
// The controller emits requests, and the host implements this interface to handle them.
type ActionDispatcher interface {
	Dispatch(ctx context.Context, req domain.ActionRequest) error
}
