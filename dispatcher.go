package checklist

import (
	"context"
	"fmt"

	"github.com/aretw0/checklist/internal/codec"
	"github.com/aretw0/checklist/pkg/domain"
	"github.com/aretw0/checklist/pkg/ports"
)

// HermesDispatcher executes controller actions by publishing Hermes messages.
type HermesDispatcher struct {
	bus ports.Bus
}

var _ ports.ActionDispatcher = (*HermesDispatcher)(nil)

// NewHermesDispatcher creates a dispatcher publishing on bus.
func NewHermesDispatcher(bus ports.Bus) *HermesDispatcher {
	return &HermesDispatcher{bus: bus}
}

// Dispatch encodes the action and publishes it on its topic.
func (d *HermesDispatcher) Dispatch(ctx context.Context, req domain.ActionRequest) error {
	topic, payload, err := codec.EncodeAction(req)
	if err != nil {
		return err
	}
	if err := d.bus.Publish(ctx, topic, payload); err != nil {
		return fmt.Errorf("dispatch %s: %w", req.Type, err)
	}
	return nil
}
