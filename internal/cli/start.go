package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/checklist/internal/codec"
	"github.com/aretw0/checklist/pkg/domain"
	"github.com/aretw0/checklist/pkg/hermes"
	"github.com/aretw0/checklist/pkg/ports"
)

// StartOptions controls StartChecklist.
type StartOptions struct {
	// Wait blocks until the checklist's report is published.
	Wait bool
	// Timeout bounds the wait; zero waits until ctx ends.
	Timeout time.Duration
}

// StartChecklist publishes req on the start topic, as any Hermes client would.
// With Wait it returns the matching finished report.
func StartChecklist(ctx context.Context, bus ports.Bus, req domain.StartRequest, opts StartOptions) (*domain.FinishedMessage, error) {
	topic, payload, err := codec.EncodeStart(req)
	if err != nil {
		return nil, err
	}
	if !opts.Wait {
		return nil, bus.Publish(ctx, topic, payload)
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	// Subscribe before publishing so a fast skill cannot finish unseen.
	reports, err := bus.Subscribe(ctx, hermes.TopicChecklistFinished)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	if err := bus.Publish(ctx, topic, payload); err != nil {
		return nil, err
	}

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for checklist %q: %w", req.ID, ctx.Err())
		case msg, ok := <-reports:
			if !ok {
				return nil, ports.ErrBusClosed
			}
			report, err := codec.DecodeFinished(msg.Payload)
			if err != nil || report.ID != req.ID {
				continue
			}
			return report, nil
		}
	}
}
