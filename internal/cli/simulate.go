package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/checklist"
	"github.com/aretw0/checklist/internal/codec"
	"github.com/aretw0/checklist/internal/dialogue"
	"github.com/aretw0/checklist/internal/logging"
	"github.com/aretw0/checklist/pkg/adapters/memory"
	"github.com/aretw0/checklist/pkg/domain"
	"github.com/aretw0/checklist/pkg/hermes"
)

// SimulateOptions controls Simulate.
type SimulateOptions struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Render   func(string) (string, error)
	Logger   *slog.Logger
	Hooks    domain.LifecycleHooks
}

// Simulate runs req on an in-process bus with the terminal as dialogue manager
// and returns the finished report.
// Ending the input cancels the checklist on the current item.
func Simulate(ctx context.Context, req domain.StartRequest, opts SimulateOptions) (*domain.FinishedMessage, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}

	bus := memory.NewBus()
	defer bus.Close()

	// 1. Skill; the console is the only dialogue manager, so a session it ends is final.
	skill := checklist.New(bus,
		checklist.WithLogger(opts.Logger),
		checklist.WithLifecycleHooks(opts.Hooks),
		checklist.WithTeardownPolicy(dialogue.TeardownCancel),
	)
	console := checklist.NewConsole(opts.Input, opts.Output)
	console.Headless = opts.Headless
	console.Renderer = opts.Render

	// 2. Watch for the outcome before anything can happen
	watch, err := bus.Subscribe(ctx, hermes.TopicChecklistFinished, hermes.TopicSessionEnded)
	if err != nil {
		return nil, err
	}

	skillErr := make(chan error, 1)
	consoleErr := make(chan error, 1)
	go func() { skillErr <- skill.Run(ctx) }()
	go func() { consoleErr <- console.Run(ctx, bus) }()

	for _, ready := range []<-chan struct{}{skill.Ready(), console.Ready()} {
		select {
		case <-ready:
		case err := <-skillErr:
			return nil, fmt.Errorf("skill: %w", err)
		case err := <-consoleErr:
			return nil, fmt.Errorf("console: %w", err)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	// 3. Go
	if err := skill.Start(ctx, req); err != nil {
		return nil, err
	}

	// The run is over once the report is out and the dialogue session is closed,
	// so the console has printed its last words.
	var (
		report *domain.FinishedMessage
		closed bool
	)
	for report == nil || !closed {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case err := <-skillErr:
			return nil, fmt.Errorf("skill stopped: %w", err)
		case err := <-consoleErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				return nil, fmt.Errorf("console: %w", err)
			}
			closed = true
			consoleErr = nil
		case msg, ok := <-watch:
			if !ok {
				return nil, fmt.Errorf("bus closed before checklist %q finished", req.ID)
			}
			if msg.Topic == hermes.TopicSessionEnded {
				closed = true
				continue
			}
			if r, err := codec.DecodeFinished(msg.Payload); err == nil && r.ID == req.ID {
				report = r
			}
		}
	}
	return report, nil
}
