package checklist

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/checklist/pkg/hermes"
	"github.com/aretw0/checklist/pkg/ports"
	"github.com/google/uuid"
)

// ContentRenderer transforms a prompt before it is printed.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// Console plays the Hermes dialogue manager on a terminal: prompts are printed and
// typed answers are published as recognized intents. It lets checklists run without
// a voice platform.
type Console struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer

	// NewSessionID generates dialogue session ids (default: random UUIDs).
	NewSessionID func() string

	readyOnce sync.Once
	ready     chan struct{}
}

// NewConsole creates a console on the given IO.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{
		Input:        in,
		Output:       out,
		NewSessionID: uuid.NewString,
	}
}

// Run answers dialogue requests from bus until ctx ends or the input is exhausted.
// Running out of input ends the open session as if the user walked away.
func (c *Console) Run(ctx context.Context, bus ports.Bus) error {
	if c.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if c.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	if c.NewSessionID == nil {
		c.NewSessionID = uuid.NewString
	}

	msgs, err := bus.Subscribe(ctx, hermes.TopicStartSession, hermes.TopicContinueSession, hermes.TopicEndSession)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	if ready := c.readyChan(); !isClosed(ready) {
		close(ready)
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.Input)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return ports.ErrBusClosed
			}
			done, err := c.serve(ctx, bus, msg, lines)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
	}
}

// Ready is closed once Run is subscribed to the bus.
func (c *Console) Ready() <-chan struct{} {
	return c.readyChan()
}

func (c *Console) readyChan() chan struct{} {
	c.readyOnce.Do(func() { c.ready = make(chan struct{}) })
	return c.ready
}

// turn is what the console needs from startSession and continueSession.
type turn struct {
	sessionID  string
	siteID     string
	text       string
	filter     []string
	customData string
}

func (c *Console) serve(ctx context.Context, bus ports.Bus, msg ports.Message, lines <-chan string) (bool, error) {
	switch msg.Topic {
	case hermes.TopicStartSession:
		var req hermes.StartSession
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return false, fmt.Errorf("invalid startSession: %w", err)
		}
		t := turn{
			sessionID:  c.NewSessionID(),
			siteID:     req.SiteID,
			text:       req.Init.Text,
			filter:     req.Init.IntentFilter,
			customData: req.CustomData,
		}
		if err := publish(ctx, bus, hermes.TopicSessionStarted, hermes.SessionStarted{
			SessionID:  t.sessionID,
			SiteID:     t.siteID,
			CustomData: t.customData,
		}); err != nil {
			return false, err
		}
		return c.ask(ctx, bus, t, lines)

	case hermes.TopicContinueSession:
		var req hermes.ContinueSession
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return false, fmt.Errorf("invalid continueSession: %w", err)
		}
		return c.ask(ctx, bus, turn{
			sessionID:  req.SessionID,
			text:       req.Text,
			filter:     req.IntentFilter,
			customData: req.CustomData,
		}, lines)

	case hermes.TopicEndSession:
		var req hermes.EndSession
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return false, fmt.Errorf("invalid endSession: %w", err)
		}
		if req.Text != "" {
			c.print(req.Text)
		}
		return false, publish(ctx, bus, hermes.TopicSessionEnded, hermes.SessionEnded{
			Termination: hermes.SessionTermination{Reason: "nominal"},
			SessionID:   req.SessionID,
			CustomData:  req.CustomData,
		})
	}
	return false, nil
}

// ask prints the prompt, reads one answer and publishes it.
func (c *Console) ask(ctx context.Context, bus ports.Bus, t turn, lines <-chan string) (bool, error) {
	c.print(t.text)
	if !c.Headless && len(t.filter) > 0 {
		choices := make([]string, len(t.filter))
		for i, name := range t.filter {
			choices[i] = fmt.Sprintf("%d) %s", i+1, name)
		}
		fmt.Fprintln(c.Output, "  "+strings.Join(choices, "  "))
	}
	if !c.Headless {
		fmt.Fprint(c.Output, "> ")
	}

	var (
		input string
		ok    bool
	)
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case input, ok = <-lines:
	}

	if !ok || isQuit(input) {
		// Graceful exit on EOF
		return true, publish(ctx, bus, hermes.TopicSessionEnded, hermes.SessionEnded{
			Termination: hermes.SessionTermination{Reason: "abortedByUser"},
			SessionID:   t.sessionID,
			SiteID:      t.siteID,
			CustomData:  t.customData,
		})
	}

	input = strings.TrimSpace(input)
	name := resolveAnswer(input, t.filter)
	if name == "" {
		return false, publish(ctx, bus, hermes.TopicIntentNotRecognized, hermes.IntentNotRecognized{
			Input:      input,
			SiteID:     t.siteID,
			SessionID:  t.sessionID,
			CustomData: t.customData,
		})
	}
	return false, publish(ctx, bus, hermes.IntentTopic(name), hermes.NluIntent{
		Input:      input,
		Intent:     &hermes.Intent{IntentName: name, ConfidenceScore: 1},
		SiteID:     t.siteID,
		SessionID:  t.sessionID,
		CustomData: t.customData,
	})
}

func (c *Console) print(text string) {
	output := text
	if c.Renderer != nil {
		if rendered, err := c.Renderer(text); err == nil {
			output = rendered
		}
	}
	fmt.Fprintln(c.Output, strings.TrimSpace(output))
}

// resolveAnswer maps typed input to an intent of the filter: either its 1-based
// position or its name, ignoring case. Without a filter any word is an intent.
func resolveAnswer(input string, filter []string) string {
	if input == "" {
		return ""
	}
	if len(filter) == 0 {
		return input
	}
	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(filter) {
		return filter[n-1]
	}
	for _, name := range filter {
		if strings.EqualFold(name, input) {
			return name
		}
	}
	return ""
}

func isClosed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func isQuit(input string) bool {
	switch strings.TrimSpace(input) {
	case "exit", "quit":
		return true
	}
	return false
}

func publish(ctx context.Context, bus ports.Bus, topic string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", topic, err)
	}
	return bus.Publish(ctx, topic, data)
}
