package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"github.com/aretw0/checklist/internal/logging"
	"github.com/aretw0/checklist/pkg/domain"
	"github.com/aretw0/checklist/pkg/ports"
)

// Notifier runs local commands whenever a checklist report is published.
// It wraps another dispatcher: every action is forwarded first, and commands
// only run for reports that were delivered.
//
// The report is written to the command's stdin as JSON. Its fields are also
// exported as CHECKLIST_ID, CHECKLIST_STATUS, CHECKLIST_SITE_ID,
// CHECKLIST_CONFIRMED_IDS (comma separated) and CHECKLIST_CANCELLED_ID.
// Report values never reach the command line, so they cannot inject flags.
//
// Commands run in the background so the skill keeps handling messages while
// they execute. Call Wait on shutdown to let running commands finish.
type Notifier struct {
	next     ports.ActionDispatcher
	commands []Command
	baseDir  string
	logger   *slog.Logger

	running sync.WaitGroup
}

var _ ports.ActionDispatcher = (*Notifier)(nil)

// Option configures the notifier.
type Option func(*Notifier)

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) Option {
	return func(n *Notifier) {
		n.baseDir = dir
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Notifier) {
		n.logger = logger
	}
}

// NewNotifier wraps next with commands. Command definitions are checked up front.
func NewNotifier(next ports.ActionDispatcher, commands []Command, opts ...Option) (*Notifier, error) {
	for i, c := range commands {
		if c.Command == "" {
			return nil, fmt.Errorf("notify[%d]: command is required", i)
		}
		if _, err := c.Deadline(); err != nil {
			return nil, err
		}
	}

	n := &Notifier{
		next:     next,
		commands: commands,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Dispatch forwards req, then starts the commands if req carried a report.
// It returns as soon as the commands are started. Command failures are logged;
// they never fail the dispatch.
func (n *Notifier) Dispatch(ctx context.Context, req domain.ActionRequest) error {
	if err := n.next.Dispatch(ctx, req); err != nil {
		return err
	}

	report, ok := req.Payload.(domain.FinishedMessage)
	if !ok || len(n.commands) == 0 {
		return nil
	}

	// Commands outlive the message that finished the checklist.
	runCtx := context.WithoutCancel(ctx)
	n.running.Add(1)
	go func() {
		defer n.running.Done()
		n.notify(runCtx, report)
	}()
	return nil
}

// Wait blocks until every started command has exited or timed out.
func (n *Notifier) Wait() {
	n.running.Wait()
}

// notify runs the commands one after the other, in configuration order.
func (n *Notifier) notify(ctx context.Context, report domain.FinishedMessage) {
	for _, c := range n.commands {
		out, err := n.run(ctx, c, report)
		if err != nil {
			n.logger.Error("notify command failed", "name", c.Name, "checklist_id", report.ID, "err", err)
			continue
		}
		n.logger.Debug("notify command done", "name", c.Name, "checklist_id", report.ID, "output", out)
	}
}

func (n *Notifier) run(ctx context.Context, c Command, report domain.FinishedMessage) (string, error) {
	// 1. Bound the run
	timeout, _ := c.Deadline()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// 2. Prepare Command
	input, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	cmd := exec.CommandContext(ctx, c.Command, c.Args...)
	cmd.Dir = n.baseDir
	cmd.Stdin = bytes.NewReader(input)
	cmd.Env = append(cmd.Environ(), reportEnv(report)...)
	for k, v := range c.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	// 3. Capture Output
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// Combine error message with stderr for context
		return "", fmt.Errorf("execution failed: %w. Stderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

func reportEnv(report domain.FinishedMessage) []string {
	cancelled := ""
	if report.CancelledID != nil {
		cancelled = *report.CancelledID
	}
	return []string{
		"CHECKLIST_ID=" + report.ID,
		"CHECKLIST_STATUS=" + string(report.Status),
		"CHECKLIST_SITE_ID=" + report.SiteID,
		"CHECKLIST_CONFIRMED_IDS=" + strings.Join(report.ConfirmedIDs, ","),
		"CHECKLIST_CANCELLED_ID=" + cancelled,
	}
}
