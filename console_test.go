package checklist_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/checklist"
	"github.com/aretw0/checklist/pkg/adapters/memory"
	"github.com/aretw0/checklist/pkg/domain"
	"github.com/aretw0/checklist/pkg/hermes"
	"github.com/aretw0/checklist/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer guards a bytes.Buffer written by the console goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitReady(t *testing.T, ready <-chan struct{}) {
	t.Helper()
	select {
	case <-ready:
	case <-time.After(tests.DeliveryTimeout):
		t.Fatal("component never subscribed")
	}
}

func TestConsole_DrivesChecklist(t *testing.T) {
	bus := memory.NewBus()
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	skill := checklist.New(bus)
	go skill.Run(ctx)
	waitReady(t, skill.Ready())

	out := &syncBuffer{}
	console := checklist.NewConsole(strings.NewReader("1\nmaybe\ndisconfirm\n"), out)
	console.NewSessionID = func() string { return "console-1" }
	go console.Run(ctx, bus)
	waitReady(t, console.Ready())

	finished, err := bus.Subscribe(ctx, hermes.TopicChecklistFinished)
	require.NoError(t, err)

	var req domain.StartRequest
	require.NoError(t, json.Unmarshal([]byte(startPayload), &req))
	require.NoError(t, skill.Start(ctx, req))

	var report domain.FinishedMessage
	require.NoError(t, json.Unmarshal(tests.Receive(t, finished).Payload, &report))
	assert.Equal(t, domain.FinishSomeConfirmed, report.Status)
	assert.Equal(t, []string{"a"}, report.ConfirmedIDs)

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Have a nice day")
	}, time.Second, 10*time.Millisecond)

	text := out.String()
	assert.Contains(t, text, "Is the oven off?")
	assert.Equal(t, 2, strings.Count(text, "Are the windows closed?"), "unrecognized answer repeats the item")
	assert.Contains(t, text, "1) Confirm  2) Disconfirm  3) Cancel")
}

func TestConsole_EndOfInputAbortsSession(t *testing.T) {
	bus := memory.NewBus()
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ended, err := bus.Subscribe(ctx, hermes.TopicSessionEnded)
	require.NoError(t, err)

	console := checklist.NewConsole(strings.NewReader(""), &syncBuffer{})
	console.Headless = true
	done := make(chan error, 1)
	go func() { done <- console.Run(ctx, bus) }()
	waitReady(t, console.Ready())

	payload, err := json.Marshal(hermes.StartSession{
		Init:       hermes.ActionInit{Type: hermes.InitTypeAction, Text: "Ready?"},
		CustomData: "list-1",
		SiteID:     "default",
	})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, hermes.TopicStartSession, payload))

	var msg hermes.SessionEnded
	require.NoError(t, json.Unmarshal(tests.Receive(t, ended).Payload, &msg))
	assert.Equal(t, "abortedByUser", msg.Termination.Reason)
	assert.Equal(t, "list-1", msg.CustomData)
	assert.NoError(t, <-done)
}
