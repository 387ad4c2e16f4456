package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/checklist/internal/codec"
	"github.com/aretw0/checklist/internal/config"
	"github.com/aretw0/checklist/internal/logging"
	"github.com/aretw0/checklist/pkg/adapters/memory"
	"github.com/aretw0/checklist/pkg/adapters/process"
	"github.com/aretw0/checklist/pkg/domain"
	"github.com/aretw0/checklist/pkg/hermes"
	"github.com/aretw0/checklist/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nightYAML = `
id: night
endText: Sleep well
confirmIntent: "Yes"
disconfirmIntent: "No"
items:
  - id: oven
    text: Is the oven off?
  - id: door
    text: Is the door locked?
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func night(t *testing.T) *domain.StartRequest {
	t.Helper()
	req, err := ReadChecklist(writeFile(t, "night.yaml", nightYAML), nil, ReadOptions{})
	require.NoError(t, err)
	return req
}

func TestReadChecklist_YAML(t *testing.T) {
	req := night(t)

	assert.Equal(t, "night", req.ID)
	assert.Equal(t, "default", req.SiteID)
	assert.Equal(t, "Yes", req.ConfirmIntent)
	require.Len(t, req.Items, 2)
	assert.Equal(t, "Is the door locked?", req.Items[1].Text)
}

func TestReadChecklist_JSONWithOverrides(t *testing.T) {
	path := writeFile(t, "list.json", `{"items":[{"id":"a","text":"A?"}],"siteId":"garage"}`)

	_, err := ReadChecklist(path, nil, ReadOptions{})
	assert.ErrorIs(t, err, domain.ErrMissingField)

	req, err := ReadChecklist(path, nil, ReadOptions{GenerateID: true, SiteID: "kitchen"})
	require.NoError(t, err)
	assert.Len(t, req.ID, 36)
	assert.Equal(t, "kitchen", req.SiteID)
}

func TestReadChecklist_Stdin(t *testing.T) {
	req, err := ReadChecklist("-", strings.NewReader(`{"id":"piped","items":[{"id":"a","text":"A?"}]}`), ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "piped", req.ID)
}

func TestReadChecklist_Errors(t *testing.T) {
	_, err := ReadChecklist(filepath.Join(t.TempDir(), "missing.yaml"), nil, ReadOptions{})
	assert.ErrorContains(t, err, "read checklist")

	_, err = ReadChecklist(writeFile(t, "empty.yaml", ""), nil, ReadOptions{})
	assert.ErrorIs(t, err, domain.ErrMalformed)

	_, err = ReadChecklist(writeFile(t, "bad.yaml", "id: [x"), nil, ReadOptions{})
	assert.ErrorIs(t, err, domain.ErrMalformed)
}

func TestValidate(t *testing.T) {
	req := night(t)

	var out bytes.Buffer
	require.NoError(t, Validate(&out, req, ValidateOptions{}))
	assert.Contains(t, out.String(), "| 1 | `oven` | Is the oven off? | `Yes` | `No` | - |")

	out.Reset()
	require.NoError(t, Validate(&out, req, ValidateOptions{Format: OutputMermaid}))
	assert.True(t, strings.HasPrefix(out.String(), "graph TD\n"))

	out.Reset()
	require.NoError(t, Validate(&out, req, ValidateOptions{Format: OutputJSON}))
	assert.JSONEq(t, `[]`, string(mustField(t, out.Bytes(), "warnings")))

	assert.Error(t, Validate(&out, req, ValidateOptions{Format: "html"}))
}

func TestValidate_Strict(t *testing.T) {
	req := night(t)
	req.EndText = ""

	var out bytes.Buffer
	require.NoError(t, Validate(&out, req, ValidateOptions{}))
	assert.Contains(t, out.String(), "## Warnings (1)")

	err := Validate(&out, req, ValidateOptions{Strict: true})
	assert.ErrorContains(t, err, "found 1 warnings")
}

func mustField(t *testing.T, raw []byte, field string) json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &m))
	return m[field]
}

func TestPrintReport(t *testing.T) {
	report := domain.FinishedMessage{ID: "night", Status: domain.FinishAllConfirmed, ConfirmedIDs: []string{"oven"}, SiteID: "default"}

	var out bytes.Buffer
	require.NoError(t, PrintReport(&out, report, OutputJSON, nil))
	assert.JSONEq(t, `{"id":"night","status":"allConfirmed","confirmedIds":["oven"],"cancelledId":null,"siteId":"default"}`, out.String())

	out.Reset()
	require.NoError(t, PrintReport(&out, report, OutputText, nil))
	assert.Contains(t, out.String(), "allConfirmed")
}

func TestStartChecklist_Wait(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	bus := memory.NewBus()
	defer bus.Close()

	// A stand-in skill: answers every start with an unrelated report, then the real one.
	starts, err := bus.Subscribe(ctx, hermes.TopicChecklistStart)
	require.NoError(t, err)
	go func() {
		msg := <-starts
		req, err := codec.DecodeStart(msg.Payload)
		if err != nil {
			return
		}
		for _, id := range []string{"other", req.ID} {
			_, payload, _ := codec.EncodeFinished(domain.FinishedMessage{ID: id, Status: domain.FinishNoneConfirmed, SiteID: req.SiteID})
			_ = bus.Publish(ctx, hermes.TopicChecklistFinished, payload)
		}
	}()

	report, err := StartChecklist(ctx, bus, *night(t), StartOptions{Wait: true})
	require.NoError(t, err)
	assert.Equal(t, "night", report.ID)
	assert.Equal(t, domain.FinishNoneConfirmed, report.Status)
}

func TestStartChecklist_NoWait(t *testing.T) {
	ctx := context.Background()
	bus := memory.NewBus()
	defer bus.Close()

	starts, err := bus.Subscribe(ctx, hermes.TopicChecklistStart)
	require.NoError(t, err)

	report, err := StartChecklist(ctx, bus, *night(t), StartOptions{})
	require.NoError(t, err)
	assert.Nil(t, report)

	select {
	case msg := <-starts:
		req, err := codec.DecodeStart(msg.Payload)
		require.NoError(t, err)
		assert.Equal(t, "night", req.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("start was not published")
	}
}

func TestStartChecklist_Timeout(t *testing.T) {
	bus := memory.NewBus()
	defer bus.Close()

	_, err := StartChecklist(context.Background(), bus, *night(t), StartOptions{Wait: true, Timeout: 20 * time.Millisecond})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSimulate(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		status    domain.FinishStatus
		confirmed []string
		cancelled string
		output    []string
	}{
		{
			name:      "answers by number and name",
			input:     "1\nwhat?\nno\n",
			status:    domain.FinishSomeConfirmed,
			confirmed: []string{"oven"},
			output:    []string{"Is the oven off?", "Is the door locked?", "Sleep well"},
		},
		{
			name:      "end of input cancels",
			input:     "yes\n",
			status:    domain.FinishCancelled,
			confirmed: []string{"oven"},
			cancelled: "door",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			var out bytes.Buffer
			report, err := Simulate(ctx, *night(t), SimulateOptions{
				Input:    strings.NewReader(tt.input),
				Output:   &out,
				Headless: true,
			})
			require.NoError(t, err)

			assert.Equal(t, tt.status, report.Status)
			assert.Equal(t, tt.confirmed, report.ConfirmedIDs)
			if tt.cancelled != "" {
				require.NotNil(t, report.CancelledID)
				assert.Equal(t, tt.cancelled, *report.CancelledID)
			}
			for _, want := range tt.output {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}

func TestOpenTransport_Memory(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Transport = config.TransportMemory

	tr, err := OpenTransport(context.Background(), &cfg, logging.NewNop())
	require.NoError(t, err)
	assert.Nil(t, tr.Redis)
	assert.Nil(t, tr.Claimer)
	assert.NoError(t, tr.Health(context.Background()))
	assert.NoError(t, tr.Close())
}

func TestNewService_InvalidNotify(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Notify = []process.Command{{Name: "broken"}}

	_, err := NewService(&cfg, &Transport{Bus: memory.NewBus()}, logging.NewNop())
	assert.ErrorContains(t, err, "command is required")
}

func TestService_WaitDrainsNotifyCommands(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("notify commands use /bin/sh")
	}
	marker := filepath.Join(t.TempDir(), "notified")
	cfg := config.DefaultConfig()
	cfg.Notify = []process.Command{{Name: "late", Command: "sh", Args: []string{"-c", "sleep 0.3; touch " + marker}}}

	svc, err := NewService(&cfg, &Transport{Bus: memory.NewBus()}, logging.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	req := domain.StartRequest{
		ID:           "night",
		Items:        []domain.ChecklistItem{{ID: "oven", Text: "Is the oven off?"}},
		CancelIntent: "Stop",
		SiteID:       domain.DefaultSiteID,
	}
	topic, payload, err := codec.EncodeStart(req)
	require.NoError(t, err)
	svc.Skill.Handle(ctx, ports.Message{Topic: topic, Payload: payload})
	svc.Skill.Handle(ctx, hermesMessage(t, hermes.TopicSessionStarted, hermes.SessionStarted{SessionID: "s1", SiteID: "default", CustomData: "night"}))
	svc.Skill.Handle(ctx, hermesMessage(t, hermes.IntentTopic("Stop"), hermes.NluIntent{
		Intent:    &hermes.Intent{IntentName: "Stop", ConfidenceScore: 1},
		SiteID:    "default",
		SessionID: "s1",
	}))

	report, ok := svc.Skill.LastReport()
	require.True(t, ok)
	assert.Equal(t, domain.FinishCancelled, report.Status)

	svc.Wait()
	assert.FileExists(t, marker)
}

func hermesMessage(t *testing.T, topic string, v any) ports.Message {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return ports.Message{Topic: topic, Payload: data}
}

func TestServe_StopsOnCancel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Transport = config.TransportMemory
	tr := &Transport{Bus: memory.NewBus()}
	defer tr.Close()

	svc, err := NewService(&cfg, tr, logging.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, &cfg, svc) }()

	<-svc.Skill.Ready()
	report, err := StartChecklist(context.Background(), tr.Bus, *night(t), StartOptions{})
	require.NoError(t, err)
	assert.Nil(t, report)
	assert.Eventually(t, func() bool { return svc.Skill.Snapshot() != nil }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
}
