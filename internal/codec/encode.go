package codec

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/checklist/pkg/domain"
	"github.com/aretw0/checklist/pkg/hermes"
)

// EncodeAction returns the topic and payload that carry an action on the bus.
func EncodeAction(action domain.ActionRequest) (string, []byte, error) {
	switch payload := action.Payload.(type) {
	case domain.TurnRequest:
		return EncodeTurn(payload)
	case domain.EndRequest:
		return EncodeEnd(payload)
	case domain.FinishedMessage:
		return EncodeFinished(payload)
	}
	return "", nil, fmt.Errorf("unsupported action %s with payload %T", action.Type, action.Payload)
}

// EncodeTurn encodes a prompt as startSession or continueSession.
func EncodeTurn(turn domain.TurnRequest) (string, []byte, error) {
	if turn.Continues() {
		return marshal(hermes.TopicContinueSession, hermes.ContinueSession{
			SessionID:               turn.SessionID,
			Text:                    turn.Text,
			IntentFilter:            turn.IntentFilter,
			SendIntentNotRecognized: true,
			CustomData:              turn.CustomData,
		})
	}

	return marshal(hermes.TopicStartSession, hermes.StartSession{
		Init: hermes.ActionInit{
			Type:                    hermes.InitTypeAction,
			Text:                    turn.Text,
			CanBeEnqueued:           true,
			IntentFilter:            turn.IntentFilter,
			SendIntentNotRecognized: true,
		},
		CustomData: turn.CustomData,
		SiteID:     turn.SiteID,
	})
}

// EncodeEnd encodes an endSession request.
func EncodeEnd(end domain.EndRequest) (string, []byte, error) {
	return marshal(hermes.TopicEndSession, hermes.EndSession{
		SessionID: end.SessionID,
		Text:      end.Text,
	})
}

// EncodeFinished encodes the finished report.
func EncodeFinished(report domain.FinishedMessage) (string, []byte, error) {
	if report.ConfirmedIDs == nil {
		report.ConfirmedIDs = []string{}
	}
	return marshal(hermes.TopicChecklistFinished, report)
}

// EncodeStart encodes a start message for publication on the start topic.
func EncodeStart(req domain.StartRequest) (string, []byte, error) {
	return marshal(hermes.TopicChecklistStart, req)
}

// DecodeFinished parses a finished report, used by clients waiting for a result.
func DecodeFinished(raw []byte) (*domain.FinishedMessage, error) {
	var report domain.FinishedMessage
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, domain.Malformed("", err)
	}
	if report.ID == "" {
		return nil, domain.MissingField("id")
	}
	return &report, nil
}

func marshal(topic string, v any) (string, []byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal %s: %w", topic, err)
	}
	return topic, data, nil
}
