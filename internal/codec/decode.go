package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/checklist/pkg/domain"
	"github.com/aretw0/checklist/pkg/hermes"
	"github.com/mitchellh/mapstructure"
)

// DecodeStart parses a JSON start message.
func DecodeStart(raw []byte) (*domain.StartRequest, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, domain.Malformed("", err)
	}
	if m == nil {
		return nil, domain.Malformed("", errors.New("payload is not an object"))
	}
	return DecodeStartMap(m)
}

// DecodeStartMap validates and decodes a start message already parsed into a generic map.
// It is shared by the JSON bus path and YAML checklist files.
func DecodeStartMap(m map[string]any) (*domain.StartRequest, error) {
	// 1. Presence checks (before mapstructure hides absence behind zero values)
	if m["id"] == nil {
		return nil, domain.MissingField("id")
	}
	if m["items"] == nil {
		return nil, domain.MissingField("items")
	}

	// 2. Typed decode; unknown keys are ignored
	var req domain.StartRequest
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &req,
		TagName: "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := decoder.Decode(m); err != nil {
		return nil, domain.Malformed("", err)
	}

	// 3. Required values
	if req.ID == "" {
		return nil, domain.MissingField("id")
	}
	if len(req.Items) == 0 {
		return nil, domain.MissingField("items")
	}

	seen := make(map[string]struct{}, len(req.Items))
	for i, item := range req.Items {
		if item.ID == "" {
			return nil, domain.MissingField(fmt.Sprintf("items[%d].id", i))
		}
		if item.Text == "" {
			return nil, domain.MissingField(fmt.Sprintf("items[%d].text", i))
		}
		if _, dup := seen[item.ID]; dup {
			return nil, domain.Malformed(fmt.Sprintf("items[%d].id", i), fmt.Errorf("duplicate item id %q", item.ID))
		}
		seen[item.ID] = struct{}{}
	}

	// 4. Defaults
	if req.SiteID == "" {
		req.SiteID = domain.DefaultSiteID
	}

	return &req, nil
}

// DecodeEvent maps an inbound bus message to a domain event based on its topic.
func DecodeEvent(topic string, raw []byte) (domain.Event, error) {
	event, err := decodeEvent(topic, raw)
	if err != nil {
		var decodeErr *domain.DecodeError
		if errors.As(err, &decodeErr) {
			decodeErr.Topic = topic
			return nil, decodeErr
		}
		return nil, err
	}
	return event, nil
}

func decodeEvent(topic string, raw []byte) (domain.Event, error) {
	switch {
	case topic == hermes.TopicChecklistStart:
		req, err := DecodeStart(raw)
		if err != nil {
			return nil, err
		}
		return domain.StartChecklist{Request: *req}, nil

	case hermes.IsIntentTopic(topic):
		var msg hermes.NluIntent
		if err := unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		name := topic[len(hermes.TopicIntentPrefix):]
		if msg.Intent != nil && msg.Intent.IntentName != "" {
			name = msg.Intent.IntentName
		}
		return domain.IntentRecognized{
			SessionID:  msg.SessionID,
			SiteID:     msg.SiteID,
			IntentName: name,
			Slots:      decodeSlots(msg.Slots),
		}, nil

	case topic == hermes.TopicIntentNotRecognized:
		var msg hermes.IntentNotRecognized
		if err := unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return domain.IntentNotRecognized{SessionID: msg.SessionID, SiteID: msg.SiteID}, nil

	case topic == hermes.TopicSessionStarted:
		var msg hermes.SessionStarted
		if err := unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionID == "" {
			return nil, domain.MissingField("sessionId")
		}
		return domain.SessionStarted{SessionID: msg.SessionID, SiteID: msg.SiteID, CustomData: msg.CustomData}, nil

	case topic == hermes.TopicSessionEnded:
		var msg hermes.SessionEnded
		if err := unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return domain.SessionEnded{SessionID: msg.SessionID, SiteID: msg.SiteID, Reason: msg.Termination.Reason}, nil
	}

	return nil, &domain.DecodeError{Kind: domain.DecodeMalformed, Err: errors.New("unexpected topic")}
}

func unmarshal(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return domain.Malformed("", err)
	}
	return nil
}

func decodeSlots(slots []hermes.Slot) []domain.Slot {
	if len(slots) == 0 {
		return nil
	}
	out := make([]domain.Slot, 0, len(slots))
	for _, s := range slots {
		out = append(out, domain.Slot{
			Name:     s.SlotName,
			Entity:   s.Entity,
			RawValue: s.RawValue,
			Value:    s.Value.Value,
		})
	}
	return out
}
