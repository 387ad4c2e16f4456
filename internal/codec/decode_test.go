package codec_test

import (
	"testing"

	"github.com/aretw0/checklist/internal/codec"
	"github.com/aretw0/checklist/pkg/domain"
	"github.com/aretw0/checklist/pkg/hermes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDecodeStart_Defaults(t *testing.T) {
	raw := []byte(`{
		"id": "morning",
		"items": [
			{"id": "stove", "text": "Is the stove off?"},
			{"id": "door", "text": "Is the door locked?", "confirmIntent": "Locked", "cancelIntent": null}
		],
		"confirmIntent": "Confirm",
		"unknownField": {"ignored": true}
	}`)

	req, err := codec.DecodeStart(raw)
	require.NoError(t, err)

	assert.Equal(t, "morning", req.ID)
	assert.Equal(t, "", req.EndText)
	assert.Equal(t, domain.DefaultSiteID, req.SiteID)
	assert.Equal(t, "Confirm", req.ConfirmIntent)
	assert.Empty(t, req.DisconfirmIntent)
	assert.Empty(t, req.CancelIntent)
	require.Len(t, req.Items, 2)
	assert.Equal(t, "Locked", req.Items[1].ConfirmIntent)
	assert.Empty(t, req.Items[1].CancelIntent)
}

func TestDecodeStart_MissingFields(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{"no id", `{"items":[{"id":"a","text":"A"}]}`, "id"},
		{"empty id", `{"id":"","items":[{"id":"a","text":"A"}]}`, "id"},
		{"no items", `{"id":"x"}`, "items"},
		{"null items", `{"id":"x","items":null}`, "items"},
		{"empty items", `{"id":"x","items":[]}`, "items"},
		{"item without id", `{"id":"x","items":[{"text":"A"}]}`, "items[0].id"},
		{"item without text", `{"id":"x","items":[{"id":"a","text":"A"},{"id":"b"}]}`, "items[1].text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.DecodeStart([]byte(tt.raw))
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrMissingField)

			var decodeErr *domain.DecodeError
			require.ErrorAs(t, err, &decodeErr)
			assert.Equal(t, tt.field, decodeErr.Field)
		})
	}
}

func TestDecodeStart_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{"id":`},
		{"not an object", `[1,2]`},
		{"null payload", `null`},
		{"wrong id type", `{"id":5,"items":[{"id":"a","text":"A"}]}`},
		{"items not a list", `{"id":"x","items":"a"}`},
		{"duplicate item ids", `{"id":"x","items":[{"id":"a","text":"A"},{"id":"a","text":"B"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.DecodeStart([]byte(tt.raw))
			assert.ErrorIs(t, err, domain.ErrMalformed)
			assert.NotErrorIs(t, err, domain.ErrMissingField)
		})
	}
}

func TestDecodeStartMap_FromYAML(t *testing.T) {
	doc := `
id: evening
siteId: kitchen
endText: All done
confirmIntent: Confirm
disconfirmIntent: Disconfirm
items:
  - id: lights
    text: Are the lights off?
  - id: oven
    text: Is the oven off?
    cancelIntent: Stop
`
	var m map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(doc), &m))

	req, err := codec.DecodeStartMap(m)
	require.NoError(t, err)
	assert.Equal(t, "kitchen", req.SiteID)
	assert.Equal(t, "All done", req.EndText)
	assert.Equal(t, "Stop", req.Items[1].CancelIntent)
}

func TestDecodeEvent(t *testing.T) {
	t.Run("Intent", func(t *testing.T) {
		raw := `{"input":"yes","intent":{"intentName":"Confirm","confidenceScore":1},
			"siteId":"default","sessionId":"s1",
			"slots":[{"entity":"answer","slotName":"answer","rawValue":"yes","value":{"kind":"Unknown","value":"yes"}}]}`
		ev, err := codec.DecodeEvent(hermes.IntentTopic("Confirm"), []byte(raw))
		require.NoError(t, err)

		intent, ok := ev.(domain.IntentRecognized)
		require.True(t, ok)
		assert.Equal(t, "s1", intent.SessionID)
		assert.Equal(t, "Confirm", intent.IntentName)
		require.Len(t, intent.Slots, 1)
		assert.Equal(t, "answer", intent.Slots[0].Name)
		assert.Equal(t, "yes", intent.Slots[0].Value)
	})

	t.Run("Intent name from topic", func(t *testing.T) {
		ev, err := codec.DecodeEvent(hermes.IntentTopic("Disconfirm"), []byte(`{"sessionId":"s1"}`))
		require.NoError(t, err)
		assert.Equal(t, "Disconfirm", ev.(domain.IntentRecognized).IntentName)
	})

	t.Run("Not recognized", func(t *testing.T) {
		ev, err := codec.DecodeEvent(hermes.TopicIntentNotRecognized, []byte(`{"sessionId":"s1","siteId":"default"}`))
		require.NoError(t, err)
		assert.Equal(t, domain.IntentNotRecognized{SessionID: "s1", SiteID: "default"}, ev)
	})

	t.Run("Session started", func(t *testing.T) {
		ev, err := codec.DecodeEvent(hermes.TopicSessionStarted, []byte(`{"sessionId":"s1","siteId":"default","customData":"morning"}`))
		require.NoError(t, err)
		assert.Equal(t, domain.SessionStarted{SessionID: "s1", SiteID: "default", CustomData: "morning"}, ev)
	})

	t.Run("Session ended", func(t *testing.T) {
		ev, err := codec.DecodeEvent(hermes.TopicSessionEnded, []byte(`{"sessionId":"s1","siteId":"default","termination":{"reason":"timeout"}}`))
		require.NoError(t, err)
		assert.Equal(t, domain.SessionEnded{SessionID: "s1", SiteID: "default", Reason: "timeout"}, ev)
	})

	t.Run("Start", func(t *testing.T) {
		ev, err := codec.DecodeEvent(hermes.TopicChecklistStart, []byte(`{"id":"x","items":[{"id":"a","text":"A"}]}`))
		require.NoError(t, err)
		assert.Equal(t, "x", ev.(domain.StartChecklist).Request.ID)
	})

	t.Run("Malformed payload carries topic", func(t *testing.T) {
		_, err := codec.DecodeEvent(hermes.TopicSessionEnded, []byte(`not json`))
		assert.ErrorIs(t, err, domain.ErrMalformed)

		var decodeErr *domain.DecodeError
		require.ErrorAs(t, err, &decodeErr)
		assert.Equal(t, hermes.TopicSessionEnded, decodeErr.Topic)
	})

	t.Run("Unknown topic", func(t *testing.T) {
		_, err := codec.DecodeEvent("hermes/tts/say", []byte(`{}`))
		assert.ErrorIs(t, err, domain.ErrMalformed)
	})
}
