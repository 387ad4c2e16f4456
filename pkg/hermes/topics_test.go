package hermes_test

import (
	"testing"

	"github.com/aretw0/checklist/pkg/hermes"
	"github.com/stretchr/testify/assert"
)

func TestMatchTopic(t *testing.T) {
	tests := []struct {
		filter string
		topic  string
		want   bool
	}{
		{"hermes/intent/#", "hermes/intent/Confirm", true},
		{"hermes/intent/#", "hermes/intent/a/b", true},
		{"hermes/intent/#", "hermes/intent", true},
		{"hermes/+/sessionEnded", "hermes/dialogueManager/sessionEnded", true},
		{"hermes/+/sessionEnded", "hermes/dialogueManager/sessionStarted", false},
		{"rhasspy/checklist/start", "rhasspy/checklist/start", true},
		{"rhasspy/checklist/start", "rhasspy/checklist/start/x", false},
		{"rhasspy/checklist/start/x", "rhasspy/checklist/start", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, hermes.MatchTopic(tt.filter, tt.topic), "%s vs %s", tt.filter, tt.topic)
	}
}

func TestIsIntentTopic(t *testing.T) {
	assert.True(t, hermes.IsIntentTopic(hermes.IntentTopic("Confirm")))
	assert.False(t, hermes.IsIntentTopic(hermes.TopicIntentPrefix))
	assert.False(t, hermes.IsIntentTopic(hermes.TopicSessionEnded))
}
