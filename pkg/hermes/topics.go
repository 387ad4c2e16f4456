package hermes

import "strings"

// Topics consumed and produced by the checklist skill.
const (
	TopicChecklistStart    = "rhasspy/checklist/start"
	TopicChecklistFinished = "rhasspy/checklist/finished"

	TopicIntentPrefix        = "hermes/intent/"
	TopicIntentAll           = "hermes/intent/#"
	TopicIntentNotRecognized = "hermes/dialogueManager/intentNotRecognized"
	TopicSessionStarted      = "hermes/dialogueManager/sessionStarted"
	TopicSessionEnded        = "hermes/dialogueManager/sessionEnded"

	TopicStartSession    = "hermes/dialogueManager/startSession"
	TopicContinueSession = "hermes/dialogueManager/continueSession"
	TopicEndSession      = "hermes/dialogueManager/endSession"
)

// SubscribeTopics lists the topic filters the skill listens on.
func SubscribeTopics() []string {
	return []string{
		TopicChecklistStart,
		TopicIntentAll,
		TopicIntentNotRecognized,
		TopicSessionStarted,
		TopicSessionEnded,
	}
}

// IsIntentTopic reports whether the topic carries a recognized intent.
func IsIntentTopic(topic string) bool {
	return strings.HasPrefix(topic, TopicIntentPrefix) && len(topic) > len(TopicIntentPrefix)
}

// IntentTopic returns the topic an intent with the given name is published on.
func IntentTopic(intentName string) string {
	return TopicIntentPrefix + intentName
}

// MatchTopic reports whether a topic matches an MQTT filter ('+' single level, '#' multi level).
// As in MQTT, "a/#" also matches the parent level "a".
func MatchTopic(filter, topic string) bool {
	fParts := strings.Split(filter, "/")
	tParts := strings.Split(topic, "/")

	for i, f := range fParts {
		if f == "#" {
			return true
		}
		if i >= len(tParts) {
			return false
		}
		if f != "+" && f != tParts[i] {
			return false
		}
	}
	return len(fParts) == len(tParts)
}
