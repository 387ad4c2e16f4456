package hermes

// Intent is the recognized intent inside an NluIntent message.
type Intent struct {
	IntentName      string  `json:"intentName"`
	ConfidenceScore float64 `json:"confidenceScore"`
}

// SlotValue is the typed value of a slot.
type SlotValue struct {
	Kind  string `json:"kind"`
	Value any    `json:"value"`
}

// Slot is a named entity extracted from the utterance.
type Slot struct {
	Entity     string    `json:"entity"`
	SlotName   string    `json:"slotName"`
	RawValue   string    `json:"rawValue"`
	Value      SlotValue `json:"value"`
	Confidence float64   `json:"confidence,omitempty"`
}

// NluIntent is published on hermes/intent/<intentName>.
type NluIntent struct {
	Input      string  `json:"input"`
	Intent     *Intent `json:"intent"`
	Slots      []Slot  `json:"slots,omitempty"`
	SiteID     string  `json:"siteId"`
	SessionID  string  `json:"sessionId,omitempty"`
	CustomData string  `json:"customData,omitempty"`
}

// IntentNotRecognized is published when an utterance matched nothing in the filter.
type IntentNotRecognized struct {
	Input      string `json:"input,omitempty"`
	SiteID     string `json:"siteId"`
	SessionID  string `json:"sessionId,omitempty"`
	CustomData string `json:"customData,omitempty"`
}

// SessionStarted is published by the dialogue manager once a session is open.
type SessionStarted struct {
	SessionID  string `json:"sessionId"`
	SiteID     string `json:"siteId"`
	CustomData string `json:"customData,omitempty"`
}

// SessionTermination carries the reason a session ended.
type SessionTermination struct {
	Reason string `json:"reason"`
}

// SessionEnded is published by the dialogue manager when a session closes.
type SessionEnded struct {
	Termination SessionTermination `json:"termination"`
	SessionID   string             `json:"sessionId"`
	SiteID      string             `json:"siteId"`
	CustomData  string             `json:"customData,omitempty"`
}

// ActionInit starts a session that expects an answer.
type ActionInit struct {
	Type                    string   `json:"type"`
	Text                    string   `json:"text,omitempty"`
	CanBeEnqueued           bool     `json:"canBeEnqueued"`
	IntentFilter            []string `json:"intentFilter,omitempty"`
	SendIntentNotRecognized bool     `json:"sendIntentNotRecognized"`
}

// InitTypeAction is the only init type used by the skill.
const InitTypeAction = "action"

// StartSession asks the dialogue manager to open a new session.
type StartSession struct {
	Init       ActionInit `json:"init"`
	CustomData string     `json:"customData,omitempty"`
	SiteID     string     `json:"siteId"`
}

// ContinueSession speaks more text inside an open session and waits for an answer.
type ContinueSession struct {
	SessionID               string   `json:"sessionId"`
	Text                    string   `json:"text"`
	IntentFilter            []string `json:"intentFilter,omitempty"`
	SendIntentNotRecognized bool     `json:"sendIntentNotRecognized"`
	CustomData              string   `json:"customData,omitempty"`
}

// EndSession closes a session, optionally speaking a last sentence.
type EndSession struct {
	SessionID  string `json:"sessionId"`
	Text       string `json:"text,omitempty"`
	CustomData string `json:"customData,omitempty"`
}
