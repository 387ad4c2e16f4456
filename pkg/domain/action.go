package domain

// ActionRequest represents a side-effect that the controller requests the host to perform.
type ActionRequest struct {
	Type    string // e.g., "OPEN_TURN", "END_TURN"
	Payload any    // The data needed to perform the action
}

// Standard Action Types
const (
	// ActionOpenTurn requests the host to speak a prompt and listen for an answer.
	// Payload: TurnRequest
	ActionOpenTurn = "OPEN_TURN"

	// ActionEndTurn requests the host to close the dialogue session.
	// Payload: EndRequest
	ActionEndTurn = "END_TURN"

	// ActionPublishFinished requests the host to publish the final report.
	// Payload: FinishedMessage
	ActionPublishFinished = "PUBLISH_FINISHED"
)

// TurnRequest describes one prompt of the dialogue.
// An empty SessionID starts a new dialogue session; otherwise the session is continued.
type TurnRequest struct {
	SessionID    string   `json:"sessionId,omitempty"`
	SiteID       string   `json:"siteId"`
	Text         string   `json:"text"`
	IntentFilter []string `json:"intentFilter,omitempty"`
	CustomData   string   `json:"customData,omitempty"`
}

// Continues reports whether the turn reuses an open dialogue session.
func (t TurnRequest) Continues() bool {
	return t.SessionID != ""
}

// EndRequest closes a dialogue session, optionally speaking a last sentence.
type EndRequest struct {
	SessionID string `json:"sessionId"`
	Text      string `json:"text,omitempty"`
}
