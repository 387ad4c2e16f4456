package domain

import "slices"

// ChecklistItem is a single entry of a checklist.
// An empty intent field means "use the checklist default".
type ChecklistItem struct {
	ID               string `json:"id" mapstructure:"id" yaml:"id"`
	Text             string `json:"text" mapstructure:"text" yaml:"text"`
	ConfirmIntent    string `json:"confirmIntent,omitempty" mapstructure:"confirmIntent" yaml:"confirmIntent,omitempty"`
	DisconfirmIntent string `json:"disconfirmIntent,omitempty" mapstructure:"disconfirmIntent" yaml:"disconfirmIntent,omitempty"`
	CancelIntent     string `json:"cancelIntent,omitempty" mapstructure:"cancelIntent" yaml:"cancelIntent,omitempty"`
}

// IntentRole is the meaning of a recognized intent for the current item.
type IntentRole string

const (
	RoleNone       IntentRole = "none"
	RoleConfirm    IntentRole = "confirm"
	RoleDisconfirm IntentRole = "disconfirm"
	RoleCancel     IntentRole = "cancel"
)

// Intents holds the resolved intent names for an item. Empty means unset.
type Intents struct {
	Confirm    string `json:"confirm,omitempty"`
	Disconfirm string `json:"disconfirm,omitempty"`
	Cancel     string `json:"cancel,omitempty"`
}

// ResolveIntents applies the override chain: item override, then checklist default, then unset.
func ResolveIntents(item ChecklistItem, defaults Intents) Intents {
	return Intents{
		Confirm:    firstNonEmpty(item.ConfirmIntent, defaults.Confirm),
		Disconfirm: firstNonEmpty(item.DisconfirmIntent, defaults.Disconfirm),
		Cancel:     firstNonEmpty(item.CancelIntent, defaults.Cancel),
	}
}

// Filter returns the intent filter for a dialogue turn: the set names in
// confirm, disconfirm, cancel order without duplicates. Nil means "accept any intent".
func (i Intents) Filter() []string {
	var filter []string
	for _, name := range []string{i.Confirm, i.Disconfirm, i.Cancel} {
		if name == "" || slices.Contains(filter, name) {
			continue
		}
		filter = append(filter, name)
	}
	return filter
}

// Match classifies a recognized intent name. Unset intents never match.
// Cancel wins over confirm, which wins over disconfirm.
func (i Intents) Match(intentName string) IntentRole {
	if intentName == "" {
		return RoleNone
	}
	switch intentName {
	case i.Cancel:
		return RoleCancel
	case i.Confirm:
		return RoleConfirm
	case i.Disconfirm:
		return RoleDisconfirm
	}
	return RoleNone
}

// StartRequest is the decoded start message for a new checklist.
type StartRequest struct {
	ID               string          `json:"id" mapstructure:"id" yaml:"id"`
	Items            []ChecklistItem `json:"items" mapstructure:"items" yaml:"items"`
	EndText          string          `json:"endText" mapstructure:"endText" yaml:"endText,omitempty"`
	ConfirmIntent    string          `json:"confirmIntent,omitempty" mapstructure:"confirmIntent" yaml:"confirmIntent,omitempty"`
	DisconfirmIntent string          `json:"disconfirmIntent,omitempty" mapstructure:"disconfirmIntent" yaml:"disconfirmIntent,omitempty"`
	CancelIntent     string          `json:"cancelIntent,omitempty" mapstructure:"cancelIntent" yaml:"cancelIntent,omitempty"`
	SiteID           string          `json:"siteId" mapstructure:"siteId" yaml:"siteId,omitempty"`
}

// Defaults returns the checklist-level intents.
func (r StartRequest) Defaults() Intents {
	return Intents{
		Confirm:    r.ConfirmIntent,
		Disconfirm: r.DisconfirmIntent,
		Cancel:     r.CancelIntent,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
