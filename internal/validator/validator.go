// Package validator reports checklist definitions that decode correctly but
// cannot run the way their author probably intended.
package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/checklist/pkg/domain"
)

// Warning is a non-fatal problem with one item, or with the whole checklist when ItemID is empty.
type Warning struct {
	ItemID  string `json:"itemId,omitempty"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.ItemID == "" {
		return w.Message
	}
	return fmt.Sprintf("%s: %s", w.ItemID, w.Message)
}

// Check inspects the resolved intents of every item.
func Check(req domain.StartRequest) []Warning {
	var warnings []Warning
	defaults := req.Defaults()

	// 1. Checklist level
	if req.EndText == "" {
		warnings = append(warnings, Warning{Message: "no endText: the final turn ends without speaking"})
	}

	// 2. Per item, in matching order (cancel, confirm, disconfirm)
	for _, item := range req.Items {
		in := domain.ResolveIntents(item, defaults)
		add := func(format string, args ...any) {
			warnings = append(warnings, Warning{ItemID: item.ID, Message: fmt.Sprintf(format, args...)})
		}

		if in.Confirm == "" && in.Disconfirm == "" {
			add("no confirm or disconfirm intent: the item can never advance")
		}
		if in.Confirm != "" && in.Confirm == in.Cancel {
			add("confirm intent %q is shadowed by cancel", in.Confirm)
		}
		if in.Disconfirm != "" && in.Disconfirm == in.Cancel {
			add("disconfirm intent %q is shadowed by cancel", in.Disconfirm)
		} else if in.Disconfirm != "" && in.Disconfirm == in.Confirm {
			add("disconfirm intent %q is shadowed by confirm", in.Disconfirm)
		}
	}

	return warnings
}

// Strict turns warnings into a single error, or nil when there are none.
func Strict(warnings []Warning) error {
	if len(warnings) == 0 {
		return nil
	}
	lines := make([]string, len(warnings))
	for i, w := range warnings {
		lines[i] = w.String()
	}
	return fmt.Errorf("found %d warnings:\n- %s", len(warnings), strings.Join(lines, "\n- "))
}
