package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/checklist/pkg/domain"
)

// Overlay contains live session data to visualize on the flowchart.
type Overlay struct {
	ConfirmedIDs []string
	CurrentItem  string
}

// OverlayFrom builds an Overlay from a running checklist; nil yields nil.
func OverlayFrom(c *domain.Checklist) *Overlay {
	view := domain.Summarize(c)
	if !view.Active {
		return nil
	}
	return &Overlay{
		ConfirmedIDs: view.Checklist.ConfirmedIDs,
		CurrentItem:  view.Checklist.CurrentItem,
	}
}

// GenerateMermaid produces a Mermaid flowchart of a checklist.
// It applies semantic styling:
// - Start and end: ((Circle))
// - Item (spoken question): [/Parallelogram/]
// Confirm and disconfirm advance to the next item; cancel jumps to the cancelled terminal.
// It also applies overlay styles (Confirmed/Current) if provided.
func GenerateMermaid(req domain.StartRequest, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	start := sanitizeMermaidID("start_" + req.ID)
	done := sanitizeMermaidID("done_" + req.ID)
	cancelled := sanitizeMermaidID("cancelled_" + req.ID)

	sb.WriteString(fmt.Sprintf("    %s((\"%s\"))\n", start, escapeLabel(req.ID)))

	defaults := req.Defaults()
	usesCancel := false
	for i, item := range req.Items {
		safeID := sanitizeMermaidID("item_" + item.ID)
		sb.WriteString(fmt.Sprintf("    %s[/\"%d. %s\"/]\n", safeID, i+1, escapeLabel(item.Text)))
		if i == 0 {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", start, safeID))
		}

		next := done
		if i+1 < len(req.Items) {
			next = sanitizeMermaidID("item_" + req.Items[i+1].ID)
		}

		in := domain.ResolveIntents(item, defaults)
		for _, name := range in.Filter() {
			if name == in.Cancel {
				continue
			}
			sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", safeID, escapeLabel(name), next))
		}
		if in.Cancel != "" {
			usesCancel = true
			sb.WriteString(fmt.Sprintf("    %s -. \"%s\" .-> %s\n", safeID, escapeLabel(in.Cancel), cancelled))
		}
	}

	endLabel := req.EndText
	if endLabel == "" {
		endLabel = "done"
	}
	sb.WriteString(fmt.Sprintf("    %s((\"%s\"))\n", done, escapeLabel(endLabel)))
	if usesCancel {
		sb.WriteString(fmt.Sprintf("    %s((\"cancelled\"))\n", cancelled))
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef confirmed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.ConfirmedIDs {
			safeID := sanitizeMermaidID("item_" + id)
			if !seen[safeID] && id != "" {
				seen[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s confirmed;\n", safeID))
			}
		}

		if overlay.CurrentItem != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID("item_"+overlay.CurrentItem)))
		}
	}

	return sb.String()
}

// escapeLabel replaces double quotes, which would end a Mermaid label.
func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
