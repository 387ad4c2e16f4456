package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/checklist/internal/validator"
	"github.com/aretw0/checklist/pkg/domain"
)

// ChecklistMarkdown describes a checklist definition and its warnings as markdown.
func ChecklistMarkdown(req domain.StartRequest, warnings []validator.Warning) string {
	var sb strings.Builder
	defaults := req.Defaults()

	fmt.Fprintf(&sb, "# Checklist `%s`\n\n", req.ID)
	fmt.Fprintf(&sb, "Site: `%s`\n\n", req.SiteID)

	sb.WriteString("| # | Item | Question | Confirm | Disconfirm | Cancel |\n")
	sb.WriteString("|---|---|---|---|---|---|\n")
	for i, item := range req.Items {
		in := domain.ResolveIntents(item, defaults)
		fmt.Fprintf(&sb, "| %d | `%s` | %s | %s | %s | %s |\n",
			i+1, item.ID, cell(item.Text), intent(in.Confirm), intent(in.Disconfirm), intent(in.Cancel))
	}

	if req.EndText != "" {
		fmt.Fprintf(&sb, "\nEnds with: _%s_\n", req.EndText)
	}

	if len(warnings) == 0 {
		sb.WriteString("\n**OK**: no warnings.\n")
		return sb.String()
	}
	fmt.Fprintf(&sb, "\n## Warnings (%d)\n\n", len(warnings))
	for _, w := range warnings {
		fmt.Fprintf(&sb, "- %s\n", w.String())
	}
	return sb.String()
}

// ReportMarkdown describes a finished checklist as markdown.
func ReportMarkdown(report domain.FinishedMessage) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Checklist `%s`: %s\n\n", report.ID, report.Status)
	fmt.Fprintf(&sb, "Site: `%s`\n\n", report.SiteID)
	if len(report.ConfirmedIDs) == 0 {
		sb.WriteString("No item was confirmed.\n")
	} else {
		sb.WriteString("Confirmed:\n\n")
		for _, id := range report.ConfirmedIDs {
			fmt.Fprintf(&sb, "- `%s`\n", id)
		}
	}
	if report.CancelledID != nil {
		fmt.Fprintf(&sb, "\nCancelled on `%s`.\n", *report.CancelledID)
	}
	return sb.String()
}

// Render applies render to markdown, or returns it unchanged when render is nil.
func Render(render func(string) (string, error), markdown string) (string, error) {
	if render == nil {
		return markdown, nil
	}
	return render(markdown)
}

func intent(name string) string {
	if name == "" {
		return "-"
	}
	return "`" + name + "`"
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
