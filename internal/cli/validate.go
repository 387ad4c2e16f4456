package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/checklist/internal/presentation/graph"
	"github.com/aretw0/checklist/internal/presentation/tui"
	"github.com/aretw0/checklist/internal/validator"
	"github.com/aretw0/checklist/pkg/domain"
)

// Output formats shared by the commands that print checklists.
const (
	OutputText    = "text"
	OutputJSON    = "json"
	OutputMermaid = "mermaid"
)

// ValidateOptions controls Validate.
type ValidateOptions struct {
	Format string
	// Strict turns warnings into a failure.
	Strict bool
	Render func(string) (string, error)
}

// Validate prints a checklist summary and its warnings to out.
func Validate(out io.Writer, req *domain.StartRequest, opts ValidateOptions) error {
	warnings := validator.Check(*req)

	switch opts.Format {
	case OutputJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(struct {
			Checklist *domain.StartRequest `json:"checklist"`
			Warnings  []validator.Warning  `json:"warnings"`
		}{req, nonNil(warnings)}); err != nil {
			return err
		}
	case OutputMermaid:
		fmt.Fprint(out, graph.GenerateMermaid(*req, nil))
	case "", OutputText:
		rendered, err := tui.Render(opts.Render, tui.ChecklistMarkdown(*req, warnings))
		if err != nil {
			return err
		}
		fmt.Fprint(out, rendered)
	default:
		return fmt.Errorf("unknown format %q", opts.Format)
	}

	if opts.Strict {
		return validator.Strict(warnings)
	}
	return nil
}

// PrintReport writes a finished report to out.
func PrintReport(out io.Writer, report domain.FinishedMessage, format string, render func(string) (string, error)) error {
	if format == OutputJSON {
		return json.NewEncoder(out).Encode(report)
	}
	rendered, err := tui.Render(render, tui.ReportMarkdown(report))
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, rendered)
	return err
}

func nonNil(w []validator.Warning) []validator.Warning {
	if w == nil {
		return []validator.Warning{}
	}
	return w
}
