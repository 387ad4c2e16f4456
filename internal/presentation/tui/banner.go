package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Checklist banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	// A green-to-teal ramp, one color per line
	lines := []struct {
		text  string
		color string
	}{
		{`   ___ _           _   _ _     _   `, "#4ade80"},
		{`  / __| |_  ___ __| |_| (_)___| |_ `, "#34d399"},
		{` | (__| ' \/ -_) _| / / | (_-<  _|`, "#2dd4bf"},
		{`  \___|_||_\___\__|_\_\_|_/__/\__|`, "#22d3ee"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  v"+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(w)
}
