package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the ASCII banner and version.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"  ____  _   _    _    ", "#34d399"},
		{" |  _ \\| \\ | |  / \\   ", "#2dd4bf"},
		{" | | | |  \\| | / _ \\  ", "#22d3ee"},
		{" | |_| | |\\  |/ ___ \\ ", "#38bdf8"},
		{" |____/|_| \\_/_/   \\_\\", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  v"+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(w)
}
