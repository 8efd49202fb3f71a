package cli

import (
	"log/slog"
	"os"

	"github.com/capstone-ai/dna/internal/config"
	"github.com/capstone-ai/dna/internal/logging"
	"github.com/capstone-ai/dna/internal/presentation/tui"
	"golang.org/x/term"
)

// NewLogger builds the application logger from configuration.
func NewLogger(cfg config.Log) *slog.Logger {
	return logging.New(logging.ParseLevel(cfg.Level), logging.Format(cfg.Format))
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// NewRenderer picks a styled renderer sized to the terminal behind f, or a
// plain one when f is not a terminal.
func NewRenderer(f *os.File) (*tui.Renderer, error) {
	if !IsTerminal(f) {
		return tui.NewPlainRenderer()
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		width = 0
	}
	return tui.NewRenderer(width)
}
