package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandler_RenamesErrorKey(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatText, "err=boom"},
		{FormatJSON, `"err":"boom"`},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(newHandler(&buf, slog.LevelInfo, tt.format))
			logger.Info("failed", "error", errors.New("boom"))
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 4))
	assert.Equal(t, "ab...", Truncate("abcd", 2))
}
