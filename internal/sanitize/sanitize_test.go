package sanitize

import (
	"strings"
	"testing"

	"github.com/capstone-ai/dna/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestInput_SizeLimit(t *testing.T) {
	limit := DefaultMaxInputSize

	tests := []struct {
		name      string
		inputSize int
		wantErr   bool
	}{
		{"Under Limit", limit - 1, false},
		{"Exact Limit", limit, false},
		{"Over Limit", limit + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Input(strings.Repeat("a", tt.inputSize), 0)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInputTooLarge)
				assert.ErrorIs(t, err, domain.ErrInputRejected)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInput_ExplicitLimitCountsBytes(t *testing.T) {
	// Three Hangul syllables are nine bytes.
	_, err := Input("회의록", 8)
	assert.ErrorIs(t, err, ErrInputTooLarge)

	got, err := Input("회의록", 9)
	assert.NoError(t, err)
	assert.Equal(t, "회의록", got)
}

func TestInput_ControlChars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal Text", "오늘 회의 잡아줘", "오늘 회의 잡아줘"},
		{"Safe Controls", "Line1\nLine2\tTabbed\r", "Line1\nLine2\tTabbed\r"},
		{"ANSI Code", "\x1b[31mRed\x1b[0m", "[31mRed[0m"},
		{"Null Byte", "Null\x00Byte", "NullByte"},
		{"Bell", "Ding\x07", "Ding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Input(tt.input, 0)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestInput_EnvOverride(t *testing.T) {
	t.Setenv(EnvMaxInputSize, "10")

	_, err := Input("12345678901", 0)
	assert.Error(t, err, "Expected error for input > 10 when env var is set")

	_, err = Input("12345", 0)
	assert.NoError(t, err)
}

func TestInput_InvalidUTF8(t *testing.T) {
	_, err := Input("\xbd\xb2\x3d\xbc\x20\xe2\x8c\x98", 0)
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}
