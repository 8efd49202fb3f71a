package params

import (
	"context"
	"log/slog"
	"time"

	"github.com/capstone-ai/dna/internal/logging"
	"github.com/capstone-ai/dna/pkg/domain"
	"github.com/capstone-ai/dna/pkg/ports"
	"github.com/capstone-ai/dna/pkg/prompts"
)

// ExtractionOptions are the generation parameters of parameter extraction.
var ExtractionOptions = domain.GenOptions{MaxNewTokens: 256, Temperature: 0.2}

// Extractor asks the model for a tool's parameters.
type Extractor struct {
	completer ports.Completer
	logger    *slog.Logger
	now       func() time.Time
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ExtractorOption {
	return func(e *Extractor) { e.logger = l }
}

// WithClock sets the clock used for the "Today Date" line.
func WithClock(now func() time.Time) ExtractorOption {
	return func(e *Extractor) { e.now = now }
}

// NewExtractor creates an Extractor backed by c.
func NewExtractor(c ports.Completer, opts ...ExtractorOption) *Extractor {
	e := &Extractor{completer: c, logger: logging.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the parameters the model found in utterance. collected is
// passed back as a hint on clarification turns. A completion failure or
// malformed output yields an empty map so the caller falls through to the
// missing-fields path.
func (e *Extractor) Extract(ctx context.Context, schema domain.ToolSchema, cc domain.ConversationContext, collected map[string]any, utterance string) map[string]any {
	hint := ""
	if len(collected) > 0 {
		hint = prompts.CollectedHint(collected)
	}
	msgs := prompts.Extraction(schema, cc.Map(), hint, utterance, e.now().Format(time.DateOnly))

	raw, err := e.completer.Complete(ctx, msgs, ExtractionOptions)
	if err != nil {
		e.logger.Warn("parameter extraction failed", "tool", schema.Name, "err", err)
		return map[string]any{}
	}
	p := ParseObject(raw)
	e.logger.Debug("parameters extracted", "tool", schema.Name, "keys", len(p))
	return p
}
