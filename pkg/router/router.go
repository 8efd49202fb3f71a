// Package router classifies an utterance into a tool name or the no-tool
// sentinel.
package router

import (
	"context"
	"log/slog"
	"regexp"
	"time"

	"github.com/capstone-ai/dna/internal/logging"
	"github.com/capstone-ai/dna/pkg/catalog"
	"github.com/capstone-ai/dna/pkg/domain"
	"github.com/capstone-ai/dna/pkg/ports"
	"github.com/capstone-ai/dna/pkg/prompts"
)

// Options are the generation parameters of routing: a short, greedy
// completion.
var Options = domain.GenOptions{MaxNewTokens: 8, Temperature: 0, Sample: false}

var nonToken = regexp.MustCompile(`[^A-Za-z0-9_]`)

// Router asks the model for a single routing token.
type Router struct {
	completer ports.Completer
	catalog   *catalog.Catalog
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// WithClock sets the clock used for the "Today Date" line.
func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

// New creates a Router over the tools of c.
func New(completer ports.Completer, c *catalog.Catalog, opts ...Option) *Router {
	r := &Router{completer: completer, catalog: c, logger: logging.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Decide returns a tool name or domain.RouteNoTool. It fails open: any
// completion error or unusable output routes to chat. The returned token is
// not checked against the catalog.
func (r *Router) Decide(ctx context.Context, utterance string, cc domain.ConversationContext) string {
	msgs := prompts.Router(r.catalog.List(), cc.Map(), utterance, r.now().Format(time.DateOnly))
	out, err := r.completer.Complete(ctx, msgs, Options)
	if err != nil {
		r.logger.Warn("routing failed, falling back to chat", "err", err)
		return domain.RouteNoTool
	}
	token := Sanitize(out)
	r.logger.Debug("routed", "raw", logging.Truncate(out, 64), "route", token)
	return token
}

// Sanitize strips everything outside [A-Za-z0-9_]. An empty result becomes
// the no-tool sentinel.
func Sanitize(raw string) string {
	token := nonToken.ReplaceAllString(raw, "")
	if token == "" {
		return domain.RouteNoTool
	}
	return token
}
