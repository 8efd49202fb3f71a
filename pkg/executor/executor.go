// Package executor runs resolved execution specs. Composite selects the
// backend by spec kind.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/capstone-ai/dna/internal/logging"
	"github.com/capstone-ai/dna/pkg/domain"
)

// DefaultTimeout bounds every outbound call whose spec has no timeout.
const DefaultTimeout = 30 * time.Second

// Composite implements ports.Executor over the three backends.
type Composite struct {
	local  *Local
	http   *HTTP
	remote *Remote
	logger *slog.Logger
}

// Option configures a Composite.
type Option func(*Composite)

// WithLocal replaces the local function registry.
func WithLocal(l *Local) Option {
	return func(c *Composite) { c.local = l }
}

// WithHTTP replaces the HTTP backend.
func WithHTTP(h *HTTP) Option {
	return func(c *Composite) { c.http = h }
}

// WithRemote enables remote calls. Without it remote-call specs produce an
// error record.
func WithRemote(r *Remote) Option {
	return func(c *Composite) { c.remote = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Composite) { c.logger = l }
}

// NewComposite creates a Composite with the built-in local functions and a
// default HTTP backend.
func NewComposite(opts ...Option) *Composite {
	c := &Composite{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	if c.local == nil {
		c.local = NewBuiltinLocal()
	}
	if c.http == nil {
		c.http = NewHTTP(WithHTTPLogger(c.logger))
	}
	return c
}

// Execute dispatches on spec.Kind. Only remote-call envelope errors are
// returned as Go errors; everything else is captured in the Result.
func (c *Composite) Execute(ctx context.Context, toolName string, params map[string]any, spec domain.ExecSpec) (domain.Result, error) {
	switch spec.Kind {
	case domain.ExecLocal, "":
		return c.local.Execute(ctx, toolName, params, spec), nil
	case domain.ExecHTTP:
		return c.http.Execute(ctx, toolName, params, spec), nil
	case domain.ExecRemote:
		if c.remote == nil {
			return domain.ErrorResult(toolName, "remote-call client not configured"), nil
		}
		return c.remote.Execute(ctx, toolName, params, spec)
	}
	return domain.ErrorResult(toolName, fmt.Sprintf("Unknown exec type: %s", spec.Kind)), nil
}
