package ports

import (
	"context"

	"github.com/capstone-ai/dna/pkg/domain"
)

// Executor runs a resolved execution spec.
// Backend and transport failures are returned as data inside the Result.
// A non-nil error is reserved for failures the caller must treat as fatal.
type Executor interface {
	Execute(ctx context.Context, toolName string, params map[string]any, spec domain.ExecSpec) (domain.Result, error)
}

// Dispatcher resolves a tool invocation into an execution spec.
type Dispatcher interface {
	Resolve(tool string, params map[string]any, cc domain.ConversationContext) (domain.ExecSpec, error)
}
