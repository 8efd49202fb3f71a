package ports

import (
	"context"

	"github.com/capstone-ai/dna/pkg/domain"
)

// Completer is the language-model completion service: given role-tagged
// messages and generation parameters, it produces text.
type Completer interface {
	Complete(ctx context.Context, messages []domain.Message, opts domain.GenOptions) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, messages []domain.Message, opts domain.GenOptions) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, messages []domain.Message, opts domain.GenOptions) (string, error) {
	return f(ctx, messages, opts)
}
