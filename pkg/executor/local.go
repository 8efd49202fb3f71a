package executor

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/capstone-ai/dna/pkg/domain"
)

// LocalFunc is an in-process tool implementation. The returned fields are
// merged into the Result next to "tool".
type LocalFunc func(ctx context.Context, params map[string]any) (map[string]any, error)

// Local is the registry of in-process functions.
type Local struct {
	mu    sync.RWMutex
	funcs map[string]LocalFunc
}

// NewLocal creates an empty registry.
func NewLocal() *Local {
	return &Local{funcs: make(map[string]LocalFunc)}
}

// Register adds a function. An existing function with the same name is
// overwritten.
func (l *Local) Register(name string, fn LocalFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.funcs[name] = fn
}

// Names lists the registered functions.
func (l *Local) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.funcs))
	for name := range l.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs spec.Name, or toolName when the spec names no function.
// Unknown names and function errors become error records.
func (l *Local) Execute(ctx context.Context, toolName string, params map[string]any, spec domain.ExecSpec) domain.Result {
	name := spec.Name
	if name == "" {
		name = toolName
	}

	l.mu.RLock()
	fn, ok := l.funcs[name]
	l.mu.RUnlock()
	if !ok {
		return domain.ErrorResult(toolName, fmt.Sprintf("Unknown local fn: %s", name))
	}

	fields, err := fn(ctx, params)
	if err != nil {
		return domain.ErrorResult(toolName, err.Error())
	}
	res := domain.NewResult(toolName)
	for k, v := range fields {
		if k == domain.KeyTool {
			continue
		}
		res[k] = v
	}
	return res
}
