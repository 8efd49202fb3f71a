package domain

import (
	"context"
	"time"
)

// RouteEvent reports the routing decision of a turn.
type RouteEvent struct {
	Timestamp      time.Time `json:"timestamp"`
	ConversationID string    `json:"conversation_id"`
	Mode           Mode      `json:"mode"`
	Route          string    `json:"route"`
}

// ClarifyEvent reports a clarification question being asked.
type ClarifyEvent struct {
	Timestamp      time.Time `json:"timestamp"`
	ConversationID string    `json:"conversation_id"`
	ToolName       string    `json:"tool_name"`
	Missing        []string  `json:"missing"`
	Turn           int       `json:"turn"`
}

// ToolEvent represents a tool execution.
type ToolEvent struct {
	Timestamp      time.Time     `json:"timestamp"`
	ConversationID string        `json:"conversation_id"`
	ToolName       string        `json:"tool_name"`
	Backend        string        `json:"backend"`
	Input          any           `json:"input,omitempty"`
	Output         any           `json:"output,omitempty"`
	IsError        bool          `json:"is_error,omitempty"`
	Duration       time.Duration `json:"duration,omitempty"`
}

// LifecycleHooks defines callbacks for orchestrator observability.
type LifecycleHooks struct {
	OnRoute      func(context.Context, *RouteEvent)
	OnClarify    func(context.Context, *ClarifyEvent)
	OnToolCall   func(context.Context, *ToolEvent)
	OnToolReturn func(context.Context, *ToolEvent)
}

// Merge combines hooks so that both run, h first.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnRoute:      chain(h.OnRoute, other.OnRoute),
		OnClarify:    chain(h.OnClarify, other.OnClarify),
		OnToolCall:   chain(h.OnToolCall, other.OnToolCall),
		OnToolReturn: chain(h.OnToolReturn, other.OnToolReturn),
	}
}

func chain[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *E) {
		a(ctx, e)
		b(ctx, e)
	}
}
