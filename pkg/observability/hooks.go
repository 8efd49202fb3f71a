package observability

import (
	"context"
	"log/slog"

	"github.com/capstone-ai/dna/pkg/domain"
)

// LogHooks returns lifecycle hooks that log every event at debug level,
// tool failures at warn.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRoute: func(ctx context.Context, e *domain.RouteEvent) {
			logger.DebugContext(ctx, "route",
				"conversation_id", e.ConversationID,
				"mode", e.Mode,
				"route", e.Route,
			)
		},
		OnClarify: func(ctx context.Context, e *domain.ClarifyEvent) {
			logger.DebugContext(ctx, "clarify",
				"conversation_id", e.ConversationID,
				"tool_name", e.ToolName,
				"missing", e.Missing,
				"turn", e.Turn,
			)
		},
		OnToolCall: func(ctx context.Context, e *domain.ToolEvent) {
			logger.DebugContext(ctx, "tool_call",
				"conversation_id", e.ConversationID,
				"tool_name", e.ToolName,
				"backend", e.Backend,
			)
		},
		OnToolReturn: func(ctx context.Context, e *domain.ToolEvent) {
			level := slog.LevelDebug
			if e.IsError {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "tool_return",
				"conversation_id", e.ConversationID,
				"tool_name", e.ToolName,
				"backend", e.Backend,
				"is_error", e.IsError,
				"duration", e.Duration,
			)
		},
	}
}
