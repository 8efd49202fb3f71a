package domain

import "time"

// PendingClarification is the tool invocation waiting for missing
// parameters. At most one exists per conversation.
type PendingClarification struct {
	ToolName  string         `json:"tool_name"`
	Schema    ToolSchema     `json:"schema"`
	Required  []string       `json:"required"`
	Collected map[string]any `json:"collected"`
	Missing   []string       `json:"missing,omitempty"`
	Turns     int            `json:"turns"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
