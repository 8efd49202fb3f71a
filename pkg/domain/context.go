package domain

import "strconv"

// ConversationContext carries the ambient identifiers of a request. It is
// rebuilt from the inbound request on every turn and never persisted.
type ConversationContext struct {
	ConversationID string
	ProjectID      string
	ChatRoomID     string
	Env            string
	// ToolOverride is the reserved "_tool" field read by tool_equals predicates.
	ToolOverride string
}

// Map returns the fields exposed to prompts and context bindings. Numeric
// identifiers are emitted as integers.
func (c ConversationContext) Map() map[string]any {
	out := map[string]any{}
	if c.ProjectID != "" {
		out["projectId"] = numericOrString(c.ProjectID)
	}
	if c.ChatRoomID != "" {
		out["chatRoomId"] = numericOrString(c.ChatRoomID)
	}
	return out
}

// Lookup resolves a context key by its prompt name.
func (c ConversationContext) Lookup(key string) (any, bool) {
	v, ok := c.Map()[key]
	return v, ok
}

func numericOrString(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return s
}
