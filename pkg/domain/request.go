package domain

// Mode selects how an utterance is handled.
type Mode string

const (
	ModeAuto Mode = "auto"
	ModeChat Mode = "chat"
	ModeTool Mode = "tool"
)

// ParseMode normalizes an inbound mode. "mcp" is the legacy alias of tool;
// anything unrecognized is auto.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeChat, ModeTool:
		return Mode(s)
	case "mcp":
		return ModeTool
	}
	return ModeAuto
}

// Route labels of a response. Tool executions are labelled with their
// backend kind (local, http, remote-call).
const (
	RouteChat    = "chat"
	RouteClarify = "clarify"
	// RouteNoTool is the router sentinel meaning "answer conversationally".
	RouteNoTool = "CHAT"
)

// ChatRequest is one inbound turn.
type ChatRequest struct {
	ConversationID string `json:"conversationId"`
	UserInput      string `json:"userInput"`
	Mode           string `json:"mode,omitempty"`
	// ProjectID defaults to ConversationID.
	ProjectID    string `json:"projectId,omitempty"`
	ChatRoomID   string `json:"chatRoomId,omitempty"`
	SystemPrompt string `json:"systemPromptOverride,omitempty"`
}

// ChatResponse is the outcome of one turn. Missing is only set for clarify.
type ChatResponse struct {
	ConversationID string   `json:"conversationId"`
	Route          string   `json:"route"`
	Output         any      `json:"output"`
	Missing        []string `json:"missing,omitempty"`
}
