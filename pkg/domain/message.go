package domain

// Role tags a message in a transcript.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single role-tagged entry fed to the completion service.
type Message struct {
	Role    Role           `json:"role"`
	Content string         `json:"content"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// System builds a system message.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User builds a user message.
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// Assistant builds an assistant message.
func Assistant(content string) Message { return Message{Role: RoleAssistant, Content: content} }

// GenOptions are the generation parameters of a single completion.
type GenOptions struct {
	MaxNewTokens int
	Temperature  float32
	// Sample disables greedy decoding. Routing and extraction run with Sample=false.
	Sample bool
}
