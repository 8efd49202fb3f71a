package domain

import "strings"

// ContextBlockPrefix marks the system message holding the serialized context.
const ContextBlockPrefix = "[CONTEXT"

// Transcript is the conversation memory of one conversation. Chat is the
// general transcript fed back to the model; Tool holds only clarify
// round-trips so tool back-and-forth stays out of the conversational context.
//
// Chat always begins with a system message. When present, the context block
// sits at index 1 and is overwritten in place.
type Transcript struct {
	Chat []Message `json:"chat"`
	Tool []Message `json:"tool,omitempty"`
}

// NewTranscript starts a transcript with the given system prompt.
func NewTranscript(systemPrompt string) *Transcript {
	return &Transcript{Chat: []Message{System(systemPrompt)}}
}

// SetSystem replaces the leading system message, inserting one if missing.
func (t *Transcript) SetSystem(prompt string) {
	if len(t.Chat) > 0 && t.Chat[0].Role == RoleSystem {
		t.Chat[0].Content = prompt
		return
	}
	t.Chat = append([]Message{System(prompt)}, t.Chat...)
}

// SetContext keeps block at index 1, replacing an existing context block.
func (t *Transcript) SetContext(block string) {
	if len(t.Chat) == 0 || t.Chat[0].Role != RoleSystem {
		t.SetSystem("")
	}
	if t.hasContext() {
		t.Chat[1].Content = block
		return
	}
	t.Chat = append(t.Chat[:1], append([]Message{System(block)}, t.Chat[1:]...)...)
}

func (t *Transcript) hasContext() bool {
	return len(t.Chat) >= 2 &&
		t.Chat[1].Role == RoleSystem &&
		strings.HasPrefix(t.Chat[1].Content, ContextBlockPrefix)
}

// AppendChat adds messages to the chat track.
func (t *Transcript) AppendChat(msgs ...Message) {
	t.Chat = append(t.Chat, msgs...)
}

// AppendTool adds a message to the clarify track.
func (t *Transcript) AppendTool(msg Message) {
	t.Tool = append(t.Tool, msg)
}

// ClearTool drops the clarify track.
func (t *Transcript) ClearTool() {
	t.Tool = nil
}

// History returns a copy of the chat track.
func (t *Transcript) History() []Message {
	out := make([]Message, len(t.Chat))
	copy(out, t.Chat)
	return out
}

// Trim drops the oldest non-header chat messages so that at most max
// messages follow the system and context header. max <= 0 disables trimming.
func (t *Transcript) Trim(max int) {
	if max <= 0 {
		return
	}
	header := 1
	if t.hasContext() {
		header = 2
	}
	if len(t.Chat) < header {
		return
	}
	body := t.Chat[header:]
	if len(body) <= max {
		return
	}
	kept := make([]Message, 0, header+max)
	kept = append(kept, t.Chat[:header]...)
	kept = append(kept, body[len(body)-max:]...)
	t.Chat = kept
}
