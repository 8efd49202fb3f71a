// Package prompts builds the model instructions used by the orchestrator.
// Every builder is a pure function returning an ordered list of messages.
package prompts

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/capstone-ai/dna/pkg/domain"
)

// DefaultSystem is the system prompt a new conversation starts with.
const DefaultSystem = "당신은 소프트웨어 프로젝트 팀을 돕는 한국어 비서입니다. " +
	"존댓말로 정확하고 간결하게 답합니다. " +
	"모르는 내용은 추측하지 말고 모른다고 말합니다. " +
	"내부 식별자(projectId, chatRoomId, userId 등)는 사용자에게 언급하지 않습니다."

// ContextNotice follows the context header.
const ContextNotice = "※ 이 정보는 내부용입니다. 사용자 응답에 공개/언급 금지 (IDs: projectId, chatRoomId 등)."

// contextOrder lists well-known keys first; the rest follow alphabetically.
var contextOrder = []string{"projectId", "chatRoomId"}

// FormatContext serializes a context map into the private context block.
func FormatContext(ctx map[string]any) string {
	lines := []string{domain.ContextBlockPrefix + " - PRIVATE]", ContextNotice}
	for _, k := range orderedKeys(ctx) {
		lines = append(lines, fmt.Sprintf("%s: %v", k, ctx[k]))
	}
	return strings.Join(lines, "\n")
}

func orderedKeys(m map[string]any) []string {
	seen := make(map[string]bool, len(m))
	keys := make([]string, 0, len(m))
	for _, k := range contextOrder {
		if _, ok := m[k]; ok {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	rest := make([]string, 0, len(m))
	for k := range m {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// Router builds the single-token routing instruction.
func Router(tools []domain.ToolSchema, ctx map[string]any, utterance, today string) []domain.Message {
	lines := []string{
		"Environment: ipython",
		"Today Date: " + today,
		"",
		"You can access tools via the tool server.",
		"Decide routing for the user request.",
		"",
		"Output EXACTLY ONE token:",
		"• If the request requires a tool, output the BEST tool NAME from the catalog below.",
		"• Otherwise, output: " + domain.RouteNoTool,
		"",
		"ABSOLUTE RULES:",
		"• No explanations. No punctuation. No quotes.",
		"• Must match regex: ^(" + domain.RouteNoTool + "|[A-Za-z0-9_]+)$",
		"",
		"TOOLS CATALOG:",
	}
	for _, t := range tools {
		lines = append(lines, fmt.Sprintf("- %s: %s", t.Name, t.Description))
	}

	msgs := []domain.Message{domain.System(strings.Join(lines, "\n"))}
	if len(ctx) > 0 {
		msgs = append(msgs, domain.System(FormatContext(ctx)))
	}
	return append(msgs, domain.User(utterance))
}

// Extraction builds the JSON-only parameter extraction instruction for a
// tool. hint is prepended when resuming a clarification.
func Extraction(schema domain.ToolSchema, ctx map[string]any, hint, utterance, today string) []domain.Message {
	var b strings.Builder
	if len(ctx) > 0 {
		b.WriteString(FormatContext(ctx))
		b.WriteString("\n\n")
	}
	if hint != "" {
		b.WriteString(hint)
		b.WriteString("\n\n")
	}
	b.WriteString("You are an AI assistant specialised in tool usage.\n")
	b.WriteString(`Return only one JSON object that starts with "{" and ends with "}".` + "\n")
	b.WriteString(`No extra text or comments after the final "}".` + "\n")
	b.WriteString("Use ASCII double quotes for all keys and values.\n")
	b.WriteString("Today Date: " + today + "\n")
	b.WriteString("SCHEMA:\n")
	b.WriteString(SchemaJSON(schema))

	return []domain.Message{domain.System(b.String()), domain.User(utterance)}
}

// CollectedHint tells the model which parameters were already gathered.
func CollectedHint(collected map[string]any) string {
	return "You previously asked for missing parameters. " +
		"Here are collected params so far: " + compactJSON(collected) + ". " +
		"Merge the user's new info and return the full parameters object."
}

type schemaProperty struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Default     any    `json:"default,omitempty"`
}

type schemaParameters struct {
	Type       string                    `json:"type,omitempty"`
	Required   []string                  `json:"required"`
	Properties map[string]schemaProperty `json:"properties"`
}

// SchemaJSON renders the parameter block shown to the model. Binding and
// example metadata stay out of the prompt.
func SchemaJSON(schema domain.ToolSchema) string {
	p := schemaParameters{
		Type:       schema.Parameters.Type,
		Required:   schema.Parameters.Required,
		Properties: make(map[string]schemaProperty, len(schema.Parameters.Properties)),
	}
	if p.Required == nil {
		p.Required = []string{}
	}
	for name, prop := range schema.Parameters.Properties {
		p.Properties[name] = schemaProperty{Type: prop.Type, Description: prop.Description, Default: prop.Default}
	}
	return compactJSON(p)
}

func compactJSON(v any) string {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("%v", v)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
