package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/capstone-ai/dna/pkg/domain"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// Renderer formats assistant responses for the terminal.
type Renderer struct {
	md      *glamour.TermRenderer
	profile termenv.Profile
}

// NewRenderer returns a renderer wrapping markdown at width columns. Width
// <= 0 keeps glamour's default.
func NewRenderer(width int) (*Renderer, error) {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	md, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, fmt.Errorf("init markdown renderer: %w", err)
	}
	return &Renderer{md: md, profile: termenv.ColorProfile()}, nil
}

// NewPlainRenderer renders without styles, for pipes and tests.
func NewPlainRenderer() (*Renderer, error) {
	md, err := glamour.NewTermRenderer(glamour.WithStandardStyle("notty"))
	if err != nil {
		return nil, fmt.Errorf("init markdown renderer: %w", err)
	}
	return &Renderer{md: md, profile: termenv.Ascii}, nil
}

// Markdown renders s, returning it unchanged if rendering fails.
func (r *Renderer) Markdown(s string) string {
	out, err := r.md.Render(s)
	if err != nil {
		return s
	}
	return out
}

// Response formats one turn: a route tag followed by the body.
func (r *Renderer) Response(resp domain.ChatResponse) string {
	var b strings.Builder
	b.WriteString(r.tag(resp.Route))
	b.WriteString("\n")
	b.WriteString(r.Markdown(Body(resp)))
	return b.String()
}

func (r *Renderer) tag(route string) string {
	color := "#a3e635"
	switch route {
	case domain.RouteChat:
		color = "#60a5fa"
	case domain.RouteClarify:
		color = "#fbbf24"
	}
	return termenv.String("[" + route + "]").Foreground(r.profile.Color(color)).Bold().String()
}

// Body is the markdown text of a response.
func Body(resp domain.ChatResponse) string {
	switch out := resp.Output.(type) {
	case string:
		if len(resp.Missing) > 0 {
			return out + "\n\n필요한 값: `" + strings.Join(resp.Missing, "`, `") + "`"
		}
		return out
	case domain.Result:
		return resultBody(out)
	case map[string]any:
		return resultBody(domain.Result(out))
	case nil:
		return ""
	default:
		return fmt.Sprint(out)
	}
}

func resultBody(res domain.Result) string {
	var b strings.Builder
	if answer, ok := res[domain.KeyAnswer].(string); ok && answer != "" {
		b.WriteString(answer)
	} else {
		fmt.Fprintf(&b, "**%s** 실행 결과", res.Tool())
	}
	if res.Failed() {
		fmt.Fprintf(&b, "\n\n> 오류: %v", errorText(res))
	}

	details := make(map[string]any, len(res))
	for k, v := range res {
		if k != domain.KeyAnswer {
			details[k] = v
		}
	}
	if raw, err := json.MarshalIndent(details, "", "  "); err == nil {
		b.WriteString("\n\n```json\n")
		b.Write(raw)
		b.WriteString("\n```")
	}
	return b.String()
}

func errorText(res domain.Result) any {
	if v, ok := res[domain.KeyError]; ok && v != nil {
		return v
	}
	if status, ok := res.HTTPStatus(); ok {
		return fmt.Sprintf("HTTP %d", status)
	}
	return "unknown"
}
