// Package answer turns execution results into a user-facing sentence.
// Every sentence, templated or generated, passes through Sanitize.
package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/capstone-ai/dna/internal/logging"
	"github.com/capstone-ai/dna/pkg/catalog"
	"github.com/capstone-ai/dna/pkg/domain"
	"github.com/capstone-ai/dna/pkg/ports"
	"github.com/capstone-ai/dna/pkg/prompts"
)

// Options are the generation parameters of the generated fallback sentence.
var Options = domain.GenOptions{MaxNewTokens: 60, Temperature: 0.4, Sample: true}

// Fallback replaces generated sentences that are empty or implausibly short.
const Fallback = "요청하신 작업을 처리했습니다."

// identifierKeys are stripped from the parameters shown to the model,
// matched on the lowercased key without underscores.
var identifierKeys = map[string]bool{"projectid": true, "chatroomid": true, "userid": true, "token": true}

func isIdentifierKey(k string) bool {
	return identifierKeys[strings.ReplaceAll(strings.ToLower(k), "_", "")]
}

// Template renders a deterministic sentence for one tool.
type Template func(params map[string]any, result domain.Result) string

// Synthesizer composes answers from templates, falling back to the model.
type Synthesizer struct {
	completer ports.Completer
	templates map[string]Template
	logger    *slog.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithTemplate registers or replaces the template of a tool.
func WithTemplate(tool string, t Template) Option {
	return func(s *Synthesizer) { s.templates[tool] = t }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Synthesizer) { s.logger = l }
}

// New creates a Synthesizer with the business tool templates.
func New(c ports.Completer, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		completer: c,
		templates: map[string]Template{
			catalog.ToolTodoCreate:    todoCreate,
			catalog.ToolChangeRole:    changeRole,
			catalog.ToolMeetingCreate: meetingCreate,
		},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Compose returns one sanitized sentence describing result. The leading
// system message of history, when present, frames the generated fallback.
// A completion failure is returned as an error.
func (s *Synthesizer) Compose(ctx context.Context, history []domain.Message, tool string, params map[string]any, result domain.Result) (string, error) {
	if t, ok := s.templates[tool]; ok {
		return Sanitize(t(params, result)), nil
	}

	safe := make(map[string]any, len(params))
	for k, v := range params {
		if !isIdentifierKey(k) {
			safe[k] = v
		}
	}
	var status any = "unknown"
	if code, ok := result.HTTPStatus(); ok {
		status = code
	}

	msgs := prompts.Answer(tool, safe, status)
	if len(history) > 0 && history[0].Role == domain.RoleSystem {
		msgs = append([]domain.Message{history[0]}, msgs...)
	}
	out, err := s.completer.Complete(ctx, msgs, Options)
	if err != nil {
		return "", fmt.Errorf("failed to compose answer for %s: %w", tool, err)
	}
	out = strings.TrimSpace(out)
	if utf8.RuneCountInString(out) < 3 {
		s.logger.Debug("generated answer too short, using fallback", "tool", tool)
		out = Fallback
	}
	return Sanitize(out), nil
}

func todoCreate(p map[string]any, r domain.Result) string {
	name := firstString(p, "새 작업", "todoName")
	if r.Failed() {
		return fmt.Sprintf("‘%s’ 작업 생성에 실패했습니다. 서버 응답을 확인해 다시 시도해 주시기 바랍니다.", name)
	}
	if day, ok := koreanDate(p["startDate"]); ok {
		return fmt.Sprintf("‘%s’라는 이름의 새로운 작업이 %s에 작업 생성이 성공적으로 완료되었습니다.", name, day)
	}
	return fmt.Sprintf("‘%s’라는 이름의 새로운 작업 생성이 성공적으로 완료되었습니다.", name)
}

func changeRole(p map[string]any, r domain.Result) string {
	user := firstString(p, "해당 팀원", "userName", "memberName")
	role := firstString(p, "해당 역할", "roleName", "roleIds")
	if r.Failed() {
		return fmt.Sprintf("‘%s’님의 역할을 ‘%s’로 변경하는 과정에서 오류가 발생했습니다. 확인 후 다시 시도해 주시기 바랍니다.", user, role)
	}
	return fmt.Sprintf("‘%s’님의 역할을 ‘%s’로 변경이 성공적으로 완료되었습니다.", user, role)
}

func meetingCreate(p map[string]any, r domain.Result) string {
	if r.Failed() {
		return "회의록 저장 과정에서 오류가 발생했습니다. 시간 범위와 채팅방 정보를 확인해 주시기 바랍니다."
	}
	title := ""
	if summary, ok := r["summary"].(map[string]any); ok {
		title, _ = summary["title"].(string)
	}
	if title == "" {
		title = firstString(p, "회의록", "title")
	}
	return fmt.Sprintf("‘%s’ 회의록이 저장되었습니다.", title)
}

func firstString(p map[string]any, fallback string, keys ...string) string {
	for _, k := range keys {
		switch v := p[k].(type) {
		case nil:
		case string:
			if v != "" {
				return v
			}
		default:
			return fmt.Sprint(v)
		}
	}
	return fallback
}

// koreanDate formats the date part of an ISO value as "2023년 5월 24일".
func koreanDate(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	datePart, _, _ := strings.Cut(s, "T")
	var y, m, d int
	if n, err := fmt.Sscanf(datePart, "%d-%d-%d", &y, &m, &d); err != nil || n != 3 {
		return "", false
	}
	return fmt.Sprintf("%d년 %d월 %d일", y, m, d), true
}
