package testutils

import (
	"context"
	"strings"
	"sync"

	"github.com/capstone-ai/dna/pkg/domain"
)

// Token budgets used by the completion call sites, so a scripted completer
// can tell the calls apart.
const (
	RouteTokens   = 8
	ExtractTokens = 256
	ChatTokens    = 512
	SummaryTokens = 800
	AnswerTokens  = 60
)

// Call is one recorded completion request.
type Call struct {
	Messages []domain.Message
	Opts     domain.GenOptions
}

// ScriptedCompleter answers each kind of completion from a script. Route and
// Extract are consumed in order and the last entry repeats.
type ScriptedCompleter struct {
	Route   []string
	Extract []string
	Chat    string
	Summary string
	Answer  string
	// Errs fails calls with the given token budget.
	Errs map[int]error

	mu    sync.Mutex
	calls []Call
}

// Complete implements ports.Completer.
func (s *ScriptedCompleter) Complete(_ context.Context, msgs []domain.Message, opts domain.GenOptions) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]domain.Message, len(msgs))
	copy(cp, msgs)
	s.calls = append(s.calls, Call{Messages: cp, Opts: opts})

	if err, ok := s.Errs[opts.MaxNewTokens]; ok {
		return "", err
	}
	switch opts.MaxNewTokens {
	case RouteTokens:
		return pop(&s.Route, domain.RouteNoTool), nil
	case ExtractTokens:
		return pop(&s.Extract, "{}"), nil
	case SummaryTokens:
		return s.Summary, nil
	case AnswerTokens:
		return s.Answer, nil
	}
	return s.Chat, nil
}

func pop(queue *[]string, fallback string) string {
	q := *queue
	switch len(q) {
	case 0:
		return fallback
	case 1:
		return q[0]
	}
	*queue = q[1:]
	return q[0]
}

// Calls returns the recorded requests.
func (s *ScriptedCompleter) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallsWith returns the recorded requests with the given token budget.
func (s *ScriptedCompleter) CallsWith(tokens int) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Opts.MaxNewTokens == tokens {
			out = append(out, c)
		}
	}
	return out
}

// SystemText joins the system messages of a call.
func (c Call) SystemText() string {
	var parts []string
	for _, m := range c.Messages {
		if m.Role == domain.RoleSystem {
			parts = append(parts, m.Content)
		}
	}
	return strings.Join(parts, "\n")
}
