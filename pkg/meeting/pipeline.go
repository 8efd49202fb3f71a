// Package meeting implements the minutes pipeline: infer the time range,
// fetch the chat log, summarize it and save the summary.
package meeting

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/capstone-ai/dna/internal/logging"
	"github.com/capstone-ai/dna/pkg/catalog"
	"github.com/capstone-ai/dna/pkg/dispatch"
	"github.com/capstone-ai/dna/pkg/domain"
	"github.com/capstone-ai/dna/pkg/params"
	"github.com/capstone-ai/dna/pkg/ports"
	"github.com/capstone-ai/dna/pkg/prompts"
)

// MaxTranscriptChars bounds the transcript embedded in the prompt. Longer
// transcripts keep their most recent part.
const MaxTranscriptChars = 12000

// SummaryOptions are the generation parameters of summarization.
var SummaryOptions = domain.GenOptions{MaxNewTokens: 800, Temperature: 0.2, Sample: true}

// Result keys of a pipeline run.
const (
	KeyFetch   = "fetch"
	KeySummary = "summary"
	KeySave    = "save"
)

// Pipeline steps reported in "step".
const (
	StepFetch     = "fetch"
	StepSummarize = "summarize"
	StepSave      = "save"
)

var requiredKeys = []string{"projectId", "chatRoomId", "startTime", "endTime"}

// Pipeline chains two backend calls around one summarization completion.
type Pipeline struct {
	dispatcher ports.Dispatcher
	executor   ports.Executor
	completer  ports.Completer
	times      ports.TimeRangeParser
	maxChars   int
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithMaxChars overrides MaxTranscriptChars.
func WithMaxChars(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxChars = n
		}
	}
}

// New creates a Pipeline.
func New(d ports.Dispatcher, e ports.Executor, c ports.Completer, times ports.TimeRangeParser, opts ...Option) *Pipeline {
	p := &Pipeline{
		dispatcher: d,
		executor:   e,
		completer:  c,
		times:      times,
		maxChars:   MaxTranscriptChars,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// InferTimes fills startTime/endTime from the utterance when either is
// missing: first as an hour range, then as a full day.
func (p *Pipeline) InferTimes(in map[string]any, utterance string) map[string]any {
	out := params.Clone(in)
	if !params.IsEmpty(out["startTime"]) && !params.IsEmpty(out["endTime"]) {
		return out
	}
	if start, end, ok := p.times.ParseRange(utterance); ok {
		out["startTime"], out["endTime"] = start, end
		return out
	}
	if start, end, ok := p.times.ParseDateOnly(utterance); ok {
		if params.IsEmpty(out["startTime"]) {
			out["startTime"] = start
		}
		if params.IsEmpty(out["endTime"]) {
			out["endTime"] = end
		}
	}
	return out
}

// Prepare runs time inference on parameters before validation.
func (p *Pipeline) Prepare(in map[string]any, utterance string) map[string]any {
	return p.InferTimes(in, utterance)
}

// Run executes the pipeline. Missing fields and backend failures come back
// as records; an error is returned only for dispatch misconfiguration and
// remote-call failures.
func (p *Pipeline) Run(ctx context.Context, in map[string]any, utterance string, cc domain.ConversationContext) (domain.Result, error) {
	const tool = catalog.ToolMeetingCreate

	pr := p.InferTimes(in, utterance)
	for _, k := range requiredKeys {
		if params.IsEmpty(pr[k]) {
			return domain.ErrorResult(tool, "missing "+k), nil
		}
	}
	start, end := fmt.Sprint(pr["startTime"]), fmt.Sprint(pr["endTime"])

	fetched, err := p.call(ctx, dispatch.ToolMeetingChat, map[string]any{
		"chatRoomId": pr["chatRoomId"],
		"startTime":  start,
		"endTime":    end,
	}, cc)
	if err != nil {
		return nil, err
	}
	if fetched.Failed() {
		p.logger.Warn("meeting fetch failed", "chat_room_id", pr["chatRoomId"])
		return domain.Result{
			domain.KeyTool:  tool,
			domain.KeyStep:  StepFetch,
			domain.KeyError: fetched,
			KeySummary:      nil,
			KeySave:         nil,
		}, nil
	}

	transcript := Tail(Transcript(fetched[domain.KeyData]), p.maxChars)
	timeRange := strings.Replace(start, "T", " ", 1) + " ~ " + strings.Replace(end, "T", " ", 1)

	summary, err := p.completer.Complete(ctx, prompts.Meeting(transcript, timeRange), SummaryOptions)
	if err != nil {
		p.logger.Warn("meeting summarization failed", "err", err)
		return domain.Result{
			domain.KeyTool:  tool,
			domain.KeyStep:  StepSummarize,
			domain.KeyError: err.Error(),
			KeyFetch:        fetched,
			KeySummary:      nil,
			KeySave:         nil,
		}, nil
	}
	contents := strings.TrimSpace(summary)

	title, _ := pr["title"].(string)
	if title == "" {
		title = AutoTitle(start, end)
	}

	saved, err := p.call(ctx, dispatch.ToolMeetingSave, map[string]any{
		"projectId": pr["projectId"],
		"title":     title,
		"contents":  contents,
	}, cc)
	if err != nil {
		return nil, err
	}

	res := domain.Result{
		domain.KeyTool: tool,
		KeyFetch:       fetched,
		KeySummary: map[string]any{
			"title":  title,
			"text":   contents,
			"length": utf8.RuneCountInString(contents),
		},
		KeySave: saved,
	}
	if saved.Failed() {
		res[domain.KeyStep] = StepSave
		res[domain.KeyError] = saved
	} else if status, ok := saved.HTTPStatus(); ok {
		res[domain.KeyHTTPStatus] = status
	}
	return res, nil
}

func (p *Pipeline) call(ctx context.Context, tool string, in map[string]any, cc domain.ConversationContext) (domain.Result, error) {
	spec, err := p.dispatcher.Resolve(tool, in, cc)
	if err != nil {
		return nil, err
	}
	return p.executor.Execute(ctx, tool, in, spec)
}

// Transcript extracts the raw chat log from a fetch payload, preferring its
// "data" field and then its "message" field.
func Transcript(payload any) string {
	switch v := payload.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any:
		for _, key := range []string{"data", "message"} {
			if s := text(v[key]); s != "" {
				return s
			}
		}
		return ""
	}
	return text(payload)
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Tail keeps the last n characters of s.
func Tail(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[len(r)-n:])
}

// AutoTitle derives "회의록(YYYY-MM-DD HH:MM~HH:MM)" from the range.
func AutoTitle(start, end string) string {
	sd := strings.Replace(start, "T", " ", 1)
	ed := strings.Replace(end, "T", " ", 1)
	if len(sd) > 16 {
		sd = sd[:16]
	}
	if len(ed) >= 16 {
		ed = ed[11:16]
	}
	return fmt.Sprintf("회의록(%s~%s)", sd, ed)
}
