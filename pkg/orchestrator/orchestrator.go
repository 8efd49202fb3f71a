// Package orchestrator runs one conversational turn end to end: it restores
// the conversation, routes the utterance, collects parameters through
// clarification when needed, executes the tool and phrases the result.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/capstone-ai/dna/internal/logging"
	"github.com/capstone-ai/dna/pkg/adapters/memory"
	"github.com/capstone-ai/dna/pkg/answer"
	"github.com/capstone-ai/dna/pkg/catalog"
	"github.com/capstone-ai/dna/pkg/clarify"
	"github.com/capstone-ai/dna/pkg/domain"
	"github.com/capstone-ai/dna/pkg/params"
	"github.com/capstone-ai/dna/pkg/ports"
	"github.com/capstone-ai/dna/pkg/prompts"
	"github.com/capstone-ai/dna/pkg/router"
	"github.com/capstone-ai/dna/pkg/session"
)

// ChatOptions are the generation parameters of conversational replies.
var ChatOptions = domain.GenOptions{MaxNewTokens: 512, Temperature: 0.7, Sample: true}

const (
	// ChatFallback answers when the model cannot produce a reply.
	ChatFallback = "죄송합니다. 지금은 답변을 드리기 어렵습니다. 잠시 후 다시 시도해 주세요."
	// CancelReply confirms an abandoned clarification.
	CancelReply = "진행 중이던 요청을 취소했습니다."
	// DefaultEnv is matched by env_equals predicates when none is configured.
	DefaultEnv = "prod"
)

// Pipeline is a composed operation registered under a tool name in place of
// single-tool dispatch.
type Pipeline interface {
	// Prepare fills parameters from the utterance before validation.
	Prepare(params map[string]any, utterance string) map[string]any
	Run(ctx context.Context, params map[string]any, utterance string, cc domain.ConversationContext) (domain.Result, error)
}

type pipelineEntry struct {
	run   Pipeline
	label string
}

// Orchestrator handles chat turns. Turns of one conversation are serialized;
// different conversations proceed concurrently.
type Orchestrator struct {
	catalog    *catalog.Catalog
	completer  ports.Completer
	router     *router.Router
	extractor  *params.Extractor
	machine    *clarify.Machine
	dispatcher ports.Dispatcher
	executor   ports.Executor
	synth      *answer.Synthesizer
	pipelines  map[string]pipelineEntry

	transcripts ports.Store[*domain.Transcript]
	pending     ports.Store[*domain.PendingClarification]
	sessions    *session.Manager

	systemPrompt string
	chatOpts     domain.GenOptions
	env          string
	maxMessages  int
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	now          func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRouter replaces the intent router.
func WithRouter(r *router.Router) Option {
	return func(o *Orchestrator) { o.router = r }
}

// WithExtractor replaces the parameter extractor.
func WithExtractor(e *params.Extractor) Option {
	return func(o *Orchestrator) { o.extractor = e }
}

// WithMachine replaces the clarification state machine.
func WithMachine(m *clarify.Machine) Option {
	return func(o *Orchestrator) { o.machine = m }
}

// WithSynthesizer replaces the answer synthesizer.
func WithSynthesizer(s *answer.Synthesizer) Option {
	return func(o *Orchestrator) { o.synth = s }
}

// WithPipeline registers a composed operation for tool. label is reported as
// the response route.
func WithPipeline(tool, label string, p Pipeline) Option {
	return func(o *Orchestrator) { o.pipelines[tool] = pipelineEntry{run: p, label: label} }
}

// WithTranscriptStore sets where conversation memory is kept.
func WithTranscriptStore(s ports.Store[*domain.Transcript]) Option {
	return func(o *Orchestrator) { o.transcripts = s }
}

// WithPendingStore sets where pending clarifications are kept.
func WithPendingStore(s ports.Store[*domain.PendingClarification]) Option {
	return func(o *Orchestrator) { o.pending = s }
}

// WithSessions sets the per-conversation lock manager.
func WithSessions(m *session.Manager) Option {
	return func(o *Orchestrator) { o.sessions = m }
}

// WithSystemPrompt sets the system prompt of new conversations.
func WithSystemPrompt(p string) Option {
	return func(o *Orchestrator) { o.systemPrompt = p }
}

// WithChatMaxTokens caps the length of conversational replies.
func WithChatMaxTokens(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.chatOpts.MaxNewTokens = n
		}
	}
}

// WithEnv sets the environment name matched by dispatch rules.
func WithEnv(env string) Option {
	return func(o *Orchestrator) { o.env = env }
}

// WithMaxMessages caps the chat transcript. Zero keeps everything.
func WithMaxMessages(n int) Option {
	return func(o *Orchestrator) { o.maxMessages = n }
}

// WithHooks adds lifecycle hooks. Repeated calls accumulate.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(o *Orchestrator) { o.hooks = o.hooks.Merge(h) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithClock overrides time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an Orchestrator over the given catalog, model and backends.
// Conversation state defaults to in-process stores.
func New(c *catalog.Catalog, completer ports.Completer, dispatcher ports.Dispatcher, executor ports.Executor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		catalog:      c,
		completer:    completer,
		router:       router.New(completer, c),
		extractor:    params.NewExtractor(completer),
		machine:      clarify.Default(),
		dispatcher:   dispatcher,
		executor:     executor,
		synth:        answer.New(completer),
		pipelines:    map[string]pipelineEntry{},
		transcripts:  memory.NewStore[*domain.Transcript](),
		pending:      memory.NewStore[*domain.PendingClarification](),
		sessions:     session.NewManager(),
		systemPrompt: prompts.DefaultSystem,
		chatOpts:     ChatOptions,
		env:          DefaultEnv,
		logger:       logging.NewNop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Catalog returns the tool catalog.
func (o *Orchestrator) Catalog() *catalog.Catalog {
	return o.catalog
}

// turn carries the state of one request through the handlers.
type turn struct {
	cid   string
	input string
	mode  domain.Mode
	cc    domain.ConversationContext
	tr    *domain.Transcript
}

// Handle processes one inbound turn. Hard failures (dispatch
// misconfiguration, remote-call errors, store errors) are returned as errors;
// everything else is reported in the response.
func (o *Orchestrator) Handle(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	if strings.TrimSpace(req.ConversationID) == "" {
		return domain.ChatResponse{}, fmt.Errorf("%w: conversationId is required", domain.ErrInputRejected)
	}

	var resp domain.ChatResponse
	err := o.sessions.WithLock(ctx, req.ConversationID, func(ctx context.Context) error {
		var err error
		resp, err = o.handle(ctx, req)
		return err
	})
	return resp, err
}

// Reset forgets a conversation.
func (o *Orchestrator) Reset(ctx context.Context, cid string) error {
	return o.sessions.WithLock(ctx, cid, func(ctx context.Context) error {
		if err := o.pending.Delete(ctx, cid); err != nil {
			return err
		}
		return o.transcripts.Delete(ctx, cid)
	})
}

func (o *Orchestrator) handle(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	t := &turn{
		cid:   req.ConversationID,
		input: req.UserInput,
		mode:  domain.ParseMode(req.Mode),
		cc:    o.contextOf(req),
	}

	tr, err := o.loadTranscript(ctx, t.cid)
	if err != nil {
		return domain.ChatResponse{}, err
	}
	if req.SystemPrompt != "" {
		tr.SetSystem(req.SystemPrompt)
	}
	tr.SetContext(prompts.FormatContext(t.cc.Map()))
	t.tr = tr

	resp, err := o.dispatchTurn(ctx, t)
	if err != nil {
		return domain.ChatResponse{}, err
	}

	tr.Trim(o.maxMessages)
	if err := o.transcripts.Save(ctx, t.cid, tr); err != nil {
		return domain.ChatResponse{}, fmt.Errorf("failed to save transcript: %w", err)
	}

	resp.ConversationID = t.cid
	if o.hooks.OnRoute != nil {
		o.hooks.OnRoute(ctx, &domain.RouteEvent{
			Timestamp:      o.now(),
			ConversationID: t.cid,
			Mode:           t.mode,
			Route:          resp.Route,
		})
	}
	return resp, nil
}

func (o *Orchestrator) dispatchTurn(ctx context.Context, t *turn) (domain.ChatResponse, error) {
	state, err := o.loadPending(ctx, t.cid)
	if err != nil {
		return domain.ChatResponse{}, err
	}

	if state.Status == clarify.Pending {
		tool := state.Pending.ToolName
		switch {
		case clarify.IsCancel(t.input):
			o.logger.Info("pending clarification cancelled", "conversation_id", t.cid, "tool", tool)
			if err := o.dropPending(ctx, t); err != nil {
				return domain.ChatResponse{}, err
			}
			t.tr.AppendChat(domain.User(t.input), domain.Assistant(CancelReply))
			return domain.ChatResponse{Route: domain.RouteChat, Output: CancelReply}, nil

		case o.machine.Expired(state):
			o.logger.Info("pending clarification expired", "conversation_id", t.cid, "tool", tool)
			if err := o.dropPending(ctx, t); err != nil {
				return domain.ChatResponse{}, err
			}

		case t.mode == domain.ModeChat:
			return o.resume(ctx, t, state)

		default:
			decision := o.router.Decide(ctx, t.input, t.cc)
			if decision == tool || !o.isTool(decision) {
				return o.resume(ctx, t, state)
			}
			o.logger.Info("pending clarification abandoned", "conversation_id", t.cid, "tool", tool, "routed", decision)
			if err := o.dropPending(ctx, t); err != nil {
				return domain.ChatResponse{}, err
			}
			return o.runTool(ctx, t, decision)
		}
	}

	if t.mode == domain.ModeChat {
		return o.runChat(ctx, t), nil
	}
	decision := o.router.Decide(ctx, t.input, t.cc)
	if !o.isTool(decision) {
		return o.runChat(ctx, t), nil
	}
	return o.runTool(ctx, t, decision)
}

func (o *Orchestrator) runChat(ctx context.Context, t *turn) domain.ChatResponse {
	t.tr.AppendChat(domain.User(t.input))
	reply, err := o.completer.Complete(ctx, t.tr.History(), o.chatOpts)
	reply = strings.TrimSpace(reply)
	if err != nil || reply == "" {
		o.logger.Warn("chat completion failed", "conversation_id", t.cid, "err", err)
		reply = ChatFallback
	}
	t.tr.AppendChat(domain.Assistant(reply))
	return domain.ChatResponse{Route: domain.RouteChat, Output: reply}
}

func (o *Orchestrator) runTool(ctx context.Context, t *turn, tool string) (domain.ChatResponse, error) {
	schema, _ := o.catalog.Find(tool)
	t.tr.ClearTool()
	extracted := o.extractor.Extract(ctx, schema, t.cc, nil, t.input)
	out := o.machine.Start(schema, extracted, o.preparer(schema, t))
	if !out.Ready() {
		return o.ask(ctx, t, out)
	}
	return o.execute(ctx, t, tool, out.Params)
}

func (o *Orchestrator) resume(ctx context.Context, t *turn, state clarify.State) (domain.ChatResponse, error) {
	schema := state.Pending.Schema
	t.tr.AppendTool(clarifyMessage(domain.User(t.input), schema.Name, nil))

	extracted := o.extractor.Extract(ctx, schema, t.cc, state.Pending.Collected, t.input)
	out := o.machine.Advance(state, extracted, o.preparer(schema, t))
	if !out.Ready() {
		return o.ask(ctx, t, out)
	}
	if err := o.pending.Delete(ctx, t.cid); err != nil {
		return domain.ChatResponse{}, fmt.Errorf("failed to clear pending clarification: %w", err)
	}
	return o.execute(ctx, t, schema.Name, out.Params)
}

// preparer binds context values, then lets a registered pipeline infer
// parameters from the utterance.
func (o *Orchestrator) preparer(schema domain.ToolSchema, t *turn) clarify.Preparer {
	pl, hasPipeline := o.pipelines[schema.Name]
	return func(p map[string]any) map[string]any {
		p = params.BindContext(schema, p, t.cc)
		if hasPipeline {
			p = pl.run.Prepare(p, t.input)
		}
		return p
	}
}

func (o *Orchestrator) ask(ctx context.Context, t *turn, out clarify.Outcome) (domain.ChatResponse, error) {
	pending := out.Next.Pending
	if err := o.pending.Save(ctx, t.cid, &pending); err != nil {
		return domain.ChatResponse{}, fmt.Errorf("failed to save pending clarification: %w", err)
	}
	if len(t.tr.Tool) == 0 {
		t.tr.AppendTool(clarifyMessage(domain.User(t.input), pending.ToolName, nil))
	}
	t.tr.AppendTool(clarifyMessage(domain.Assistant(out.Question), pending.ToolName, out.Missing))

	o.logger.Debug("clarification requested", "conversation_id", t.cid, "tool", pending.ToolName, "missing", out.Missing)
	if o.hooks.OnClarify != nil {
		o.hooks.OnClarify(ctx, &domain.ClarifyEvent{
			Timestamp:      o.now(),
			ConversationID: t.cid,
			ToolName:       pending.ToolName,
			Missing:        out.Missing,
			Turn:           pending.Turns,
		})
	}
	return domain.ChatResponse{Route: domain.RouteClarify, Output: out.Question, Missing: out.Missing}, nil
}

func (o *Orchestrator) execute(ctx context.Context, t *turn, tool string, p map[string]any) (domain.ChatResponse, error) {
	run, label, err := o.plan(tool, p, t)
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("failed to resolve %s: %w", tool, err)
	}

	start := o.now()
	if o.hooks.OnToolCall != nil {
		o.hooks.OnToolCall(ctx, &domain.ToolEvent{
			Timestamp:      start,
			ConversationID: t.cid,
			ToolName:       tool,
			Backend:        label,
			Input:          p,
		})
	}

	result, err := run(ctx)
	if o.hooks.OnToolReturn != nil {
		ev := &domain.ToolEvent{
			Timestamp:      o.now(),
			ConversationID: t.cid,
			ToolName:       tool,
			Backend:        label,
			Output:         result,
			IsError:        err != nil || result.Failed(),
			Duration:       o.now().Sub(start),
		}
		if err != nil {
			ev.Output = err.Error()
		}
		o.hooks.OnToolReturn(ctx, ev)
	}
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("failed to execute %s: %w", tool, err)
	}

	sentence, err := o.synth.Compose(ctx, t.tr.History(), tool, p, result)
	output := result
	if err != nil {
		o.logger.Warn("answer synthesis failed", "tool", tool, "err", err)
		sentence = fmt.Sprintf("[%s] %v", tool, result)
	} else {
		output = result.With(domain.KeyAnswer, sentence)
	}

	t.tr.AppendChat(domain.User(t.input), domain.Assistant(sentence))
	t.tr.ClearTool()
	return domain.ChatResponse{Route: label, Output: output}, nil
}

func (o *Orchestrator) plan(tool string, p map[string]any, t *turn) (func(context.Context) (domain.Result, error), string, error) {
	if pl, ok := o.pipelines[tool]; ok {
		return func(ctx context.Context) (domain.Result, error) {
			return pl.run.Run(ctx, p, t.input, t.cc)
		}, pl.label, nil
	}

	spec, err := o.dispatcher.Resolve(tool, p, t.cc)
	if err != nil {
		return nil, "", err
	}
	return func(ctx context.Context) (domain.Result, error) {
		return o.executor.Execute(ctx, tool, p, spec)
	}, routeLabel(spec.Kind), nil
}

func (o *Orchestrator) isTool(name string) bool {
	if name == domain.RouteNoTool {
		return false
	}
	_, ok := o.catalog.Find(name)
	return ok
}

func (o *Orchestrator) contextOf(req domain.ChatRequest) domain.ConversationContext {
	cc := domain.ConversationContext{
		ConversationID: req.ConversationID,
		ProjectID:      req.ProjectID,
		ChatRoomID:     req.ChatRoomID,
		Env:            o.env,
	}
	if cc.ProjectID == "" {
		cc.ProjectID = req.ConversationID
	}
	return cc
}

func (o *Orchestrator) loadTranscript(ctx context.Context, cid string) (*domain.Transcript, error) {
	tr, err := o.transcripts.Load(ctx, cid)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && tr == nil) {
		return domain.NewTranscript(o.systemPrompt), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load transcript: %w", err)
	}
	return tr, nil
}

func (o *Orchestrator) loadPending(ctx context.Context, cid string) (clarify.State, error) {
	p, err := o.pending.Load(ctx, cid)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && p == nil) {
		return clarify.None(), nil
	}
	if err != nil {
		return clarify.None(), fmt.Errorf("failed to load pending clarification: %w", err)
	}
	p.Collected = params.Normalize(p.Collected)
	return clarify.From(p), nil
}

func (o *Orchestrator) dropPending(ctx context.Context, t *turn) error {
	if err := o.pending.Delete(ctx, t.cid); err != nil {
		return fmt.Errorf("failed to clear pending clarification: %w", err)
	}
	t.tr.ClearTool()
	return nil
}

func routeLabel(kind domain.ExecKind) string {
	if kind == "" {
		return string(domain.ExecLocal)
	}
	return string(kind)
}

func clarifyMessage(m domain.Message, tool string, missing []string) domain.Message {
	m.Meta = map[string]any{"type": "clarify", "tool": tool}
	if len(missing) > 0 {
		m.Meta["missing"] = missing
	}
	return m
}
