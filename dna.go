package dna

import (
	_ "embed"
	"errors"
	"log/slog"
	"time"

	"github.com/capstone-ai/dna/internal/logging"
	"github.com/capstone-ai/dna/pkg/catalog"
	"github.com/capstone-ai/dna/pkg/clarify"
	"github.com/capstone-ai/dna/pkg/dispatch"
	"github.com/capstone-ai/dna/pkg/domain"
	"github.com/capstone-ai/dna/pkg/executor"
	"github.com/capstone-ai/dna/pkg/meeting"
	"github.com/capstone-ai/dna/pkg/orchestrator"
	"github.com/capstone-ai/dna/pkg/ports"
	"github.com/capstone-ai/dna/pkg/session"
	"github.com/capstone-ai/dna/pkg/timeparse"
)

// Version is the release of this module.
//
//go:embed VERSION
var Version string

// Assistant is the high-level entry point of the library: an orchestrator
// wired with the built-in tools, backends and the meeting pipeline.
type Assistant struct {
	*orchestrator.Orchestrator
	sessions *session.Manager
}

type settings struct {
	catalog     *catalog.Catalog
	endpoints   dispatch.Endpoints
	table       dispatch.Table
	local       *executor.Local
	http        *executor.HTTP
	remote      *executor.Remote
	transcripts ports.Store[*domain.Transcript]
	pending     ports.Store[*domain.PendingClarification]
	locker      ports.DistributedLocker
	clarifyTTL  time.Duration
	location    *time.Location
	now         func() time.Time
	orcOpts     []orchestrator.Option
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
}

// Option defines a functional option for configuring the Assistant.
type Option func(*settings)

// WithCatalog replaces the tool catalog (default: business tools plus the
// local demo tools).
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *settings) { s.catalog = c }
}

// WithEndpoints sets the business API URLs of the built-in dispatch table.
func WithEndpoints(ep dispatch.Endpoints) Option {
	return func(s *settings) { s.endpoints = ep }
}

// WithDispatchTable overlays entries on the built-in dispatch table.
func WithDispatchTable(t dispatch.Table) Option {
	return func(s *settings) { s.table = t }
}

// WithLocal replaces the in-process function registry.
func WithLocal(l *executor.Local) Option {
	return func(s *settings) { s.local = l }
}

// WithHTTPBackend replaces the default HTTP backend.
func WithHTTPBackend(h *executor.HTTP) Option {
	return func(s *settings) { s.http = h }
}

// WithRemoteBackend enables remote-call execution.
func WithRemoteBackend(r *executor.Remote) Option {
	return func(s *settings) { s.remote = r }
}

// WithStores replaces the in-process conversation stores.
func WithStores(transcripts ports.Store[*domain.Transcript], pending ports.Store[*domain.PendingClarification]) Option {
	return func(s *settings) {
		s.transcripts = transcripts
		s.pending = pending
	}
}

// WithLocker serializes turns of a conversation across replicas.
func WithLocker(l ports.DistributedLocker) Option {
	return func(s *settings) { s.locker = l }
}

// WithClarifyTTL sets how long an unanswered clarification stays pending.
func WithClarifyTTL(ttl time.Duration) Option {
	return func(s *settings) { s.clarifyTTL = ttl }
}

// WithLocation sets the time zone of date expressions (default: Asia/Seoul).
func WithLocation(loc *time.Location) Option {
	return func(s *settings) { s.location = loc }
}

// WithClock overrides time.Now across the assistant.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithOrchestratorOptions passes options straight to the orchestrator.
func WithOrchestratorOptions(opts ...orchestrator.Option) Option {
	return func(s *settings) { s.orcOpts = append(s.orcOpts, opts...) }
}

// WithLifecycleHooks registers observability hooks. Repeated calls combine.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *settings) { s.hooks = s.hooks.Merge(hooks) }
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// New wires an Assistant around a completion model.
func New(completer ports.Completer, opts ...Option) (*Assistant, error) {
	if completer == nil {
		return nil, errors.New("dna: a completer is required")
	}

	s := &settings{
		catalog:    catalog.Default(),
		clarifyTTL: clarify.DefaultTTL,
		location:   timeparse.KST(),
		now:        time.Now,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	table := dispatch.Builtin(s.endpoints)
	if s.table != nil {
		table = table.Merge(s.table)
	}
	d := dispatch.New(table, dispatch.WithFallback(dispatch.FromCatalog(s.catalog)))

	execOpts := []executor.Option{executor.WithLogger(s.logger)}
	if s.local != nil {
		execOpts = append(execOpts, executor.WithLocal(s.local))
	}
	if s.http != nil {
		execOpts = append(execOpts, executor.WithHTTP(s.http))
	}
	if s.remote != nil {
		execOpts = append(execOpts, executor.WithRemote(s.remote))
	}
	exec := executor.NewComposite(execOpts...)

	times := timeparse.New(timeparse.WithLocation(s.location), timeparse.WithClock(s.now))
	pipe := meeting.New(d, exec, completer, times, meeting.WithLogger(s.logger))

	sessionOpts := []session.Option{session.WithLogger(s.logger)}
	if s.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(s.locker))
	}
	sessions := session.NewManager(sessionOpts...)

	orcOpts := []orchestrator.Option{
		orchestrator.WithMachine(clarify.Default(clarify.WithTTL(s.clarifyTTL), clarify.WithClock(s.now))),
		orchestrator.WithPipeline(catalog.ToolMeetingCreate, "http", pipe),
		orchestrator.WithSessions(sessions),
		orchestrator.WithHooks(s.hooks),
		orchestrator.WithLogger(s.logger),
		orchestrator.WithClock(s.now),
	}
	if s.transcripts != nil {
		orcOpts = append(orcOpts, orchestrator.WithTranscriptStore(s.transcripts))
	}
	if s.pending != nil {
		orcOpts = append(orcOpts, orchestrator.WithPendingStore(s.pending))
	}
	orcOpts = append(orcOpts, s.orcOpts...)

	return &Assistant{
		Orchestrator: orchestrator.New(s.catalog, completer, d, exec, orcOpts...),
		sessions:     sessions,
	}, nil
}

// ActiveConversations reports how many conversations hold a turn lock.
func (a *Assistant) ActiveConversations() int {
	return a.sessions.Active()
}
