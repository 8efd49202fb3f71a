// Package clarify implements the multi-turn parameter collection state
// machine. A conversation is either in NoPending or in Pending; transitions
// are pure functions returning the next state, and persistence is left to
// the caller.
package clarify

import (
	"strings"
	"time"

	"github.com/capstone-ai/dna/pkg/domain"
	"github.com/capstone-ai/dna/pkg/params"
)

// Status tags a State.
type Status int

const (
	NoPending Status = iota
	Pending
)

func (s Status) String() string {
	if s == Pending {
		return "pending"
	}
	return "no_pending"
}

// State is the clarification state of one conversation. Pending is only
// meaningful when Status is Pending.
type State struct {
	Status  Status
	Pending domain.PendingClarification
}

// None is the NoPending state.
func None() State { return State{Status: NoPending} }

// From wraps a stored pending clarification.
func From(p *domain.PendingClarification) State {
	if p == nil {
		return None()
	}
	return State{Status: Pending, Pending: *p}
}

// Outcome is the result of a transition.
type Outcome struct {
	Next State
	// Params are the prepared parameters; complete when Ready.
	Params  map[string]any
	Missing []string
	// Question is set when Next is Pending.
	Question string
}

// Ready reports whether the tool can execute.
func (o Outcome) Ready() bool { return o.Next.Status == NoPending }

// Normalizer rewrites tool-specific parameter aliases.
type Normalizer func(map[string]any) map[string]any

// Preparer runs after coercion and normalization, before validation.
type Preparer func(map[string]any) map[string]any

// Machine holds the per-tool rules of the state machine.
type Machine struct {
	normalizers map[string]Normalizer
	required    map[string][]string
	ttl         time.Duration
	now         func() time.Time
}

// Option configures a Machine.
type Option func(*Machine)

// WithNormalizer registers an alias normalizer for a tool.
func WithNormalizer(tool string, n Normalizer) Option {
	return func(m *Machine) { m.normalizers[tool] = n }
}

// WithRequired forces keys to be present for a tool on top of the
// schema's required list.
func WithRequired(tool string, keys ...string) Option {
	return func(m *Machine) { m.required[tool] = keys }
}

// WithTTL discards pending clarifications idle for longer than ttl.
// Zero disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(m *Machine) { m.ttl = ttl }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// DefaultTTL is the idle time after which a pending clarification is dropped.
const DefaultTTL = 10 * time.Minute

// NewMachine creates a Machine with no tool-specific rules.
func NewMachine(opts ...Option) *Machine {
	m := &Machine{
		normalizers: map[string]Normalizer{},
		required:    map[string][]string{},
		ttl:         DefaultTTL,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start evaluates freshly extracted parameters from NoPending.
func (m *Machine) Start(schema domain.ToolSchema, extracted map[string]any, prepare Preparer) Outcome {
	p := m.prepare(schema, extracted, prepare)
	missing := m.missing(schema, p)
	if len(missing) == 0 {
		return Outcome{Next: None(), Params: p}
	}

	now := m.now()
	pending := domain.PendingClarification{
		ToolName:  schema.Name,
		Schema:    schema,
		Required:  append([]string(nil), schema.Parameters.Required...),
		Collected: p,
		Missing:   missing,
		Turns:     1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return Outcome{
		Next:     State{Status: Pending, Pending: pending},
		Params:   p,
		Missing:  missing,
		Question: Question(schema, missing),
	}
}

// Advance merges the parameters extracted on a clarification turn into the
// collected ones. New values overwrite same-named old ones.
func (m *Machine) Advance(s State, extracted map[string]any, prepare Preparer) Outcome {
	if s.Status != Pending {
		return Outcome{Next: None(), Params: params.Clone(extracted)}
	}
	pending := s.Pending
	schema := pending.Schema

	merged := params.Merge(pending.Collected, extracted)
	p := m.prepare(schema, merged, prepare)
	missing := m.missing(schema, p)
	if len(missing) == 0 {
		return Outcome{Next: None(), Params: p}
	}

	pending.Collected = p
	pending.Missing = missing
	pending.Turns++
	pending.UpdatedAt = m.now()
	return Outcome{
		Next:     State{Status: Pending, Pending: pending},
		Params:   p,
		Missing:  missing,
		Question: Question(schema, missing),
	}
}

// Expired reports whether a pending clarification has been idle too long.
func (m *Machine) Expired(s State) bool {
	if s.Status != Pending || m.ttl <= 0 {
		return false
	}
	return m.now().Sub(s.Pending.UpdatedAt) > m.ttl
}

var cancelWords = map[string]bool{"취소": true, "그만": true, "cancel": true, "stop": true}

// IsCancel reports whether an utterance abandons the pending tool.
func IsCancel(utterance string) bool {
	return cancelWords[strings.ToLower(strings.TrimSpace(utterance))]
}

func (m *Machine) prepare(schema domain.ToolSchema, in map[string]any, prepare Preparer) map[string]any {
	p := params.Apply(schema, in)
	if n, ok := m.normalizers[schema.Name]; ok {
		p = n(p)
	}
	if prepare != nil {
		p = prepare(p)
	}
	return p
}

// missing lists schema-required keys first, then forced keys, without
// duplicates.
func (m *Machine) missing(schema domain.ToolSchema, p map[string]any) []string {
	_, missing := params.Validate(schema, p)
	forced := params.Missing(m.required[schema.Name], p)
	if len(forced) == 0 {
		return missing
	}
	seen := make(map[string]bool, len(missing))
	for _, k := range missing {
		seen[k] = true
	}
	for _, k := range forced {
		if !seen[k] {
			missing = append(missing, k)
			seen[k] = true
		}
	}
	return missing
}
