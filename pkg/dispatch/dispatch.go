// Package dispatch resolves a tool invocation into one concrete execution
// spec using a per-tool rule table.
package dispatch

import (
	"fmt"
	"strings"

	"github.com/capstone-ai/dna/pkg/domain"
)

// Predicate is the condition of a rule. A nil field is not checked; a rule
// matches when every present field holds.
type Predicate struct {
	ProjectIDIn []int64 `mapstructure:"project_id_in" yaml:"project_id_in,omitempty"`
	EnvEquals   *string `mapstructure:"env_equals" yaml:"env_equals,omitempty"`
	ToolEquals  *string `mapstructure:"tool_equals" yaml:"tool_equals,omitempty"`
}

// ToolOverrideKey is the reserved parameter read by tool_equals.
const ToolOverrideKey = "_tool"

// Match evaluates the predicate. Non-numeric project ids fail
// project_id_in instead of raising.
func (p Predicate) Match(params map[string]any, cc domain.ConversationContext) bool {
	if p.ProjectIDIn != nil {
		pid, ok := projectID(params, cc)
		if !ok || !contains(p.ProjectIDIn, pid) {
			return false
		}
	}
	if p.EnvEquals != nil && !strings.EqualFold(cc.Env, *p.EnvEquals) {
		return false
	}
	if p.ToolEquals != nil {
		override, _ := params[ToolOverrideKey].(string)
		if override == "" {
			override = cc.ToolOverride
		}
		if override != *p.ToolEquals {
			return false
		}
	}
	return true
}

// projectID prefers params.project_id, then params.projectId, then the
// context.
func projectID(params map[string]any, cc domain.ConversationContext) (int64, bool) {
	for _, key := range []string{"project_id", "projectId"} {
		if v, ok := params[key]; ok && v != nil && v != "" {
			return domain.AsInt64(v)
		}
	}
	if cc.ProjectID == "" {
		return 0, false
	}
	return domain.AsInt64(cc.ProjectID)
}

func contains(set []int64, v int64) bool {
	for _, x := range set {
		if x == v {
			return true
		}
	}
	return false
}

// Rule pairs a predicate with the spec it selects.
type Rule struct {
	When Predicate       `mapstructure:"when" yaml:"when,omitempty"`
	Exec domain.ExecSpec `mapstructure:"exec" yaml:"exec"`
}

// Entry is either a single spec that always matches or an ordered rule list.
type Entry struct {
	Single *domain.ExecSpec
	Rules  []Rule
}

// SingleEntry builds an entry that always dispatches to spec.
func SingleEntry(spec domain.ExecSpec) Entry {
	return Entry{Single: &spec}
}

// RuleEntry builds a rule-list entry.
func RuleEntry(rules ...Rule) Entry {
	return Entry{Rules: rules}
}

// Table maps tool names to entries.
type Table map[string]Entry

// Fallback supplies a spec for tools missing from the table.
type Fallback func(tool string) (domain.ExecSpec, bool)

// Dispatcher resolves tool invocations against a Table.
type Dispatcher struct {
	table    Table
	fallback Fallback
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithFallback consults fb when a tool has no table entry.
func WithFallback(fb Fallback) Option {
	return func(d *Dispatcher) { d.fallback = fb }
}

// New creates a Dispatcher over table.
func New(table Table, opts ...Option) *Dispatcher {
	d := &Dispatcher{table: table}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Resolve picks the spec for a tool. An unknown tool wraps
// domain.ErrUnknownTool; a rule list with no matching rule wraps
// domain.ErrNoMatchingRule.
func (d *Dispatcher) Resolve(tool string, params map[string]any, cc domain.ConversationContext) (domain.ExecSpec, error) {
	entry, ok := d.table[tool]
	if !ok {
		if d.fallback != nil {
			if spec, found := d.fallback(tool); found {
				return spec, nil
			}
		}
		return domain.ExecSpec{}, fmt.Errorf("%w: %s", domain.ErrUnknownTool, tool)
	}
	if entry.Single != nil {
		return *entry.Single, nil
	}
	for _, rule := range entry.Rules {
		if rule.When.Match(params, cc) {
			return rule.Exec, nil
		}
	}
	return domain.ExecSpec{}, fmt.Errorf("%w for tool=%s", domain.ErrNoMatchingRule, tool)
}

// Has reports whether the tool can be resolved without consulting rules.
func (d *Dispatcher) Has(tool string) bool {
	if _, ok := d.table[tool]; ok {
		return true
	}
	if d.fallback != nil {
		_, ok := d.fallback(tool)
		return ok
	}
	return false
}
