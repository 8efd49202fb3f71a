package dispatch_test

import (
	"testing"
	"time"

	"github.com/capstone-ai/dna/pkg/catalog"
	"github.com/capstone-ai/dna/pkg/dispatch"
	"github.com/capstone-ai/dna/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestPredicate_Match(t *testing.T) {
	tests := []struct {
		name   string
		when   dispatch.Predicate
		params map[string]any
		cc     domain.ConversationContext
		want   bool
	}{
		{"empty predicate", dispatch.Predicate{}, nil, domain.ConversationContext{}, true},
		{"project from params", dispatch.Predicate{ProjectIDIn: []int64{1, 2}}, map[string]any{"project_id": "2"}, domain.ConversationContext{ProjectID: "9"}, true},
		{"camel case project key", dispatch.Predicate{ProjectIDIn: []int64{5}}, map[string]any{"projectId": int64(5)}, domain.ConversationContext{}, true},
		{"params beat context", dispatch.Predicate{ProjectIDIn: []int64{9}}, map[string]any{"project_id": 2}, domain.ConversationContext{ProjectID: "9"}, false},
		{"project from context", dispatch.Predicate{ProjectIDIn: []int64{9}}, nil, domain.ConversationContext{ProjectID: "9"}, true},
		{"project not in set", dispatch.Predicate{ProjectIDIn: []int64{1}}, nil, domain.ConversationContext{ProjectID: "9"}, false},
		{"non-numeric project", dispatch.Predicate{ProjectIDIn: []int64{1}}, map[string]any{"project_id": "abc"}, domain.ConversationContext{}, false},
		{"no project at all", dispatch.Predicate{ProjectIDIn: []int64{1}}, nil, domain.ConversationContext{}, false},
		{"env case-insensitive", dispatch.Predicate{EnvEquals: ptr("PROD")}, nil, domain.ConversationContext{Env: "prod"}, true},
		{"env mismatch", dispatch.Predicate{EnvEquals: ptr("dev")}, nil, domain.ConversationContext{Env: "prod"}, false},
		{"tool override from params", dispatch.Predicate{ToolEquals: ptr("x")}, map[string]any{"_tool": "x"}, domain.ConversationContext{ToolOverride: "y"}, true},
		{"tool override from context", dispatch.Predicate{ToolEquals: ptr("y")}, nil, domain.ConversationContext{ToolOverride: "y"}, true},
		{"tool override absent", dispatch.Predicate{ToolEquals: ptr("y")}, nil, domain.ConversationContext{}, false},
		{"all keys must hold", dispatch.Predicate{ProjectIDIn: []int64{9}, EnvEquals: ptr("dev")}, nil, domain.ConversationContext{ProjectID: "9", Env: "prod"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.when.Match(tt.params, tt.cc))
		})
	}
}

func TestDispatcher_Resolve(t *testing.T) {
	first := domain.HTTPSpec("POST", "http://first", nil)
	second := domain.HTTPSpec("POST", "http://second", nil)
	table := dispatch.Table{
		"single": dispatch.SingleEntry(domain.LocalSpec("fn")),
		"ruled": dispatch.RuleEntry(
			dispatch.Rule{When: dispatch.Predicate{EnvEquals: ptr("prod")}, Exec: first},
			dispatch.Rule{When: dispatch.Predicate{}, Exec: second},
		),
		"strict": dispatch.RuleEntry(
			dispatch.Rule{When: dispatch.Predicate{ProjectIDIn: []int64{1}}, Exec: first},
		),
	}
	d := dispatch.New(table)

	t.Run("Single Always Matches", func(t *testing.T) {
		spec, err := d.Resolve("single", nil, domain.ConversationContext{})
		require.NoError(t, err)
		assert.Equal(t, domain.LocalSpec("fn"), spec)
	})

	t.Run("First Matching Rule Wins", func(t *testing.T) {
		spec, err := d.Resolve("ruled", nil, domain.ConversationContext{Env: "prod"})
		require.NoError(t, err)
		assert.Equal(t, "http://first", spec.URL, "second rule also matches but must never be chosen")
	})

	t.Run("Later Rule When Earlier Fails", func(t *testing.T) {
		spec, err := d.Resolve("ruled", nil, domain.ConversationContext{Env: "dev"})
		require.NoError(t, err)
		assert.Equal(t, "http://second", spec.URL)
	})

	t.Run("No Matching Rule", func(t *testing.T) {
		_, err := d.Resolve("strict", nil, domain.ConversationContext{ProjectID: "2"})
		assert.ErrorIs(t, err, domain.ErrNoMatchingRule)
		assert.NotErrorIs(t, err, domain.ErrUnknownTool)
	})

	t.Run("Unknown Tool", func(t *testing.T) {
		_, err := d.Resolve("nope", nil, domain.ConversationContext{})
		assert.ErrorIs(t, err, domain.ErrUnknownTool)
	})
}

func TestDispatcher_CatalogFallback(t *testing.T) {
	d := dispatch.New(dispatch.Table{}, dispatch.WithFallback(dispatch.FromCatalog(catalog.Default())))

	spec, err := d.Resolve(catalog.ToolChangeRole, nil, domain.ConversationContext{})
	require.NoError(t, err)
	assert.Equal(t, domain.RemoteSpec(catalog.ToolChangeRole), spec)
	assert.True(t, d.Has(catalog.ToolChangeRole))

	_, err = d.Resolve(catalog.ToolMeetingCreate, nil, domain.ConversationContext{})
	assert.ErrorIs(t, err, domain.ErrUnknownTool, "meeting_create has no exec stub")
	assert.False(t, d.Has(catalog.ToolMeetingCreate))
}

func TestBuiltin(t *testing.T) {
	table := dispatch.Builtin(dispatch.Endpoints{
		RoleChange:  "http://api/role",
		TodoCreate:  "http://api/todo",
		MeetingChat: "http://api/chat",
		MeetingSave: "http://api/save",
	})
	d := dispatch.New(table)

	spec, err := d.Resolve(dispatch.ToolMeetingSave, nil, domain.ConversationContext{})
	require.NoError(t, err)
	assert.Equal(t, domain.ExecHTTP, spec.Kind)
	assert.Equal(t, "http://api/save", spec.URL)
	assert.Equal(t, "body.contents", spec.Mapping["contents"])

	spec, err = d.Resolve("compute_sum", nil, domain.ConversationContext{})
	require.NoError(t, err)
	assert.Equal(t, domain.LocalSpec("compute_sum"), spec)
}

func TestParse(t *testing.T) {
	t.Setenv("DNA_TEST_TODO_URL", "http://todo.internal")
	doc := `
change_role:
  exec:
    type: mcp
    name: change_role_v2
todo_create:
  type: http
  method: POST
  url: ${DNA_TEST_TODO_URL}/api/todos
  timeout: 5s
  mapping:
    todoName: body.todoName
    projectId: query.projectId
get_current_weather:
  - when:
      project_id_in: [1, "2"]
      env_equals: prod
    exec: {type: http, method: GET, url: "http://weather", timeout: 3}
  - exec: {type: local}
`
	table, err := dispatch.Parse([]byte(doc))
	require.NoError(t, err)
	d := dispatch.New(table)

	role, err := d.Resolve("change_role", nil, domain.ConversationContext{})
	require.NoError(t, err)
	assert.Equal(t, domain.ExecRemote, role.Kind)
	assert.Equal(t, "change_role_v2", role.Name)

	todo, err := d.Resolve("todo_create", nil, domain.ConversationContext{})
	require.NoError(t, err)
	assert.Equal(t, "http://todo.internal/api/todos", todo.URL)
	assert.Equal(t, 5*time.Second, todo.Timeout)
	assert.Equal(t, "query.projectId", todo.Mapping["projectId"])

	weather, err := d.Resolve("get_current_weather", nil, domain.ConversationContext{ProjectID: "2", Env: "PROD"})
	require.NoError(t, err)
	assert.Equal(t, domain.ExecHTTP, weather.Kind)
	assert.Equal(t, 3*time.Second, weather.Timeout)

	weather, err = d.Resolve("get_current_weather", nil, domain.ConversationContext{ProjectID: "3", Env: "prod"})
	require.NoError(t, err)
	assert.Equal(t, domain.ExecLocal, weather.Kind)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown type", "x:\n  exec: {type: ftp}\n"},
		{"bad mapping", "x:\n  exec: {type: http, url: 'http://x', mapping: {a: path.a}}\n"},
		{"scalar entry", "x: 3\n"},
		{"bad rule", "x:\n  - when: {project_id_in: [abc]}\n    exec: {type: local}\n"},
		{"malformed yaml", "x: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dispatch.Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}
