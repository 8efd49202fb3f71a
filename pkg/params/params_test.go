package params_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/capstone-ai/dna/internal/testutils"
	"github.com/capstone-ai/dna/pkg/catalog"
	"github.com/capstone-ai/dna/pkg/domain"
	"github.com/capstone-ai/dna/pkg/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want map[string]any
	}{
		{"plain", `{"a": "b"}`, map[string]any{"a": "b"}},
		{"prose around", `Sure! {"todoName": "팀 미팅", "n": 3} hope this helps`, map[string]any{"todoName": "팀 미팅", "n": int64(3)}},
		{"float", `{"x": 1.5}`, map[string]any{"x": 1.5}},
		{"nested", `{"o": {"k": 2}, "l": [1, "a"]}`, map[string]any{"o": map[string]any{"k": int64(2)}, "l": []any{int64(1), "a"}}},
		{"no braces", `CHAT`, map[string]any{}},
		{"reversed braces", `} nope {`, map[string]any{}},
		{"malformed", `{"a": }`, map[string]any{}},
		{"two objects", `{"a":1} and {"b":2}`, map[string]any{}},
		{"null", `{} null`, map[string]any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, params.ParseObject(tt.in))
		})
	}
}

func TestApply(t *testing.T) {
	schema := domain.ToolSchema{
		Name: "t",
		Parameters: domain.Parameters{
			Required: []string{"count"},
			Properties: map[string]domain.Property{
				"count": {Type: "integer"},
				"ratio": {Type: "number"},
				"name":  {Type: "string"},
				"unit":  {Type: "string", Default: "metric"},
				"top_k": {Type: "integer", Default: 3},
			},
		},
	}

	t.Run("Coerces and Defaults", func(t *testing.T) {
		in := map[string]any{"count": "12", "ratio": "0.5", "name": "42"}
		got := params.Apply(schema, in)

		assert.Equal(t, int64(12), got["count"])
		assert.Equal(t, 0.5, got["ratio"])
		assert.Equal(t, "42", got["name"], "string properties are never coerced")
		assert.Equal(t, "metric", got["unit"])
		assert.Equal(t, 3, got["top_k"])
		assert.Equal(t, "12", in["count"], "input must not be modified")
	})

	t.Run("Keeps Unparseable Strings", func(t *testing.T) {
		got := params.Apply(schema, map[string]any{"count": "twelve", "ratio": "1.2.3"})
		assert.Equal(t, "twelve", got["count"])
		assert.Equal(t, "1.2.3", got["ratio"])
	})

	t.Run("Present Values Beat Defaults", func(t *testing.T) {
		got := params.Apply(schema, map[string]any{"unit": "imperial"})
		assert.Equal(t, "imperial", got["unit"])
	})

	t.Run("Nil Input", func(t *testing.T) {
		got := params.Apply(schema, nil)
		assert.Equal(t, map[string]any{"unit": "metric", "top_k": 3}, got)
	})
}

func TestValidate(t *testing.T) {
	schema := catalog.ChangeRole()

	tests := []struct {
		name    string
		in      map[string]any
		ok      bool
		missing []string
	}{
		{"complete", map[string]any{"projectId": int64(1), "userName": "김철수", "roleName": "PM"}, true, nil},
		{"declaration order", map[string]any{"userName": "김철수"}, false, []string{"projectId", "roleName"}},
		{"empty values count as missing", map[string]any{"projectId": nil, "userName": "", "roleName": []any{}}, false, []string{"projectId", "userName", "roleName"}},
		{"zero is present", map[string]any{"projectId": 0, "userName": "a", "roleName": "b"}, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, missing := params.Validate(schema, tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.missing, missing)
		})
	}
}

func TestValidate_EmptyParamsReportEveryRequired(t *testing.T) {
	for _, schema := range catalog.Default().List() {
		t.Run(schema.Name, func(t *testing.T) {
			ok, missing := params.Validate(schema, params.Apply(schema, map[string]any{}))

			var want []string
			for _, k := range schema.Parameters.Required {
				if schema.Parameters.Properties[k].Default == nil {
					want = append(want, k)
				}
			}
			assert.Equal(t, len(want) == 0, ok)
			assert.Equal(t, want, missing)
		})
	}
}

func TestBindContext(t *testing.T) {
	cc := domain.ConversationContext{ProjectID: "55", ChatRoomID: "7"}

	t.Run("Fills Bound Properties", func(t *testing.T) {
		got := params.BindContext(catalog.MeetingCreate(), map[string]any{"startTime": "x"}, cc)
		assert.Equal(t, int64(55), got["projectId"])
		assert.Equal(t, int64(7), got["chatRoomId"])
	})

	t.Run("Does Not Override Extracted Values", func(t *testing.T) {
		got := params.BindContext(catalog.TodoCreate(), map[string]any{"projectId": int64(9)}, cc)
		assert.Equal(t, int64(9), got["projectId"])
	})

	t.Run("Unbound Properties Stay Missing", func(t *testing.T) {
		got := params.BindContext(catalog.ChangeRole(), map[string]any{}, cc)
		assert.NotContains(t, got, "projectId")
	})

	t.Run("Missing Context Value", func(t *testing.T) {
		got := params.BindContext(catalog.MeetingCreate(), map[string]any{}, domain.ConversationContext{ProjectID: "55"})
		assert.NotContains(t, got, "chatRoomId")
	})
}

func TestMerge(t *testing.T) {
	base := map[string]any{"userName": "김철수", "roleName": "PM"}
	update := map[string]any{"roleName": "백엔드", "userName": "", "projectId": int64(3)}

	got := params.Merge(base, update)

	assert.Equal(t, map[string]any{"userName": "김철수", "roleName": "백엔드", "projectId": int64(3)}, got)
	assert.Equal(t, "PM", base["roleName"], "base must not be modified")
}

func TestExtractor(t *testing.T) {
	clock := func() time.Time { return time.Date(2025, 8, 29, 9, 0, 0, 0, time.UTC) }
	cc := domain.ConversationContext{ProjectID: "55"}

	t.Run("Parses Model Output", func(t *testing.T) {
		llm := &testutils.ScriptedCompleter{Extract: []string{`{"userName":"김철수"}`}}
		e := params.NewExtractor(llm, params.WithClock(clock))

		got := e.Extract(context.Background(), catalog.ChangeRole(), cc, nil, "김철수 역할 바꿔줘")
		assert.Equal(t, map[string]any{"userName": "김철수"}, got)

		calls := llm.CallsWith(testutils.ExtractTokens)
		require.Len(t, calls, 1)
		assert.Equal(t, params.ExtractionOptions, calls[0].Opts)
		assert.False(t, calls[0].Opts.Sample)
		assert.Contains(t, calls[0].SystemText(), "Today Date: 2025-08-29")
		assert.NotContains(t, calls[0].SystemText(), "collected params so far")
	})

	t.Run("Hints Collected Values", func(t *testing.T) {
		llm := &testutils.ScriptedCompleter{Extract: []string{`{}`}}
		e := params.NewExtractor(llm)

		e.Extract(context.Background(), catalog.ChangeRole(), cc, map[string]any{"userName": "김철수"}, "PM으로")
		assert.Contains(t, llm.Calls()[0].SystemText(), `{"userName":"김철수"}`)
	})

	t.Run("Completion Failure Yields Empty Map", func(t *testing.T) {
		llm := &testutils.ScriptedCompleter{Errs: map[int]error{testutils.ExtractTokens: errors.New("timeout")}}
		e := params.NewExtractor(llm)

		got := e.Extract(context.Background(), catalog.ChangeRole(), cc, nil, "x")
		assert.Empty(t, got)
		assert.NotNil(t, got)
	})
}

func TestNormalize(t *testing.T) {
	in := map[string]any{"projectId": float64(55), "ratio": 0.5, "name": "x", "nested": map[string]any{"n": float64(2)}}
	out := params.Normalize(in)

	assert.Equal(t, int64(55), out["projectId"])
	assert.Equal(t, 0.5, out["ratio"])
	assert.Equal(t, "x", out["name"])
	assert.Equal(t, map[string]any{"n": int64(2)}, out["nested"])
	assert.Equal(t, float64(55), in["projectId"])
}
