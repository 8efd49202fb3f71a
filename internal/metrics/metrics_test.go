package metrics_test

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/capstone-ai/dna/internal/metrics"
	"github.com/capstone-ai/dna/pkg/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	m := metrics.New()
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnRoute(ctx, &domain.RouteEvent{Mode: domain.ModeAuto, Route: "http"})
	hooks.OnRoute(ctx, &domain.RouteEvent{Mode: domain.ModeAuto, Route: "http"})
	hooks.OnClarify(ctx, &domain.ClarifyEvent{ToolName: "change_role", Turn: 1})
	hooks.OnToolReturn(ctx, &domain.ToolEvent{ToolName: "todo_create", Backend: "http", IsError: true, Duration: 20 * time.Millisecond})

	count, err := testutil.GatherAndCount(m.Registry(), "dna_turns_total", "dna_clarifications_total", "dna_tool_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `dna_turns_total{mode="auto",route="http"} 2`)
	assert.Contains(t, string(body), `dna_tool_calls_total{backend="http",outcome="error",tool_name="todo_create"} 1`)
}

func TestMetrics_ClarifyTurnBuckets(t *testing.T) {
	m := metrics.New()
	hooks := m.Hooks()
	ctx := context.Background()

	for turn := 1; turn <= 12; turn++ {
		hooks.OnClarify(ctx, &domain.ClarifyEvent{ToolName: "change_role", Turn: turn})
	}

	count, err := testutil.GatherAndCount(m.Registry(), "dna_clarifications_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count, "one series per bucket")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `dna_clarifications_total{tool_name="change_role",turn="1"} 1`)
	assert.Contains(t, string(body), `dna_clarifications_total{tool_name="change_role",turn="3+"} 10`)
}
