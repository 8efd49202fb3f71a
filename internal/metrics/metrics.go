// Package metrics exposes orchestrator activity as Prometheus collectors.
package metrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/capstone-ai/dna/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors fed by lifecycle hooks.
type Metrics struct {
	registry     *prometheus.Registry
	routes       *prometheus.CounterVec
	clarifies    *prometheus.CounterVec
	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		routes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dna_turns_total",
				Help: "Handled turns by mode and route",
			},
			[]string{"mode", "route"},
		),
		clarifies: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dna_clarifications_total",
				Help: "Clarification questions asked",
			},
			[]string{"tool_name", "turn"},
		),
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dna_tool_calls_total",
				Help: "Tool executions by backend and outcome",
			},
			[]string{"tool_name", "backend", "outcome"},
		),
		toolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dna_tool_duration_seconds",
				Help:    "Duration of tool executions",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool_name"},
		),
	}
	m.registry.MustRegister(m.routes, m.clarifies, m.toolCalls, m.toolDuration)
	return m
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRoute: func(_ context.Context, e *domain.RouteEvent) {
			m.routes.WithLabelValues(string(e.Mode), e.Route).Inc()
		},
		OnClarify: func(_ context.Context, e *domain.ClarifyEvent) {
			m.clarifies.WithLabelValues(e.ToolName, turnBucket(e.Turn)).Inc()
		},
		OnToolReturn: func(_ context.Context, e *domain.ToolEvent) {
			outcome := "ok"
			if e.IsError {
				outcome = "error"
			}
			m.toolCalls.WithLabelValues(e.ToolName, e.Backend, outcome).Inc()
			m.toolDuration.WithLabelValues(e.ToolName).Observe(e.Duration.Seconds())
		},
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// turnBucket keeps the turn label bounded: "1", "2", then "3+".
func turnBucket(turn int) string {
	if turn >= 3 {
		return "3+"
	}
	return strconv.Itoa(max(turn, 1))
}
