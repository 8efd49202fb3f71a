package executor

import (
	"context"
	"fmt"

	"github.com/capstone-ai/dna/pkg/domain"
)

// MaxSearchResults bounds web_search top_k.
const MaxSearchResults = 50

// NewBuiltinLocal returns a registry with the demonstration functions.
func NewBuiltinLocal() *Local {
	l := NewLocal()
	l.Register("get_current_weather", currentWeather)
	l.Register("web_search", webSearch)
	l.Register("compute_sum", computeSum)
	return l
}

func currentWeather(_ context.Context, p map[string]any) (map[string]any, error) {
	return map[string]any{
		"location":  stringOr(p["location"], "Seoul, KR"),
		"unit":      stringOr(p["unit"], "metric"),
		"temp":      28.3,
		"condition": "Partly Cloudy",
	}, nil
}

func webSearch(_ context.Context, p map[string]any) (map[string]any, error) {
	q := stringOr(p["q"], "example")
	k := 3
	if v, ok := p["top_k"]; ok {
		n, ok := domain.AsInt(v)
		if !ok {
			return nil, fmt.Errorf("top_k must be an integer, got %v", v)
		}
		k = min(max(n, 1), MaxSearchResults)
	}
	hits := make([]map[string]any, 0, k)
	for i := 1; i <= k; i++ {
		hits = append(hits, map[string]any{
			"title": fmt.Sprintf("Result %d for %s", i, q),
			"url":   fmt.Sprintf("https://example.com/%d", i),
		})
	}
	return map[string]any{"results": hits}, nil
}

func computeSum(_ context.Context, p map[string]any) (map[string]any, error) {
	var sum float64
	switch nums := p["numbers"].(type) {
	case nil:
	case []any:
		for _, n := range nums {
			f, ok := toFloat(n)
			if !ok {
				return nil, fmt.Errorf("numbers must be numeric, got %v", n)
			}
			sum += f
		}
	case []float64:
		for _, n := range nums {
			sum += n
		}
	case []int:
		for _, n := range nums {
			sum += float64(n)
		}
	default:
		return nil, fmt.Errorf("numbers must be a list, got %T", nums)
	}
	return map[string]any{"sum": sum}, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	if i, ok := domain.AsInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}
