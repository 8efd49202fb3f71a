package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/capstone-ai/dna/pkg/adapters/openai"
	"github.com/capstone-ai/dna/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float32 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newServer(t *testing.T, reply string, got *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(got))

		w.Header().Set("Content-Type", "application/json")
		choices := []map[string]any{}
		if reply != "" {
			choices = append(choices, map[string]any{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply},
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "cmpl-1",
			"object":  "chat.completion",
			"model":   "kanana",
			"choices": choices,
			"usage":   map[string]any{"prompt_tokens": 3, "completion_tokens": 1, "total_tokens": 4},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCompleter_Complete(t *testing.T) {
	tests := []struct {
		name     string
		opts     domain.GenOptions
		wantTemp float32
	}{
		{"sampled", domain.GenOptions{MaxNewTokens: 512, Temperature: 0.7, Sample: true}, 0.7},
		{"greedy", domain.GenOptions{MaxNewTokens: 8, Temperature: 0.2}, 1e-5},
		{"zero temperature", domain.GenOptions{MaxNewTokens: 8, Sample: true}, 1e-5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got chatRequest
			srv := newServer(t, "todo_create", &got)
			c := openai.New(openai.Config{Provider: "vllm", Model: "kanana", APIKey: "secret", BaseURL: srv.URL + "/v1/", Timeout: time.Second})

			out, err := c.Complete(context.Background(), []domain.Message{domain.System("route"), domain.User("회의 잡아줘")}, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, "todo_create", out)

			assert.Equal(t, "kanana", got.Model)
			assert.Equal(t, tt.opts.MaxNewTokens, got.MaxTokens)
			assert.InDelta(t, tt.wantTemp, got.Temperature, 1e-6)
			require.Len(t, got.Messages, 2)
			assert.Equal(t, "system", got.Messages[0].Role)
			assert.Equal(t, "회의 잡아줘", got.Messages[1].Content)
		})
	}
}

func TestCompleter_EmptyChoices(t *testing.T) {
	var got chatRequest
	srv := newServer(t, "", &got)
	c := openai.New(openai.Config{Model: "kanana", APIKey: "secret", BaseURL: srv.URL + "/v1"})

	_, err := c.Complete(context.Background(), []domain.Message{domain.User("hi")}, domain.GenOptions{MaxNewTokens: 8})
	assert.ErrorIs(t, err, openai.ErrEmptyResponse)
}
