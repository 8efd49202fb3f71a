// Package openai implements ports.Completer over any OpenAI-compatible
// chat completion endpoint (OpenAI, vLLM, Ollama, TGI).
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/capstone-ai/dna/internal/logging"
	"github.com/capstone-ai/dna/pkg/domain"
	"github.com/sashabaranov/go-openai"
)

// DefaultTimeout bounds one completion request.
const DefaultTimeout = 30 * time.Second

// greedyTemperature stands in for zero, which the client omits from the
// request and servers then replace with their own default.
const greedyTemperature = 1e-5

// maxLoggedPrompt caps prompts written to debug logs.
const maxLoggedPrompt = 4000

// ErrEmptyResponse is returned when the server answers without choices.
var ErrEmptyResponse = errors.New("empty response from model")

// Config selects the endpoint and model.
type Config struct {
	Provider string // openai, vllm, ollama or any OpenAI-compatible name
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
}

// Completer calls a chat completion endpoint.
type Completer struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Completer.
type Option func(*Completer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Completer) { c.logger = l }
}

// defaultBaseURLs are used when Config.BaseURL is empty.
var defaultBaseURLs = map[string]string{
	"vllm":   "http://localhost:8000/v1",
	"ollama": "http://localhost:11434/v1",
}

// New creates a Completer.
func New(cfg Config, opts ...Option) *Completer {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURLs[strings.ToLower(cfg.Provider)]
	}
	if baseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(baseURL, "/")
	}
	clientConfig.HTTPClient = newHTTPClient()

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Completer{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   cfg.Model,
		timeout: timeout,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete implements ports.Completer.
func (c *Completer) Complete(ctx context.Context, messages []domain.Message, opts domain.GenOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   opts.MaxNewTokens,
		Temperature: opts.Temperature,
		Messages:    convertMessages(messages),
	}
	if !opts.Sample || req.Temperature <= 0 {
		req.Temperature = greedyTemperature
	}

	if c.logger.Enabled(ctx, slog.LevelDebug) {
		c.logger.Debug("model request",
			"model", c.model,
			"max_tokens", opts.MaxNewTokens,
			"prompt", logging.Truncate(renderPrompt(messages), maxLoggedPrompt),
		)
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	content := resp.Choices[0].Message.Content
	c.logger.Debug("model response",
		"content_length", len(content),
		"total_tokens", resp.Usage.TotalTokens,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

func convertMessages(messages []domain.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}

func renderPrompt(messages []domain.Message) string {
	var b strings.Builder
	for _, m := range messages {
		b.WriteString("[" + string(m.Role) + "] " + m.Content + "\n")
	}
	return b.String()
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}
