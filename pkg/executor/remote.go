package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/capstone-ai/dna/internal/logging"
	"github.com/capstone-ai/dna/pkg/domain"
	"github.com/google/uuid"
)

// Remote forwards tool calls to a JSON-RPC 2.0 endpoint over HTTP. Unlike
// the other backends, a remote error envelope is returned as an error.
type Remote struct {
	endpoint   string
	client     *http.Client
	authHeader string
	authToken  string
	timeout    time.Duration
	newID      func() string
	logger     *slog.Logger
}

// RemoteOption configures a Remote.
type RemoteOption func(*Remote)

// WithAuth sends token in header on every call. An empty header defaults
// to Authorization.
func WithAuth(header, token string) RemoteOption {
	return func(r *Remote) {
		if header != "" {
			r.authHeader = header
		}
		r.authToken = token
	}
}

// WithRemoteClient sets the underlying client.
func WithRemoteClient(c *http.Client) RemoteOption {
	return func(r *Remote) { r.client = c }
}

// WithRemoteTimeout sets the per-call timeout used when a spec has none.
func WithRemoteTimeout(d time.Duration) RemoteOption {
	return func(r *Remote) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithIDGenerator overrides the request id generator.
func WithIDGenerator(fn func() string) RemoteOption {
	return func(r *Remote) { r.newID = fn }
}

// WithRemoteLogger sets the logger.
func WithRemoteLogger(l *slog.Logger) RemoteOption {
	return func(r *Remote) { r.logger = l }
}

// NewRemote creates a client for endpoint.
func NewRemote(endpoint string, opts ...RemoteOption) *Remote {
	r := &Remote{
		endpoint:   strings.TrimRight(endpoint, "/"),
		client:     http.DefaultClient,
		authHeader: "Authorization",
		timeout:    DefaultTimeout,
		newID:      func() string { return uuid.NewString() },
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type rpcRequest struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      string         `json:"id"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Result  any             `json:"result"`
	Error   json.RawMessage `json:"error"`
}

// Execute forwards the call under spec.Name, or toolName when unset, and
// wraps the remote result as {"tool", "result"}.
func (r *Remote) Execute(ctx context.Context, toolName string, params map[string]any, spec domain.ExecSpec) (domain.Result, error) {
	name := spec.Name
	if name == "" {
		name = toolName
	}
	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = r.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := r.Call(ctx, name, params)
	if err != nil {
		return nil, err
	}
	res := domain.NewResult(toolName)
	res[domain.KeyResult] = result
	return res, nil
}

// Call performs one JSON-RPC request.
func (r *Remote) Call(ctx context.Context, method string, params map[string]any) (any, error) {
	if params == nil {
		params = map[string]any{}
	}
	payload, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: r.newID(), Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("failed to encode remote call %s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build remote call %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if r.authToken != "" {
		req.Header.Set(r.authHeader, r.authToken)
	}

	r.logger.Info("remote call", "method", method, "endpoint", r.endpoint)
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrRemoteCall, method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: reading response: %v", domain.ErrRemoteCall, method, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s: http %d", domain.ErrRemoteCall, method, resp.StatusCode)
	}

	var out rpcResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %s: invalid envelope: %v", domain.ErrRemoteCall, method, err)
	}
	if envelopeError(out.Error) {
		return nil, fmt.Errorf("%w: %s: %s", domain.ErrRemoteCall, method, string(out.Error))
	}
	return out.Result, nil
}

func envelopeError(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	switch s {
	case "", "null", `""`, "{}":
		return false
	}
	return true
}
