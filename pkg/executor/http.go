package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/capstone-ai/dna/internal/logging"
	"github.com/capstone-ai/dna/pkg/domain"
)

// maxErrorText caps raw error bodies copied into a Result.
const maxErrorText = 2000

// HTTP executes http specs. It never returns transport failures as errors;
// they are captured in the Result with the attempted URL.
type HTTP struct {
	client  *http.Client
	headers map[string]string
	timeout time.Duration
	logger  *slog.Logger
}

// HTTPOption configures the HTTP backend.
type HTTPOption func(*HTTP)

// WithClient sets the underlying client.
func WithClient(c *http.Client) HTTPOption {
	return func(h *HTTP) { h.client = c }
}

// WithHeaders adds headers to every request.
func WithHeaders(headers map[string]string) HTTPOption {
	return func(h *HTTP) {
		for k, v := range headers {
			h.headers[k] = v
		}
	}
}

// WithTimeout sets the timeout used when a spec has none.
func WithTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// WithHTTPLogger sets the logger.
func WithHTTPLogger(l *slog.Logger) HTTPOption {
	return func(h *HTTP) { h.logger = l }
}

// NewHTTP creates the HTTP backend.
func NewHTTP(opts ...HTTPOption) *HTTP {
	h := &HTTP{
		client:  http.DefaultClient,
		headers: map[string]string{},
		timeout: DefaultTimeout,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Execute issues the request described by spec.
func (h *HTTP) Execute(ctx context.Context, toolName string, params map[string]any, spec domain.ExecSpec) domain.Result {
	if spec.URL == "" {
		return domain.ErrorResult(toolName, "HTTP spec.url missing")
	}
	method := strings.ToUpper(spec.Method)
	if method == "" {
		method = http.MethodGet
	}
	query, body := mapFields(params, spec.Mapping)

	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = h.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := h.newRequest(ctx, method, spec.URL, query, body)
	if err != nil {
		return h.transportError(toolName, spec.URL, err)
	}

	h.logger.Info("http exec", "tool", toolName, "method", method, "url", spec.URL, "query", query.Encode())

	resp, err := h.client.Do(req)
	if err != nil {
		return h.transportError(toolName, spec.URL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return h.transportError(toolName, spec.URL, err)
	}

	if resp.StatusCode >= 400 {
		h.logger.Warn("http exec failed", "tool", toolName, "url", spec.URL, "status", resp.StatusCode)
		return statusError(toolName, spec.URL, resp.StatusCode, raw)
	}

	res := domain.NewResult(toolName)
	res[domain.KeyHTTPStatus] = resp.StatusCode
	res[domain.KeyData] = decodeBody(resp.Header.Get("Content-Type"), raw)
	return res
}

func (h *HTTP) newRequest(ctx context.Context, method, rawURL string, query url.Values, body map[string]any) (*http.Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var reader io.Reader
	if method != http.MethodGet && len(body) > 0 {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		h.logger.Debug("http exec body", "url", rawURL, "body", logging.Truncate(string(payload), 4000))
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range h.headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

func (h *HTTP) transportError(toolName, rawURL string, err error) domain.Result {
	h.logger.Warn("http exec transport failure", "tool", toolName, "url", rawURL, "err", err)
	res := domain.ErrorResult(toolName, err.Error())
	res[domain.KeyURL] = rawURL
	return res
}

// mapFields walks the mapping in key order, routing present, non-nil params
// to the query string or the JSON body.
func mapFields(params map[string]any, mapping map[string]string) (url.Values, map[string]any) {
	query := url.Values{}
	body := map[string]any{}

	keys := make([]string, 0, len(mapping))
	for k := range mapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, pk := range keys {
		v, ok := params[pk]
		if !ok || v == nil {
			continue
		}
		target := mapping[pk]
		switch {
		case strings.HasPrefix(target, "query."):
			query.Set(strings.TrimPrefix(target, "query."), queryValue(v))
		case strings.HasPrefix(target, "body."):
			body[strings.TrimPrefix(target, "body.")] = v
		}
	}
	return query, body
}

func queryValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if n, ok := domain.AsInt64(t); ok {
			return jsonText(n)
		}
	}
	return jsonText(v)
}

func jsonText(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func statusError(toolName, rawURL string, status int, raw []byte) domain.Result {
	text := string(raw)
	if len(text) > maxErrorText {
		text = text[:maxErrorText]
	}

	var parsed any
	hasJSON := json.Unmarshal(raw, &parsed) == nil

	res := domain.NewResult(toolName)
	res[domain.KeyHTTPStatus] = status
	res["reason"] = http.StatusText(status)
	res[domain.KeyURL] = rawURL

	message := text
	obj, isObj := parsed.(map[string]any)
	if isObj {
		res["error_code"] = obj["error"]
		if m, ok := obj["message"].(string); ok && m != "" {
			message = m
		}
	} else {
		res["error_code"] = nil
	}
	if message == "" {
		message = http.StatusText(status)
	}
	res["error_message"] = message
	if hasJSON {
		res["response_body"] = parsed
	} else {
		res["response_body"] = text
	}
	res[domain.KeyError] = message
	return res
}

func decodeBody(contentType string, raw []byte) any {
	if strings.HasPrefix(contentType, "application/json") {
		var v any
		if err := json.Unmarshal(raw, &v); err == nil {
			return v
		}
	}
	return string(raw)
}
