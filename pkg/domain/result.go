package domain

import (
	"encoding/json"
	"strconv"
)

// Well-known Result keys.
const (
	KeyTool       = "tool"
	KeyError      = "error"
	KeyHTTPStatus = "http_status"
	KeyData       = "data"
	KeyURL        = "url"
	KeyResult     = "result"
	KeyStep       = "step"
	KeyAnswer     = "_answer"
)

// Result is the open record produced by an execution backend. It always
// carries "tool" and either a success payload or an "error" field.
type Result map[string]any

// NewResult starts a record for the given tool.
func NewResult(tool string) Result {
	return Result{KeyTool: tool}
}

// ErrorResult builds a captured failure record.
func ErrorResult(tool string, err any) Result {
	return Result{KeyTool: tool, KeyError: err}
}

// Tool returns the tool name recorded in the result.
func (r Result) Tool() string {
	s, _ := r[KeyTool].(string)
	return s
}

// HTTPStatus returns the recorded status code, if any.
func (r Result) HTTPStatus() (int, bool) {
	v, ok := r[KeyHTTPStatus]
	if !ok || v == nil {
		return 0, false
	}
	return AsInt(v)
}

// HasError reports whether the record carries a non-empty error field.
func (r Result) HasError() bool {
	v, ok := r[KeyError]
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr {
		return s != ""
	}
	return true
}

// Failed reports whether the record represents a failure: an error field or
// an HTTP status of 400 or above.
func (r Result) Failed() bool {
	if r.HasError() {
		return true
	}
	if status, ok := r.HTTPStatus(); ok {
		return status >= 400
	}
	return false
}

// With returns a shallow copy with one extra key.
func (r Result) With(key string, value any) Result {
	out := make(Result, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	out[key] = value
	return out
}

// AsInt converts the numeric shapes produced by Go code, JSON decoding and
// YAML decoding into an int.
func AsInt(v any) (int, bool) {
	n, ok := AsInt64(v)
	return int(n), ok
}

// AsInt64 is AsInt for 64-bit values. Fractional floats and non-numeric
// strings are rejected.
func AsInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float32:
		if float32(int64(n)) == n {
			return int64(n), true
		}
	case float64:
		if float64(int64(n)) == n {
			return int64(n), true
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
	case string:
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}
