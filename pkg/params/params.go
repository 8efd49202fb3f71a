// Package params turns model output into tool parameters: it extracts the
// JSON object, applies schema defaults, coerces numeric strings, binds
// context values and reports missing required fields.
package params

import (
	"bytes"
	"encoding/json"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/capstone-ai/dna/pkg/domain"
)

// ParseObject decodes the single outermost JSON object in text, scanning from
// the first "{" to the last "}". Anything that does not parse yields an empty
// map. Integral numbers decode as int64, others as float64.
func ParseObject(text string) map[string]any {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return map[string]any{}
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(text[start : end+1])))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil || out == nil {
		return map[string]any{}
	}
	if _, err := dec.Token(); err != io.EOF {
		return map[string]any{}
	}
	for k, v := range out {
		out[k] = normalizeNumbers(v)
	}
	return out
}

// Normalize restores int64 for integral numbers in parameters that went
// through a plain JSON round-trip, such as a persisted clarification.
func Normalize(in map[string]any) map[string]any {
	out := Clone(in)
	for k, v := range out {
		out[k] = normalizeNumbers(v)
	}
	return out
}

func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case float64:
		if t == float64(int64(t)) {
			return int64(t)
		}
		return t
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		for k, inner := range t {
			t[k] = normalizeNumbers(inner)
		}
		return t
	case []any:
		for i, inner := range t {
			t[i] = normalizeNumbers(inner)
		}
		return t
	}
	return v
}

// Apply inserts declared defaults for absent properties and converts numeric
// strings for numeric properties. Conversion failures keep the original
// string. The input map is not modified.
func Apply(schema domain.ToolSchema, in map[string]any) map[string]any {
	out := Clone(in)
	for name, prop := range schema.Parameters.Properties {
		if _, ok := out[name]; !ok && prop.Default != nil {
			out[name] = prop.Default
		}
		s, ok := out[name].(string)
		if !ok || !domain.IsNumeric(prop.Type) {
			continue
		}
		out[name] = coerceNumber(s)
	}
	return out
}

func coerceNumber(s string) any {
	trimmed := strings.TrimSpace(s)
	if strings.Contains(trimmed, ".") {
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return f
		}
		return s
	}
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return i
	}
	return s
}

// Validate reports whether every required property is present. missing
// follows the schema's declaration order.
func Validate(schema domain.ToolSchema, p map[string]any) (bool, []string) {
	missing := Missing(schema.Parameters.Required, p)
	return len(missing) == 0, missing
}

// Missing returns the keys of required that are absent or empty in p.
func Missing(required []string, p map[string]any) []string {
	var missing []string
	for _, k := range required {
		if IsEmpty(p[k]) {
			missing = append(missing, k)
		}
	}
	return missing
}

// IsEmpty reports whether v counts as not provided: nil, "", or an empty list.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		return rv.Len() == 0
	}
	return false
}

// BindContext fills properties that declare a context binding from the
// conversation context when they are not provided.
func BindContext(schema domain.ToolSchema, p map[string]any, cc domain.ConversationContext) map[string]any {
	out := Clone(p)
	for name, prop := range schema.Parameters.Properties {
		if prop.Context == "" || !IsEmpty(out[name]) {
			continue
		}
		if v, ok := cc.Lookup(prop.Context); ok {
			out[name] = v
		}
	}
	return out
}

// Merge layers update over base. Empty values in update never erase a
// previously collected value.
func Merge(base, update map[string]any) map[string]any {
	out := Clone(base)
	for k, v := range update {
		if IsEmpty(v) {
			if _, ok := out[k]; ok {
				continue
			}
		}
		out[k] = v
	}
	return out
}

// Clone returns a shallow copy that is never nil.
func Clone(p map[string]any) map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
