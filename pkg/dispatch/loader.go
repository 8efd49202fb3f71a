package dispatch

import (
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/capstone-ai/dna/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// LoadFile reads a dispatch table from a YAML file.
func LoadFile(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dispatch table: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML dispatch table document.
func Parse(data []byte) (Table, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse dispatch table: %w", err)
	}
	return FromMap(raw)
}

// FromMap decodes a generic table once, at load time. Each value is either
// a rule list, a map with an "exec" key, or a bare exec spec. "${VAR}"
// references in URLs are expanded from the environment.
func FromMap(raw map[string]any) (Table, error) {
	table := make(Table, len(raw))
	for tool, v := range raw {
		entry, err := decodeEntry(v)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", tool, err)
		}
		table[tool] = entry
	}
	return table, nil
}

func decodeEntry(v any) (Entry, error) {
	switch t := v.(type) {
	case []any:
		rules := make([]Rule, 0, len(t))
		for i, item := range t {
			var r Rule
			if err := decode(item, &r); err != nil {
				return Entry{}, fmt.Errorf("rule %d: %w", i, err)
			}
			spec, err := finalize(r.Exec)
			if err != nil {
				return Entry{}, fmt.Errorf("rule %d: %w", i, err)
			}
			r.Exec = spec
			rules = append(rules, r)
		}
		return RuleEntry(rules...), nil
	case map[string]any:
		var body any = t
		if inner, ok := t["exec"]; ok {
			body = inner
		}
		var spec domain.ExecSpec
		if err := decode(body, &spec); err != nil {
			return Entry{}, err
		}
		spec, err := finalize(spec)
		if err != nil {
			return Entry{}, err
		}
		return SingleEntry(spec), nil
	}
	return Entry{}, fmt.Errorf("%w: unsupported entry type %T", domain.ErrInvalidSpec, v)
}

func decode(in, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			secondsToDuration,
		),
		Result: out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

// secondsToDuration reads bare numeric timeouts as seconds.
func secondsToDuration(from, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	switch n := data.(type) {
	case int:
		return time.Duration(n) * time.Second, nil
	case float64:
		return time.Duration(n * float64(time.Second)), nil
	}
	return data, nil
}

func finalize(spec domain.ExecSpec) (domain.ExecSpec, error) {
	kind, err := domain.ParseExecKind(string(spec.Kind))
	if err != nil {
		return spec, err
	}
	spec.Kind = kind
	spec.URL = os.ExpandEnv(spec.URL)
	if err := spec.Validate(); err != nil {
		return spec, err
	}
	return spec, nil
}
