package domain

import (
	"fmt"
	"strings"
	"time"
)

// ExecKind tags the ExecSpec variant.
type ExecKind string

const (
	ExecLocal  ExecKind = "local"
	ExecHTTP   ExecKind = "http"
	ExecRemote ExecKind = "remote-call"
)

// ParseExecKind normalizes a configured backend type. "mcp" and "rpc" are
// accepted as aliases of remote-call; an empty type means local.
func ParseExecKind(s string) (ExecKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "local":
		return ExecLocal, nil
	case "http":
		return ExecHTTP, nil
	case "remote-call", "remote", "mcp", "rpc":
		return ExecRemote, nil
	}
	return "", fmt.Errorf("%w: unknown exec type %q", ErrInvalidSpec, s)
}

// ExecSpec describes one concrete execution. Which fields are meaningful
// depends on Kind:
//
//   - local: Name is the registered function name (defaults to the tool name).
//   - http: Method, URL and Mapping (param key -> "query.<field>" or "body.<field>").
//   - remote-call: Name overrides the forwarded tool name.
type ExecSpec struct {
	Kind    ExecKind          `json:"type" yaml:"type" mapstructure:"type"`
	Name    string            `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Method  string            `json:"method,omitempty" yaml:"method,omitempty" mapstructure:"method"`
	URL     string            `json:"url,omitempty" yaml:"url,omitempty" mapstructure:"url"`
	Mapping map[string]string `json:"mapping,omitempty" yaml:"mapping,omitempty" mapstructure:"mapping"`
	Timeout time.Duration     `json:"timeout,omitempty" yaml:"timeout,omitempty" mapstructure:"timeout"`
}

// LocalSpec builds a local execution spec.
func LocalSpec(name string) ExecSpec {
	return ExecSpec{Kind: ExecLocal, Name: name}
}

// HTTPSpec builds an HTTP execution spec.
func HTTPSpec(method, url string, mapping map[string]string) ExecSpec {
	return ExecSpec{Kind: ExecHTTP, Method: method, URL: url, Mapping: mapping}
}

// RemoteSpec builds a remote-call execution spec.
func RemoteSpec(name string) ExecSpec {
	return ExecSpec{Kind: ExecRemote, Name: name}
}

// Validate rejects specs that cannot be executed.
func (s ExecSpec) Validate() error {
	switch s.Kind {
	case ExecLocal, ExecRemote:
		return nil
	case ExecHTTP:
		for key, target := range s.Mapping {
			if !strings.HasPrefix(target, "query.") && !strings.HasPrefix(target, "body.") {
				return fmt.Errorf("%w: mapping %s -> %q must target query.<field> or body.<field>", ErrInvalidSpec, key, target)
			}
		}
		return nil
	}
	return fmt.Errorf("%w: unknown exec type %q", ErrInvalidSpec, s.Kind)
}
