package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/capstone-ai/dna/pkg/domain"
	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of a catalog file.
type File struct {
	Tools []domain.ToolSchema `yaml:"tools" json:"tools"`
}

// LoadFile reads a catalog from a YAML or JSON file, chosen by extension.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	format := "yaml"
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		format = "json"
	}
	return Parse(data, format)
}

// Parse decodes a catalog document. Exec stubs have their type normalized,
// so legacy "mcp" stubs become remote-call.
func Parse(data []byte, format string) (*Catalog, error) {
	var f File
	switch format {
	case "json":
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse catalog json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse catalog yaml: %w", err)
		}
	}

	for i := range f.Tools {
		t := &f.Tools[i]
		if t.Name == "" {
			return nil, fmt.Errorf("catalog entry %d has no name", i)
		}
		if t.Exec == nil {
			continue
		}
		kind, err := domain.ParseExecKind(string(t.Exec.Kind))
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", t.Name, err)
		}
		t.Exec.Kind = kind
		if err := t.Exec.Validate(); err != nil {
			return nil, fmt.Errorf("tool %s: %w", t.Name, err)
		}
	}
	return New(f.Tools...), nil
}
