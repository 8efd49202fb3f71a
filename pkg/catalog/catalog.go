// Package catalog holds the static registry of tool schemas.
package catalog

import (
	"github.com/capstone-ai/dna/pkg/domain"
)

// Catalog maps tool names to their schemas. Declaration order is preserved
// because it is the order tools are presented to the router.
// A Catalog is immutable after construction.
type Catalog struct {
	tools []domain.ToolSchema
	index map[string]int
}

// New builds a catalog. A later schema with a duplicate name replaces the
// earlier one in its original position.
func New(tools ...domain.ToolSchema) *Catalog {
	c := &Catalog{index: make(map[string]int, len(tools))}
	for _, t := range tools {
		if t.Name == "" {
			continue
		}
		if i, ok := c.index[t.Name]; ok {
			c.tools[i] = t
			continue
		}
		c.index[t.Name] = len(c.tools)
		c.tools = append(c.tools, t)
	}
	return c
}

// List returns all schemas in declaration order.
func (c *Catalog) List() []domain.ToolSchema {
	out := make([]domain.ToolSchema, len(c.tools))
	copy(out, c.tools)
	return out
}

// Find looks up a schema by name. Absence is reported with false.
func (c *Catalog) Find(name string) (domain.ToolSchema, bool) {
	i, ok := c.index[name]
	if !ok {
		return domain.ToolSchema{}, false
	}
	return c.tools[i], true
}

// Names returns the tool names in declaration order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.tools))
	for i, t := range c.tools {
		out[i] = t.Name
	}
	return out
}

// Len returns the number of tools.
func (c *Catalog) Len() int { return len(c.tools) }

// Merge returns a new catalog with other's tools layered over c.
func (c *Catalog) Merge(other *Catalog) *Catalog {
	if other == nil {
		return New(c.tools...)
	}
	return New(append(c.List(), other.tools...)...)
}
