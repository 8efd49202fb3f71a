package clarify

import (
	"fmt"

	"github.com/capstone-ai/dna/pkg/catalog"
	"github.com/capstone-ai/dna/pkg/domain"
	"github.com/capstone-ai/dna/pkg/params"
)

// Default returns a Machine with the rules of the built-in business tools.
func Default(opts ...Option) *Machine {
	base := []Option{
		WithNormalizer(catalog.ToolChangeRole, NormalizeChangeRole),
		WithRequired(catalog.ToolChangeRole, "projectId", "userName", "roleName"),
	}
	return NewMachine(append(base, opts...)...)
}

// NormalizeChangeRole maps the aliases the model tends to produce onto the
// canonical change_role fields.
func NormalizeChangeRole(in map[string]any) map[string]any {
	p := params.Clone(in)
	if params.IsEmpty(p["userName"]) {
		if v, ok := p["memberName"]; ok {
			p["userName"] = v
			delete(p, "memberName")
		}
	}
	if params.IsEmpty(p["roleName"]) {
		if v, ok := p["roleIds"]; ok {
			p["roleName"] = stringify(v)
			delete(p, "roleIds")
		} else if v, ok := p["role"]; ok {
			p["roleName"] = v
			delete(p, "role")
		}
	}
	if v, ok := p["project_id"]; ok {
		if n, ok := domain.AsInt64(v); ok {
			p["project_id"] = n
		}
	}
	return p
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
