package domain

// Property describes one parameter of a tool.
type Property struct {
	Type        string `json:"type" yaml:"type" mapstructure:"type"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	// Default is inserted when the property is absent. Nil means no default.
	Default any `json:"default,omitempty" yaml:"default,omitempty" mapstructure:"default"`
	// Context names the ConversationContext key that fills the property when absent.
	Context string `json:"context,omitempty" yaml:"context,omitempty" mapstructure:"context"`
	// Example is shown in clarification questions.
	Example string `json:"example,omitempty" yaml:"example,omitempty" mapstructure:"example"`
}

// Parameters is the JSON-Schema-like parameter block of a tool.
type Parameters struct {
	Type       string              `json:"type,omitempty" yaml:"type,omitempty" mapstructure:"type"`
	Required   []string            `json:"required" yaml:"required" mapstructure:"required"`
	Properties map[string]Property `json:"properties" yaml:"properties" mapstructure:"properties"`
}

// ToolSchema is the immutable description of a tool. Name is the unique key.
type ToolSchema struct {
	Name        string     `json:"name" yaml:"name" mapstructure:"name"`
	Description string     `json:"description" yaml:"description" mapstructure:"description"`
	Parameters  Parameters `json:"parameters" yaml:"parameters" mapstructure:"parameters"`
	// Exec is an optional execution stub used when the dispatch table has no entry.
	Exec *ExecSpec `json:"exec,omitempty" yaml:"exec,omitempty" mapstructure:"exec"`
}

// Property returns the named property and whether it is declared.
func (s ToolSchema) Property(name string) (Property, bool) {
	p, ok := s.Parameters.Properties[name]
	return p, ok
}

// IsNumeric reports whether a schema type denotes a number.
func IsNumeric(typ string) bool {
	switch typ {
	case "number", "integer", "int", "float", "double":
		return true
	}
	return false
}
