package clarify

import (
	"fmt"
	"strings"

	"github.com/capstone-ai/dna/pkg/domain"
)

// Question builds the Korean clarification question: one bullet per missing
// property and a single illustrative example.
func Question(schema domain.ToolSchema, missing []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "요청을 처리하려면 다음 정보가 필요합니다(도구: %s).\n", schema.Name)
	b.WriteString("부족한 항목을 알려주세요:")
	for _, k := range missing {
		b.WriteString("\n- " + k)
		if prop, ok := schema.Property(k); ok && prop.Description != "" {
			b.WriteString(": " + prop.Description)
		}
	}
	b.WriteString("\n\n")
	b.WriteString(example(schema, missing))
	return b.String()
}

func example(schema domain.ToolSchema, missing []string) string {
	for _, k := range missing {
		if prop, ok := schema.Property(k); ok && prop.Example != "" {
			return fmt.Sprintf("예: %s 은 '%s' 형식으로 답해주세요.", k, prop.Example)
		}
	}
	if len(missing) == 0 {
		return ""
	}
	return fmt.Sprintf("예: '%s: <값>' 형식으로 답해주세요.", missing[0])
}
