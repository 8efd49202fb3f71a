package answer

import "regexp"

// Placeholder replaces masked identifiers.
const Placeholder = "***"

type rule struct {
	re   *regexp.Regexp
	repl string
}

// Order matters: bearer tokens are masked before the authorization header
// swallows them.
var rules = []rule{
	{regexp.MustCompile(`(?i)("?(?:project_?id|chat_?room_?id|user_?id|token)"?\s*[:=]\s*)"?\d+"?`), `${1}"` + Placeholder + `"`},
	{regexp.MustCompile(`(프로젝트\s*ID\s*[:：]?\s*)\d+`), "${1}" + Placeholder},
	{regexp.MustCompile(`(프로젝트\s*[#:]?\s*)\d+`), "${1}" + Placeholder},
	{regexp.MustCompile(`(채팅방\s*(?:ID)?\s*[#:：]?\s*)\d+`), "${1}" + Placeholder},
	{regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9\-._~+/]+=*`), "${1}" + Placeholder},
	{regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)\S+`), "${1}" + Placeholder},
}

// Sanitize masks numeric project, chat room and user identifiers and
// credentials in user-facing text.
func Sanitize(text string) string {
	for _, r := range rules {
		text = r.re.ReplaceAllString(text, r.repl)
	}
	return text
}
