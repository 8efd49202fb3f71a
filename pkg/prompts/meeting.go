package prompts

import (
	"strings"

	"github.com/capstone-ai/dna/pkg/domain"
)

// Meeting builds the minutes summarization instruction. The transcript is
// embedded verbatim; identifiers are left out of the header.
func Meeting(transcript, timeRange string) []domain.Message {
	var b strings.Builder
	b.WriteString("당신은 프로젝트를 돕는 전문 비서입니다. 존댓말로 간결하게 회의록을 작성해 주세요.\n")
	b.WriteString("[회의 시간] " + timeRange + "\n")
	b.WriteString("[작성 원칙]\n")
	b.WriteString("- 핵심 결론과 근거를 구조화합니다.\n")
	b.WriteString("- 항목 간 관계(논의 → 결정 → 액션아이템)를 명확히 합니다.\n")
	b.WriteString("- 액션아이템은 담당자/기한을 포함해 목록화합니다.\n")
	b.WriteString("- 불필요한 수사는 제외하고, 사실만 정리합니다.\n")
	b.WriteString("- 내부 식별자(projectId, chatRoomId, userId 등)나 숫자형 프로젝트 표기는 절대 언급하지 않습니다. ex) 프로젝트 1 회의록, 프로젝트 1 팀원들\n\n")
	b.WriteString("[원문 대화]\n")
	b.WriteString(transcript)
	b.WriteString("\n\n[출력 형식]\n")
	b.WriteString("제목: <한 줄>\n")
	b.WriteString("개요: <3~4문장>\n")
	b.WriteString("주요 논의:\n - 항목1\n - 항목2\n")
	b.WriteString("결정 사항:\n - 항목1\n - 항목2\n")
	b.WriteString("액션 아이템:\n - <할 일> (담당자: <이름>, 기한: <날짜>)\n")

	return []domain.Message{domain.System(b.String())}
}

// Answer builds the one-sentence result report used when no template covers
// a tool. params must already be stripped of identifiers.
func Answer(toolName string, params map[string]any, status any) []domain.Message {
	outline := map[string]any{"tool": toolName, "status": status}
	return []domain.Message{
		domain.System("한 문장, 한국어 존댓말, 내부 식별자 언급 금지."),
		domain.System("입력:" + compactJSON(params) + " 결과:" + compactJSON(outline)),
		domain.User("사용자에게 한 문장으로 결과만 정중히 알려 주세요."),
	}
}
