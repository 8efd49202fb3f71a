package answer_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/capstone-ai/dna/internal/testutils"
	"github.com/capstone-ai/dna/pkg/answer"
	"github.com/capstone-ai/dna/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"projectId": 123, "name": "x"}`, `{"projectId": "***", "name": "x"}`},
		{`projectId=55 저장`, `projectId="***" 저장`},
		{`chatRoomId: "77"`, `chatRoomId: "***"`},
		{`userId:9`, `userId:"***"`},
		{`프로젝트 ID: 42의 일정`, `프로젝트 ID: ***의 일정`},
		{`프로젝트 7 회의록`, `프로젝트 *** 회의록`},
		{`프로젝트#7`, `프로젝트#***`},
		{`채팅방 ID：12 기록`, `채팅방 ID：*** 기록`},
		{`채팅방 3`, `채팅방 ***`},
		{`Authorization: Bearer abc.DEF-123_x=`, `Authorization: *** ***`},
		{`use bearer sk-live-9f8e7d6c`, `use bearer ***`},
		{`authorization=token123`, `authorization=***`},
		{`2023년 5월 24일 회의`, `2023년 5월 24일 회의`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, answer.Sanitize(tt.in))
		})
	}
}

func TestSanitize_NoIdentifierDigitsSurvive(t *testing.T) {
	digits := regexp.MustCompile(`\d`)
	inputs := []string{
		"projectId: 123456789",
		`"projectId":"987654"`,
		"결과: projectId = 31415 그리고 chatRoomId=2718",
		"헤더 Bearer 0123456789abcdef 사용",
		"project_id: 123",
		"projectID: 456",
		"chat_room_id=789",
		"ProjectId: 42",
		`{"user_id": "77", "TOKEN": 5}`,
	}
	for _, in := range inputs {
		out := answer.Sanitize(in)
		assert.False(t, digits.MatchString(out), "%q -> %q", in, out)
	}
}

func TestSynthesizer_Templates(t *testing.T) {
	llm := &testutils.ScriptedCompleter{Answer: "should not be used"}
	s := answer.New(llm)
	ctx := context.Background()

	tests := []struct {
		name   string
		tool   string
		params map[string]any
		result domain.Result
		want   string
	}{
		{
			name:   "todo success with date",
			tool:   "todo_create",
			params: map[string]any{"todoName": "팀 미팅", "startDate": "2023-05-24", "projectId": 55},
			result: domain.Result{"tool": "todo_create", "http_status": 200},
			want:   "‘팀 미팅’라는 이름의 새로운 작업이 2023년 5월 24일에 작업 생성이 성공적으로 완료되었습니다.",
		},
		{
			name:   "todo success without status",
			tool:   "todo_create",
			params: map[string]any{"todoName": "팀 미팅", "startDate": "soon"},
			result: domain.Result{"tool": "todo_create"},
			want:   "‘팀 미팅’라는 이름의 새로운 작업 생성이 성공적으로 완료되었습니다.",
		},
		{
			name:   "todo failure",
			tool:   "todo_create",
			params: map[string]any{},
			result: domain.Result{"tool": "todo_create", "http_status": 500},
			want:   "‘새 작업’ 작업 생성에 실패했습니다. 서버 응답을 확인해 다시 시도해 주시기 바랍니다.",
		},
		{
			name:   "todo transport failure",
			tool:   "todo_create",
			params: map[string]any{"todoName": "a"},
			result: domain.Result{"tool": "todo_create", "error": "connection refused"},
			want:   "‘a’ 작업 생성에 실패했습니다. 서버 응답을 확인해 다시 시도해 주시기 바랍니다.",
		},
		{
			name:   "role success",
			tool:   "change_role",
			params: map[string]any{"userName": "김철수", "roleName": "PM"},
			result: domain.Result{"tool": "change_role", "http_status": 200},
			want:   "‘김철수’님의 역할을 ‘PM’로 변경이 성공적으로 완료되었습니다.",
		},
		{
			name:   "role failure with aliases",
			tool:   "change_role",
			params: map[string]any{"memberName": "이영희", "roleIds": 3},
			result: domain.Result{"tool": "change_role", "http_status": 404},
			want:   "‘이영희’님의 역할을 ‘3’로 변경하는 과정에서 오류가 발생했습니다. 확인 후 다시 시도해 주시기 바랍니다.",
		},
		{
			name:   "meeting success",
			tool:   "meeting_create",
			params: map[string]any{},
			result: domain.Result{"tool": "meeting_create", "summary": map[string]any{"title": "회의록(2025-08-29 13:00~17:00)"}},
			want:   "‘회의록(2025-08-29 13:00~17:00)’ 회의록이 저장되었습니다.",
		},
		{
			name:   "meeting fetch failure",
			tool:   "meeting_create",
			params: map[string]any{},
			result: domain.Result{"tool": "meeting_create", "step": "fetch", "error": domain.Result{"http_status": 500}},
			want:   "회의록 저장 과정에서 오류가 발생했습니다. 시간 범위와 채팅방 정보를 확인해 주시기 바랍니다.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Compose(ctx, nil, tt.tool, tt.params, tt.result)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Empty(t, llm.Calls())
}

func TestSynthesizer_Fallback(t *testing.T) {
	ctx := context.Background()
	history := []domain.Message{domain.System("persona"), domain.User("hi")}

	t.Run("Generated Sentence Is Sanitized", func(t *testing.T) {
		llm := &testutils.ScriptedCompleter{Answer: " projectId: 55 검색을 완료했습니다. "}
		s := answer.New(llm)

		got, err := s.Compose(ctx, history, "web_search", map[string]any{"q": "go", "projectId": 55, "token": "t"}, domain.Result{"tool": "web_search"})
		require.NoError(t, err)
		assert.Equal(t, `projectId: "***" 검색을 완료했습니다.`, got)

		calls := llm.CallsWith(testutils.AnswerTokens)
		require.Len(t, calls, 1)
		assert.Equal(t, answer.Options, calls[0].Opts)
		assert.Equal(t, domain.System("persona"), calls[0].Messages[0])
		assert.Contains(t, calls[0].SystemText(), `입력:{"q":"go"} 결과:{"status":"unknown","tool":"web_search"}`)
	})

	t.Run("Snake Case Identifiers Are Stripped", func(t *testing.T) {
		llm := &testutils.ScriptedCompleter{Answer: "project_id: 123 역할을 변경했습니다."}
		s := answer.New(llm)

		got, err := s.Compose(ctx, history, "web_search", map[string]any{"q": "go", "project_id": 123, "chat_room_id": 7, "UserID": 3}, domain.Result{"tool": "web_search"})
		require.NoError(t, err)
		assert.Equal(t, `project_id: "***" 역할을 변경했습니다.`, got)

		calls := llm.CallsWith(testutils.AnswerTokens)
		require.Len(t, calls, 1)
		assert.Contains(t, calls[0].SystemText(), `입력:{"q":"go"}`)
	})

	t.Run("Short Output Uses Fallback", func(t *testing.T) {
		s := answer.New(&testutils.ScriptedCompleter{Answer: "네"})

		got, err := s.Compose(ctx, nil, "web_search", nil, domain.Result{"tool": "web_search", "http_status": 200})
		require.NoError(t, err)
		assert.Equal(t, answer.Fallback, got)
	})

	t.Run("Completion Failure Is Returned", func(t *testing.T) {
		s := answer.New(&testutils.ScriptedCompleter{Errs: map[int]error{testutils.AnswerTokens: errors.New("down")}})

		_, err := s.Compose(ctx, nil, "web_search", nil, domain.Result{})
		assert.Error(t, err)
	})

	t.Run("Custom Template", func(t *testing.T) {
		s := answer.New(&testutils.ScriptedCompleter{}, answer.WithTemplate("web_search", func(p map[string]any, r domain.Result) string {
			return "프로젝트 9 검색 완료"
		}))

		got, err := s.Compose(ctx, nil, "web_search", nil, domain.Result{})
		require.NoError(t, err)
		assert.Equal(t, "프로젝트 *** 검색 완료", got)
	})
}
