package catalog

import "github.com/capstone-ai/dna/pkg/domain"

// Tool names of the business operations.
const (
	ToolChangeRole    = "change_role"
	ToolTodoCreate    = "todo_create"
	ToolMeetingCreate = "meeting_create"
)

// Builtin returns the catalog of business tools.
func Builtin() *Catalog {
	return New(ChangeRole(), TodoCreate(), MeetingCreate())
}

// Default returns the business tools followed by the local demo tools.
func Default() *Catalog {
	return Builtin().Merge(Demo())
}

// ChangeRole changes or adds a team member's role. projectId has no context
// binding: the user is asked for it explicitly.
func ChangeRole() domain.ToolSchema {
	spec := domain.RemoteSpec(ToolChangeRole)
	return domain.ToolSchema{
		Name:        ToolChangeRole,
		Description: "팀원의 역할을 변경하거나 추가",
		Parameters: domain.Parameters{
			Type:     "dict",
			Required: []string{"projectId", "userName", "roleName"},
			Properties: map[string]domain.Property{
				"projectId": {Type: "integer", Description: "프로젝트 ID", Example: "12"},
				"userName":  {Type: "string", Description: "팀원 이름", Example: "김철수"},
				"roleName":  {Type: "string", Description: "변경할 역할 이름", Example: "백엔드"},
			},
		},
		Exec: &spec,
	}
}

// TodoCreate schedules a meeting or appointment.
func TodoCreate() domain.ToolSchema {
	spec := domain.RemoteSpec(ToolTodoCreate)
	return domain.ToolSchema{
		Name:        ToolTodoCreate,
		Description: "회의/미팅/약속 등 '일정'을 생성합니다. 예: '오늘 회의 잡아줘', '내일 3시 미팅 예약'. 회의 내용 정리(회의록)는 meeting_create를 사용하세요.",
		Parameters: domain.Parameters{
			Type:     "dict",
			Required: []string{"projectId", "todoName", "startDate"},
			Properties: map[string]domain.Property{
				"projectId": {Type: "integer", Description: "프로젝트 ID. 반드시 채우세요. 현재 대화/세션 컨텍스트의 projectId", Context: "projectId"},
				"todoName":  {Type: "string", Description: "일정 제목(예: '프로젝트 킥오프 미팅')", Example: "프로젝트 킥오프 미팅"},
				"startDate": {Type: "date", Description: "시작 날짜(YYYY-MM-DD)", Example: "2025-08-29"},
			},
		},
		Exec: &spec,
	}
}

// MeetingCreate summarizes a chat room's log into meeting minutes. It runs
// as a composed pipeline rather than a single dispatch.
func MeetingCreate() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        ToolMeetingCreate,
		Description: "대화/회의 로그를 바탕으로 '회의록'을 작성·요약합니다. 예: '어제 회의 내용 회의록으로 정리해줘.','10시부터 11시까지 요약'.일정 생성(회의/미팅 예약)은 todo_create를 사용하세요.",
		Parameters: domain.Parameters{
			Type:     "dict",
			Required: []string{"projectId", "chatRoomId", "startTime", "endTime"},
			Properties: map[string]domain.Property{
				"projectId":  {Type: "integer", Description: "프로젝트 ID. 반드시 채우세요. 현재 대화/세션 컨텍스트의 projectId", Context: "projectId"},
				"chatRoomId": {Type: "integer", Description: "채팅방 ID. 반드시 채우세요. 현재 컨텍스트의 chatRoomId", Context: "chatRoomId"},
				"startTime":  {Type: "string", Description: "시작 시각(YYYY-MM-DDTHH:MM:SS)", Example: "2025-08-29T13:00:00"},
				"endTime":    {Type: "string", Description: "종료 시각(YYYY-MM-DDTHH:MM:SS)", Example: "2025-08-29T17:00:00"},
				"title":      {Type: "string", Description: "회의록 제목(선택, 미지정 시 자동 생성)"},
			},
		},
	}
}

// Demo returns the tools served by the built-in local functions.
func Demo() *Catalog {
	weather := domain.LocalSpec("get_current_weather")
	search := domain.LocalSpec("web_search")
	sum := domain.LocalSpec("compute_sum")
	return New(
		domain.ToolSchema{
			Name:        "get_current_weather",
			Description: "지정한 지역의 현재 날씨를 조회합니다",
			Parameters: domain.Parameters{
				Type:     "dict",
				Required: []string{"location"},
				Properties: map[string]domain.Property{
					"location": {Type: "string", Description: "도시와 국가 코드", Example: "Seoul, KR"},
					"unit":     {Type: "string", Description: "단위(metric 또는 imperial)", Default: "metric"},
				},
			},
			Exec: &weather,
		},
		domain.ToolSchema{
			Name:        "web_search",
			Description: "웹 검색 결과를 반환합니다",
			Parameters: domain.Parameters{
				Type:     "dict",
				Required: []string{"q"},
				Properties: map[string]domain.Property{
					"q":     {Type: "string", Description: "검색어", Example: "서울 맛집"},
					"top_k": {Type: "integer", Description: "결과 개수", Default: 3},
				},
			},
			Exec: &search,
		},
		domain.ToolSchema{
			Name:        "compute_sum",
			Description: "숫자 목록의 합을 계산합니다",
			Parameters: domain.Parameters{
				Type:     "dict",
				Required: []string{"numbers"},
				Properties: map[string]domain.Property{
					"numbers": {Type: "array", Description: "더할 숫자 목록", Example: "[1, 2, 3]"},
				},
			},
			Exec: &sum,
		},
	)
}
