package dispatch

import (
	"net/http"

	"github.com/capstone-ai/dna/pkg/catalog"
	"github.com/capstone-ai/dna/pkg/domain"
)

// Dispatch entries used by the meeting pipeline.
const (
	ToolMeetingChat = "meeting_chat"
	ToolMeetingSave = "meeting_save"
)

// Endpoints are the business backend URLs.
type Endpoints struct {
	RoleChange  string
	TodoCreate  string
	MeetingChat string
	MeetingSave string
}

// Builtin returns the table of the business tools plus the local demo
// functions.
func Builtin(ep Endpoints) Table {
	t := Table{
		catalog.ToolChangeRole: SingleEntry(domain.HTTPSpec(http.MethodPost, ep.RoleChange, map[string]string{
			"projectId": "body.projectId",
			"userName":  "body.userName",
			"roleName":  "body.roleName",
		})),
		catalog.ToolTodoCreate: SingleEntry(domain.HTTPSpec(http.MethodPost, ep.TodoCreate, map[string]string{
			"projectId": "body.projectId",
			"todoName":  "body.todoName",
			"startDate": "body.startDate",
		})),
		ToolMeetingChat: SingleEntry(domain.HTTPSpec(http.MethodPost, ep.MeetingChat, map[string]string{
			"chatRoomId": "body.chatRoomId",
			"startTime":  "body.startTime",
			"endTime":    "body.endTime",
		})),
		ToolMeetingSave: SingleEntry(domain.HTTPSpec(http.MethodPost, ep.MeetingSave, map[string]string{
			"projectId": "body.projectId",
			"title":     "body.title",
			"contents":  "body.contents",
		})),
	}
	for _, name := range catalog.Demo().Names() {
		t[name] = SingleEntry(domain.LocalSpec(name))
	}
	return t
}

// Merge returns a table with other's entries layered over t.
func (t Table) Merge(other Table) Table {
	out := make(Table, len(t)+len(other))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// FromCatalog builds a fallback from the exec stubs of a catalog.
func FromCatalog(c *catalog.Catalog) Fallback {
	return func(tool string) (domain.ExecSpec, bool) {
		schema, ok := c.Find(tool)
		if !ok || schema.Exec == nil {
			return domain.ExecSpec{}, false
		}
		return *schema.Exec, true
	}
}
