package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/capstone-ai/dna/pkg/catalog"
	"github.com/capstone-ai/dna/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Find(t *testing.T) {
	c := catalog.Default()

	schema, ok := c.Find(catalog.ToolChangeRole)
	require.True(t, ok)
	assert.Equal(t, []string{"projectId", "userName", "roleName"}, schema.Parameters.Required)

	_, ok = c.Find("does_not_exist")
	assert.False(t, ok, "absence is a signal, not an error")
}

func TestCatalog_OrderAndDuplicates(t *testing.T) {
	c := catalog.New(
		domain.ToolSchema{Name: "a", Description: "first"},
		domain.ToolSchema{Name: "b"},
		domain.ToolSchema{Name: "a", Description: "second"},
		domain.ToolSchema{Name: ""},
	)

	assert.Equal(t, []string{"a", "b"}, c.Names())
	a, _ := c.Find("a")
	assert.Equal(t, "second", a.Description)
}

func TestCatalog_ListIsACopy(t *testing.T) {
	c := catalog.Builtin()
	list := c.List()
	list[0].Name = "mutated"

	assert.Equal(t, catalog.ToolChangeRole, c.Names()[0])
}

func TestBuiltin_ContextBindings(t *testing.T) {
	c := catalog.Builtin()

	role, _ := c.Find(catalog.ToolChangeRole)
	assert.Empty(t, role.Parameters.Properties["projectId"].Context)

	todo, _ := c.Find(catalog.ToolTodoCreate)
	assert.Equal(t, "projectId", todo.Parameters.Properties["projectId"].Context)

	meeting, _ := c.Find(catalog.ToolMeetingCreate)
	assert.Equal(t, "chatRoomId", meeting.Parameters.Properties["chatRoomId"].Context)
	assert.Nil(t, meeting.Exec)
}

func TestParse(t *testing.T) {
	doc := `
tools:
  - name: change_role
    description: 역할 변경
    parameters:
      required: [projectId, userName]
      properties:
        projectId: {type: integer, description: 프로젝트 ID}
        userName: {type: string, description: 팀원 이름, example: 김철수}
    exec: {type: mcp, name: change_role}
  - name: ping
    description: health
    parameters:
      required: []
      properties:
        count: {type: integer, default: 1}
`
	c, err := catalog.Parse([]byte(doc), "yaml")
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	role, _ := c.Find("change_role")
	require.NotNil(t, role.Exec)
	assert.Equal(t, domain.ExecRemote, role.Exec.Kind)
	assert.Equal(t, "김철수", role.Parameters.Properties["userName"].Example)

	ping, _ := c.Find("ping")
	assert.Equal(t, 1, ping.Parameters.Properties["count"].Default)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing name", "tools:\n  - description: x\n"},
		{"unknown exec type", "tools:\n  - name: x\n    exec: {type: ftp}\n"},
		{"bad mapping", "tools:\n  - name: x\n    exec: {type: http, url: 'http://x', mapping: {a: header.a}}\n"},
		{"malformed", "tools: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.Parse([]byte(tt.doc), "yaml")
			assert.Error(t, err)
		})
	}
}

func TestLoadFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"tools":[{"name":"echo","description":"echo","parameters":{"required":["text"],"properties":{"text":{"type":"string"}}},"exec":{"type":"local"}}]}`), 0o644))

	c, err := catalog.LoadFile(path)
	require.NoError(t, err)
	echo, ok := c.Find("echo")
	require.True(t, ok)
	assert.Equal(t, domain.ExecLocal, echo.Exec.Kind)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := catalog.LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
