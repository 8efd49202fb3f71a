package ports

import (
	"context"
	"testing"
	"time"

	"github.com/capstone-ai/dna/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreContract verifies that a Store implementation adheres to the
// interface contract. sample builds a distinct value per seed; values must
// survive a JSON round-trip unchanged.
func RunStoreContract[T any](t *testing.T, store Store[T], sample func(seed string) T) {
	ctx := context.Background()
	id := "contract-" + time.Now().Format("20060102150405.000000000")

	t.Run("Save and Load", func(t *testing.T) {
		want := sample("a")
		require.NoError(t, store.Save(ctx, id, want))

		got, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, id, sample("a")))
		want := sample("b")
		require.NoError(t, store.Save(ctx, id, want))

		got, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "missing-"+id)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, id, sample("a")))
		require.NoError(t, store.Delete(ctx, id))

		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		assert.NoError(t, store.Delete(ctx, id), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1, id2 := id+"-1", id+"-2"
		require.NoError(t, store.Save(ctx, id1, sample("1")))
		require.NoError(t, store.Save(ctx, id2, sample("2")))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}

// SampleTranscript is a contract sample for transcript stores.
func SampleTranscript(seed string) *domain.Transcript {
	tr := domain.NewTranscript("system " + seed)
	tr.SetContext("[CONTEXT - PRIVATE]\nprojectId: " + seed)
	tr.AppendChat(domain.User("hello "+seed), domain.Assistant("hi "+seed))
	tr.AppendTool(domain.Message{
		Role:    domain.RoleAssistant,
		Content: "question " + seed,
		Meta:    map[string]any{"type": "clarify", "tool": "change_role"},
	})
	return tr
}

// SamplePending is a contract sample for clarify stores.
func SamplePending(seed string) *domain.PendingClarification {
	at := time.Date(2025, 8, 29, 13, 0, 0, 0, time.UTC)
	return &domain.PendingClarification{
		ToolName: "change_role",
		Schema: domain.ToolSchema{
			Name:        "change_role",
			Description: "팀원의 역할을 변경하거나 추가",
			Parameters: domain.Parameters{
				Type:     "dict",
				Required: []string{"projectId", "userName", "roleName"},
				Properties: map[string]domain.Property{
					"projectId": {Type: "integer", Description: "프로젝트 ID"},
					"userName":  {Type: "string", Description: "팀원 이름"},
					"roleName":  {Type: "string", Description: "변경할 역할 이름"},
				},
			},
		},
		Required:  []string{"projectId", "userName", "roleName"},
		Collected: map[string]any{"userName": "user-" + seed},
		Missing:   []string{"projectId", "roleName"},
		Turns:     1,
		CreatedAt: at,
		UpdatedAt: at,
	}
}
