package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	httpadapter "github.com/capstone-ai/dna/pkg/adapters/http"
	"github.com/capstone-ai/dna/pkg/catalog"
	"github.com/capstone-ai/dna/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAssistant struct {
	mock.Mock
}

func (m *mockAssistant) Handle(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.ChatResponse), args.Error(1)
}

func (m *mockAssistant) Catalog() *catalog.Catalog {
	return catalog.Builtin()
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/ai/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestChat(t *testing.T) {
	a := &mockAssistant{}
	a.On("Handle", mock.Anything, domain.ChatRequest{ConversationID: "c1", UserInput: "안녕"}).
		Return(domain.ChatResponse{ConversationID: "c1", Route: domain.RouteChat, Output: "반갑습니다"}, nil)
	h := httpadapter.NewHandler(a)

	rec := post(t, h, `{"conversationId":"c1","userInput":"안\u0007녕"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp domain.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "chat", resp.Route)
	assert.Equal(t, "반갑습니다", resp.Output)
	a.AssertExpectations(t)
}

func TestChat_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		opts   []httpadapter.Option
		status int
	}{
		{name: "malformed body", body: `{`, status: http.StatusBadRequest},
		{name: "oversized input", body: `{"conversationId":"c1","userInput":"abcdef"}`, opts: []httpadapter.Option{httpadapter.WithMaxInputSize(3)}, status: http.StatusBadRequest},
		{name: "rejected by assistant", body: `{"userInput":"hi"}`, err: domain.ErrInputRejected, status: http.StatusBadRequest},
		{name: "hard failure", body: `{"conversationId":"c1","userInput":"hi"}`, err: errors.New("boom"), status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &mockAssistant{}
			a.On("Handle", mock.Anything, mock.Anything).Return(domain.ChatResponse{}, tt.err).Maybe()
			rec := post(t, httpadapter.NewHandler(a, tt.opts...), tt.body)

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
			assert.NotContains(t, rec.Body.String(), "boom")
		})
	}
}

func TestStaticEndpoints(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("dna_turns_total 1\n"))
	})
	h := httpadapter.NewHandler(&mockAssistant{}, httpadapter.WithMetrics(metrics))

	tests := []struct {
		path     string
		contains string
	}{
		{"/health", `"status":"ok"`},
		{"/info", `"app":"dna-http"`},
		{"/tools", `"name":"todo_create"`},
		{"/metrics", "dna_turns_total 1"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.contains)
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	h := httpadapter.NewHandler(&mockAssistant{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/ai/chat", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsNotMountedByDefault(t *testing.T) {
	h := httpadapter.NewHandler(&mockAssistant{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
