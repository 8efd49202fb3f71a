package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/capstone-ai/dna"
	"github.com/capstone-ai/dna/internal/logging"
	"github.com/capstone-ai/dna/internal/sanitize"
	"github.com/capstone-ai/dna/pkg/catalog"
	"github.com/capstone-ai/dna/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// Assistant is the conversational core served over HTTP.
type Assistant interface {
	Handle(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error)
	Catalog() *catalog.Catalog
}

// Server routes HTTP requests to an Assistant.
type Server struct {
	assistant    Assistant
	logger       *slog.Logger
	metrics      http.Handler
	maxInputSize int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics mounts h under GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithMaxInputSize overrides the inbound utterance limit in bytes.
func WithMaxInputSize(n int) Option {
	return func(s *Server) { s.maxInputSize = n }
}

// NewHandler creates the HTTP handler for an assistant.
func NewHandler(a Assistant, opts ...Option) http.Handler {
	s := &Server{
		assistant: a,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Post("/ai/chat", s.Chat)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/tools", s.GetTools)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Chat handles POST /ai/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		s.logger.Warn("chat: invalid request body", "err", err)
		return
	}

	clean, err := sanitize.Input(req.UserInput, s.maxInputSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		s.logger.Warn("chat: input rejected", "err", err, "size", len(req.UserInput))
		return
	}
	req.UserInput = clean

	resp, err := s.assistant.Handle(r.Context(), req)
	switch {
	case errors.Is(err, domain.ErrInputRejected):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal error")
		s.logger.Error("chat failed", "err", err, "conversation_id", req.ConversationID)
		return
	}

	s.logger.Info("chat", "conversation_id", resp.ConversationID, "route", resp.Route)
	writeJSON(w, http.StatusOK, resp)
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"app":     "dna-http",
		"version": strings.TrimSpace(dna.Version),
		"tools":   s.assistant.Catalog().Len(),
	})
}

// GetTools handles GET /tools.
func (s *Server) GetTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.assistant.Catalog().List())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
