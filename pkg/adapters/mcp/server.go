package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/capstone-ai/dna"
	"github.com/capstone-ai/dna/internal/logging"
	"github.com/capstone-ai/dna/internal/sanitize"
	"github.com/capstone-ai/dna/pkg/catalog"
	"github.com/capstone-ai/dna/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ToolsURI is the resource describing the tool catalog.
const ToolsURI = "dna://tools"

// ChatArgs are the arguments of the chat tool.
type ChatArgs struct {
	ConversationID string `json:"conversation_id"`
	UserInput      string `json:"user_input"`
	Mode           string `json:"mode,omitempty"`
	ProjectID      string `json:"project_id,omitempty"`
	ChatRoomID     string `json:"chat_room_id,omitempty"`
}

// Assistant is the conversational core exposed over MCP.
type Assistant interface {
	Handle(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error)
	Catalog() *catalog.Catalog
}

// Server wraps an Assistant and exposes it as an MCP server.
type Server struct {
	assistant Assistant
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger. Stdio transports must log to stderr.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a new MCP server instance.
func NewServer(a Assistant, opts ...Option) *Server {
	s := &Server{
		assistant: a,
		mcpServer: server.NewMCPServer("dna-mcp", strings.TrimSpace(dna.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over SSE until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	chatTool := mcp.NewTool("chat",
		mcp.WithDescription("Send one utterance to the project assistant. The reply is a chat answer, a tool result, or a clarification question."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation the utterance belongs to")),
		mcp.WithString("user_input", mcp.Required(), mcp.Description("The user's utterance")),
		mcp.WithString("mode", mcp.Description("auto (default), chat or tool")),
		mcp.WithString("project_id", mcp.Description("Project bound to the conversation (defaults to conversation_id)")),
		mcp.WithString("chat_room_id", mcp.Description("Chat room bound to the conversation")),
	)
	s.mcpServer.AddTool(chatTool, mcp.NewStructuredToolHandler(s.handleChat))
}

func (s *Server) handleChat(ctx context.Context, _ mcp.CallToolRequest, args ChatArgs) (domain.ChatResponse, error) {
	clean, err := sanitize.Input(args.UserInput, 0)
	if err != nil {
		s.logger.Warn("mcp chat: input rejected", "err", err, "size", len(args.UserInput))
		return domain.ChatResponse{}, err
	}

	resp, err := s.assistant.Handle(ctx, domain.ChatRequest{
		ConversationID: args.ConversationID,
		UserInput:      clean,
		Mode:           args.Mode,
		ProjectID:      args.ProjectID,
		ChatRoomID:     args.ChatRoomID,
	})
	if err != nil {
		s.logger.Error("mcp chat failed", "err", err, "conversation_id", args.ConversationID)
		return domain.ChatResponse{}, fmt.Errorf("chat failed: %w", err)
	}
	return resp, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ToolsURI, "Tool Catalog",
		mcp.WithResourceDescription("Schemas of the tools the assistant can call"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.assistant.Catalog().List())
		if err != nil {
			return nil, fmt.Errorf("encode catalog: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      ToolsURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
