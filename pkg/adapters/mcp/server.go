package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/checklist"
	"github.com/aretw0/checklist/internal/codec"
	"github.com/aretw0/checklist/internal/logging"
	"github.com/aretw0/checklist/pkg/domain"
	"github.com/aretw0/checklist/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// StatusURI is the resource holding the current status view.
const StatusURI = "checklist://status"

// StartResponse is returned by the start_checklist tool.
type StartResponse struct {
	ID       string `json:"id" jsonschema_description:"Identifier of the submitted checklist"`
	Accepted bool   `json:"accepted" jsonschema_description:"True once the checklist was published to the skill"`
}

// Server wraps a ChecklistService and exposes it as an MCP Server.
type Server struct {
	service   ports.ChecklistService
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(service ports.ChecklistService, opts ...Option) *Server {
	s := &Server{
		service:   service,
		mcpServer: server.NewMCPServer("checklist-mcp", strings.TrimSpace(checklist.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	// TOOL: start_checklist
	startTool := mcp.NewTool("start_checklist",
		mcp.WithDescription("Start a spoken checklist. Items are read one by one and answered by voice."),
		mcp.WithString("checklist", mcp.Required(), mcp.Description(
			`JSON start message: {"id", "items":[{"id","text"}], "endText", "confirmIntent", "disconfirmIntent", "cancelIntent", "siteId"}`)),
		mcp.WithOutputSchema[StartResponse](),
	)
	s.mcpServer.AddTool(startTool, mcp.NewStructuredToolHandler(s.handleStart))

	// TOOL: checklist_status
	statusTool := mcp.NewTool("checklist_status",
		mcp.WithDescription("Describe the checklist currently running, if any."),
		mcp.WithOutputSchema[domain.StatusView](),
	)
	s.mcpServer.AddTool(statusTool, mcp.NewStructuredToolHandler(s.handleStatus))

	// TOOL: last_report
	s.mcpServer.AddTool(mcp.NewTool("last_report",
		mcp.WithDescription("Get the report of the most recently finished checklist."),
	), s.handleLastReport)
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StartResponse, error) {
	raw, ok := args["checklist"].(string)
	if !ok || raw == "" {
		return StartResponse{}, fmt.Errorf("checklist is required")
	}

	req, err := codec.DecodeStart([]byte(raw))
	if err != nil {
		s.logger.Warn("MCP start_checklist: invalid checklist", "err", err)
		return StartResponse{}, fmt.Errorf("invalid checklist: %w", err)
	}

	if err := s.service.Start(ctx, *req); err != nil {
		return StartResponse{}, fmt.Errorf("start failed: %w", err)
	}

	return StartResponse{ID: req.ID, Accepted: true}, nil
}

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (domain.StatusView, error) {
	return domain.Summarize(s.service.Snapshot()), nil
}

func (s *Server) handleLastReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, ok := s.service.LastReport()
	if !ok {
		return mcp.NewToolResultError("no checklist has finished yet"), nil
	}
	jsonBytes, _ := json.Marshal(report)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) registerResources() {
	// EXPOSE: checklist://status
	s.mcpServer.AddResource(mcp.NewResource(StatusURI, "Checklist Status",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(domain.Summarize(s.service.Snapshot()))
		if err != nil {
			return nil, fmt.Errorf("failed to encode status: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      StatusURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
