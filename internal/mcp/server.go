package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"casetrack/internal/etl"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Pipeline is the part of the ETL service exposed to agents.
type Pipeline interface {
	RunOnce(ctx context.Context) (*etl.RunResult, error)
	Records(ctx context.Context) ([]etl.Record, error)
	Summary(ctx context.Context) (etl.Summary, error)
	Dataset(ctx context.Context) ([]byte, error)
	ListRunLogs(limit int) ([]etl.RunLog, error)
}

// Server is the MCP server for casetrack.
// It exposes the pipeline and its stored records as tools and resources.
type Server struct {
	mcp      *server.MCPServer
	pipeline Pipeline
	log      *zap.Logger
}

// New creates and configures a new MCP server with all tools and resources.
func New(pipeline Pipeline, version string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{pipeline: pipeline, log: log.Named("mcp")}

	s.mcp = server.NewMCPServer(
		"casetrack-mcp",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerETLTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.log.Info("starting stdio server")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func boolPtr(v bool) *bool { return &v }
