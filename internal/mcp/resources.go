package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	datasetURI = "casetrack://dataset.js"
	summaryURI = "casetrack://summary"
)

func (s *Server) registerResources() {
	// ── casetrack://dataset.js ─────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		datasetURI,
		"Visualization dataset script",
		mcp.WithMIMEType("application/javascript"),
	), s.handleDatasetResource)

	// ── casetrack://summary ────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		summaryURI,
		"Summary of stored records",
		mcp.WithMIMEType("application/json"),
	), s.handleSummaryResource)
}

func (s *Server) handleDatasetResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	body, err := s.pipeline.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      datasetURI,
			MIMEType: "application/javascript",
			Text:     string(body),
		},
	}, nil
}

func (s *Server) handleSummaryResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	summary, err := s.pipeline.Summary(ctx)
	if err != nil {
		return nil, err
	}
	data, _ := json.MarshalIndent(summary, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      summaryURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
