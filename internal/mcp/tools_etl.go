package mcpserver

import (
	"context"
	"fmt"

	"casetrack/internal/etl"

	"github.com/mark3labs/mcp-go/mcp"
)

const defaultRunLogLimit = 20

func (s *Server) registerETLTools() {
	s.mcp.AddTool(mcp.NewTool("run_etl",
		mcp.WithDescription("Run the COVID-19 pipeline once: download both datasets, merge them on date, append records newer than the stored ones and republish dataset.js. Older records are never rewritten."),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{
			DestructiveHint: boolPtr(false),
			IdempotentHint:  boolPtr(true),
		}),
	), s.handleRunETL)

	s.mcp.AddTool(mcp.NewTool("list_records",
		mcp.WithDescription("List stored daily records (date, cases, deaths, recovered) ascending by date"),
		mcp.WithString("since", mcp.Description("Only records on or after this date, YYYY-MM-DD (optional)")),
		mcp.WithNumber("limit", mcp.Description("Return at most this many of the most recent records (optional)")),
	), s.handleListRecords)

	s.mcp.AddTool(mcp.NewTool("get_summary",
		mcp.WithDescription("Summarize stored records: date range, latest totals and daily new case/death statistics"),
	), s.handleGetSummary)

	s.mcp.AddTool(mcp.NewTool("list_run_logs",
		mcp.WithDescription("List recent pipeline runs, newest first"),
		mcp.WithNumber("limit", mcp.Description("Maximum number of runs (default 20)")),
	), s.handleListRunLogs)
}

func (s *Server) handleRunETL(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.pipeline.RunOnce(ctx)
	if err != nil {
		return nil, fmt.Errorf("run pipeline: %w", err)
	}
	return jsonResult(result)
}

// recordView is the JSON shape of a record for agents.
type recordView struct {
	Date      string `json:"date"`
	Cases     int64  `json:"cases"`
	Deaths    int64  `json:"deaths"`
	Recovered int64  `json:"recovered"`
}

func (s *Server) handleListRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	records, err := s.pipeline.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}

	if since := req.GetString("since", ""); since != "" {
		from, err := etl.ParseDate(since)
		if err != nil {
			return nil, fmt.Errorf("since: %w", err)
		}
		i := 0
		for i < len(records) && records[i].Date.Before(from) {
			i++
		}
		records = records[i:]
	}
	if limit := req.GetInt("limit", 0); limit > 0 && limit < len(records) {
		records = records[len(records)-limit:]
	}

	views := make([]recordView, len(records))
	for i, r := range records {
		views[i] = recordView{Date: r.DateString(), Cases: r.Cases, Deaths: r.Deaths, Recovered: r.Recovered}
	}
	return jsonResult(views)
}

func (s *Server) handleGetSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, err := s.pipeline.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	return jsonResult(summary)
}

func (s *Server) handleListRunLogs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logs, err := s.pipeline.ListRunLogs(req.GetInt("limit", defaultRunLogLimit))
	if err != nil {
		return nil, fmt.Errorf("list run logs: %w", err)
	}
	return jsonResult(logs)
}
