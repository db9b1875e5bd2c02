package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("trend_report",
		mcp.WithPromptDescription("Write a short report on the recent US case and death trend"),
		mcp.WithArgument("days",
			mcp.ArgumentDescription("How many recent days to cover (default 14)"),
		),
	), s.handleTrendReportPrompt)
}

func (s *Server) handleTrendReportPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	days := req.Params.Arguments["days"]
	if days == "" {
		days = "14"
	}
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Trend report for the last %s days", days),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Write a short report on the US COVID-19 trend over the last %s days.

1. Call list_run_logs with limit 1. If the latest run failed or is older than a day, call run_etl first.
2. Call get_summary for the totals and daily increase statistics.
3. Call list_records with limit %s.
4. Counts are cumulative: compute each day's increase as the difference from the previous day.
5. Report the totals, the average daily increase, whether it is rising or falling, and the peak day in the window.`, days, days),
				},
			},
		},
	}, nil
}
