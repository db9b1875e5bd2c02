package app

import (
	mcpserver "casetrack/internal/mcp"
)

// ServeMCP runs the pipeline tools as a standalone MCP server on
// stdin/stdout until the client disconnects.
func (a *App) ServeMCP(version string) error {
	srv := mcpserver.New(a.ETL, version, a.Log)
	return srv.ServeStdio()
}
