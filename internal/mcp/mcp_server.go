// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/impacted/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the impacted MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Impacted Test Selection Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: find_related_tests ---
	s.AddTool(mcp.NewTool("find_related_tests",
		mcp.WithDescription("Find the test files that transitively import any of the changed files."),
		mcp.WithArray("changed_files", mcp.Description("Changed file paths, relative to the git root."), mcp.Required(), mcp.WithStringItems()),
		mcp.WithString("entry_point", mcp.Description("Entry module the import graph starts from (defaults to the configured entry point).")),
		mcp.WithString("search_dir", mcp.Description("Directory to scan for sources and tests (defaults to the git root).")),
	), h.handleFindRelatedTests)

	// --- 2. Tool: get_run_history ---
	s.AddTool(mcp.NewTool("get_run_history",
		mcp.WithDescription("List recorded runs, newest first."),
		mcp.WithNumber("limit", mcp.Description("Limit the number of runs returned.")),
	), h.handleGetRunHistory)

	return s
}

// StartMCPServer starts the impacted MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
