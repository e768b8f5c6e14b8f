package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/huangsam/impacted/core"
	"github.com/huangsam/impacted/internal/contract"
	"github.com/huangsam/impacted/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

func (h *toolHandler) handleFindRelatedTests(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	changed := request.GetStringSlice("changed_files", nil)
	if len(changed) == 0 {
		return mcp.NewToolResultError("changed_files is required"), nil
	}

	cfg := h.baseCfg.Clone()
	// changed_files is always a name list, whatever the server's input format
	cfg.InputFormat = schema.LinesInput
	cfg.ApplyOverrides(request.GetString("entry_point", ""), request.GetString("search_dir", ""))
	if cfg.EntryPoint == "" {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", contract.ErrNoEntryPoint)), nil
	}

	input := core.NewReaderSource(strings.NewReader(strings.Join(changed, "\n")))
	result, err := core.GetRunResult(ctx, cfg, h.mgr, input, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("resolution failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetRunHistory(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.mgr == nil || h.mgr.GetHistoryStore() == nil {
		return mcp.NewToolResultError("run history is not enabled, set --history-backend"), nil
	}

	runs, err := h.mgr.GetHistoryStore().ListRuns()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing runs failed: %v", err)), nil
	}
	if l := request.GetInt("limit", 0); l > 0 && l < len(runs) {
		runs = runs[:l]
	}

	jsonData, _ := json.MarshalIndent(runs, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
