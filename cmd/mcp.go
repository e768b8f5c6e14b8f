package cmd

import (
	"github.com/huangsam/impacted/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the impacted MCP server",
	Long: `Launch an MCP server over stdio that lets AI agents ask which tests a change affects.

The entry point may be configured as usual or passed with each tool call.`,
	PreRunE: func(_ *cobra.Command, args []string) error {
		return setup(rootCtx, args, false)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}
