package main

import (
	"github.com/spf13/cobra"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"aiken/internal/logging"
	"aiken/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:    "mcp",
	Short:  "Serve project tools over MCP on stdio",
	Hidden: true,
	RunE:   runMCP,
}

func runMCP(cmd *cobra.Command, _ []string) error {
	srv := mcp.NewServer(rootFlags.dir, version, selectBackend())
	logging.New("mcp").Info("starting aiken MCP server over stdio")
	return srv.MCPServer.Run(cmd.Context(), &sdkmcp.StdioTransport{})
}
