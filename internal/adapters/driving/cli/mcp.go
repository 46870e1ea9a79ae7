package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragline/internal/adapters/driving/mcp"
	"github.com/custodia-labs/ragline/internal/app"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can query the
indexed documents.

Tools:     ask, search, import_records
Resources: collection://info

By default the server speaks JSON-RPC over stdio. Use --port to serve the
streamable HTTP transport instead, for MCP Inspector or remote clients.

Examples:
  ragline mcp serve
  ragline mcp serve --port 8081

Assistant configuration:
  {
    "mcpServers": {
      "ragline": {
        "command": "/path/to/ragline",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	return withServices(cmd, func(ctx context.Context, _ *app.Container, svc *app.Services) error {
		server, err := mcp.NewServer(&mcp.Ports{
			Chat:       svc.Chat,
			Ingest:     svc.Ingest,
			Collection: svc.Collection,
		})
		if err != nil {
			return err
		}

		if port > 0 {
			addr := fmt.Sprintf(":%d", port)
			// stdout carries JSON-RPC in stdio mode only.
			fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
			return server.RunHTTP(ctx, addr)
		}
		return server.Run(ctx)
	})
}
