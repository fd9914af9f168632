package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/couchfeed/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can read and
write documents.

By default, the server communicates over stdio using JSON-RPC. Use --port to
start an HTTP server instead, for MCP Inspector or remote access.

With --watch the given databases are also watched, and the database_info
tool reports their change-feed cursor.

Examples:
  # Stdio mode (default)
  couchfeed mcp serve

  # HTTP mode
  couchfeed mcp serve --port 8080 --watch contacts

Client configuration:
  {
    "mcpServers": {
      "couchfeed": {
        "command": "/path/to/couchfeed",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().StringSlice("watch", nil, "databases to watch while serving")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	watch, err := cmd.Flags().GetStringSlice("watch")
	if err != nil {
		return fmt.Errorf("getting watch flag: %w", err)
	}

	if err := connect(); err != nil {
		return err
	}

	ports := &mcp.Ports{
		Documents: documentService,
		Databases: databaseService,
		Watcher:   watchService,
	}

	server, err := mcp.NewServer(ports, version)
	if err != nil {
		return err
	}

	if len(watch) > 0 && watchService != nil {
		defer watchService.Close() //nolint:errcheck
		for _, db := range watch {
			if err := watchService.Watch(cmd.Context(), db); err != nil {
				return fmt.Errorf("failed to watch %s: %w", db, err)
			}
		}
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
