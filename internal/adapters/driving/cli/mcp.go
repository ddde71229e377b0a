package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wbattistetti/AILawyer-sub000/internal/adapters/driving/mcp"
)

var mcpPort int

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can query
the persons extracted from case documents.

By default the server speaks JSON-RPC over stdio. Use --port to serve
the streamable HTTP transport instead. "ailawyer serve" also exposes it
under /mcp next to the HTTP API.

Tools: search_persons, get_person_occurrences, list_snapshots.

Examples:
  # Stdio mode
  ailawyer mcp

  # HTTP mode
  ailawyer mcp --port 8080

Client configuration:
  {
    "mcpServers": {
      "ailawyer": {
        "command": "/path/to/ailawyer",
        "args": ["mcp"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 = use stdio)")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	entities, err := app.Entities()
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{Entities: entities}, mcp.Options{Version: version})
	if err != nil {
		return err
	}

	if mcpPort > 0 {
		addr := fmt.Sprintf(":%d", mcpPort)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}
	return server.Run(cmd.Context())
}
