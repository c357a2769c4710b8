package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/insightgen-cli/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can inspect
decks, submit jobs and follow them to completion.

By default, the server communicates over stdio using JSON-RPC.
Use --port to serve the streamable HTTP transport instead.

Examples:
  # Stdio mode (default)
  insightgen mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  insightgen mcp serve --port 8080

Assistant configuration:
  {
    "mcpServers": {
      "insightgen": {
        "command": "/path/to/insightgen",
        "args": ["mcp", "serve", "--username", "alice"],
        "env": {"INSIGHTGEN_PASSWORD": "..."}
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

	settings := clientSettings()
	ports := &mcp.Ports{
		Sessions:          sessionManager,
		Intake:            fileIntake,
		Inspection:        inspectionService,
		Catalog:           generatorCatalog,
		Jobs:              jobOrchestrator,
		PollInterval:      settings.PollInterval,
		ContextWindowSize: &settings.ContextWindowSize,
		Username:          resolveUsername(),
	}

	server, err := mcp.NewServer(ports, version)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		cmd.Printf("MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
