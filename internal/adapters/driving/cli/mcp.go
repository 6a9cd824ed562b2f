package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/testbrief/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can gather
tickets, answer missing-source requests and read consolidated artifacts.

The server speaks JSON-RPC over stdio unless --port is given, in which case
it serves streamable HTTP.

Tools: gather_ticket, resolve_missing, run_summary, and draft_document when
a generator is configured.
Resources: testbrief://runs and testbrief://runs/{runId}/artifact.

Examples:
  testbrief mcp serve
  testbrief mcp serve --port 8080`,
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

	svc, err := requireGather()
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{Gather: svc, Draft: draftService})
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
