package cli

import (
	"github.com/spf13/cobra"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/mcp"
)

var mcpAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose context packs to AI assistants over MCP",
	Long: `Run a Model Context Protocol server so assistants can list packs, page
through pack chunks and, when an embedding provider is configured, search a
pack.

The server speaks JSON-RPC over stdio unless --addr is given, in which case it
serves the streamable HTTP transport. 'zerosignal serve --mcp' mounts the same
transport at /mcp next to the HTTP API.

Example assistant configuration:
  {
    "mcpServers": {
      "zerosignal": {"command": "zerosignal", "args": ["mcp"]}
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpAddr, "addr", "", "serve over HTTP on this address instead of stdio")
	rootCmd.AddCommand(mcpCmd)
}

func newMCPServer() (*mcp.Server, error) {
	return mcp.NewServer(&mcp.Ports{
		Catalog:  catalogService,
		Download: downloadService,
		Search:   searchService,
	}, version)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	server, err := newMCPServer()
	if err != nil {
		return err
	}
	if mcpAddr == "" {
		return server.Run(cmd.Context())
	}
	cmd.PrintErrf("MCP server listening on %s\n", mcpAddr)
	return server.RunHTTP(cmd.Context(), mcpAddr)
}
