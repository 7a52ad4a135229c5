package cli

import (
	"fmt"

	"github.com/morikuni/failure/v2"
	"github.com/spf13/cobra"

	"github.com/oniwiki/confluence-mcp/config"
	"github.com/oniwiki/confluence-mcp/confluence"
	"github.com/oniwiki/confluence-mcp/log"
	"github.com/oniwiki/confluence-mcp/mcp"
	"github.com/oniwiki/confluence-mcp/version"
)

var (
	// Command line flags
	transportFlag = newTransportFlag()
	addrFlag      string
	baseURLFlag   string

	// Root command
	rootCmd = &cobra.Command{
		Use:           "confluence-mcp",
		Short:         "Run the Confluence MCP server",
		SilenceErrors: true,
		SilenceUsage:  true,
		Long: `confluence-mcp exposes Atlassian Confluence operations (search, page
CRUD, comments, labels, navigation) as Model Context Protocol tools.

Configuration comes from the environment (or a .env file):
CONFLUENCE_URL, CONFLUENCE_USERNAME, CONFLUENCE_PAT, and optionally
CONFLUENCE_AUTH (basic|bearer), LOG_LEVEL, DEBUG.

The server speaks stdio by default; pass --transport sse to serve
MCP over HTTP server-sent events instead.`,
		RunE: runRoot,
	}

	// Version command
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("confluence-mcp version %s\n", version.Version)
			if version.Commit != "" {
				fmt.Printf("  commit: %s\n", version.Commit)
			}
		},
	}
)

func init() {
	rootCmd.Flags().VarP(transportFlag, "transport", "t", "Transport to serve on: stdio or sse")
	rootCmd.Flags().StringVar(&addrFlag, "addr", ":8889", "Listen address for the sse transport")
	rootCmd.Flags().StringVar(&baseURLFlag, "base-url", "", "Externally visible base URL for the sse transport")
	rootCmd.AddCommand(versionCmd)
}

// Run executes the main CLI functionality
func Run() error {
	return rootCmd.Execute()
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return failure.Wrap(err)
	}
	log.Configure(cfg.LogLevel, cfg.Debug)

	client := confluence.NewFromConfig(cfg.Confluence)
	server := mcp.NewServer(client)

	switch transportFlag.Value {
	case TransportSSE:
		baseURL := baseURLFlag
		if baseURL == "" {
			baseURL = "http://localhost" + addrFlag
		}
		log.Info("Starting Confluence MCP server",
			"transport", "sse", "addr", addrFlag, "base_url", baseURL)
		return server.RunSSE(addrFlag, baseURL)
	default:
		log.Info("Starting Confluence MCP server", "transport", "stdio")
		return server.Run()
	}
}
