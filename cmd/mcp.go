package cmd

import (
	"github.com/agentic-research/wp2shopify/internal/convert"
	"github.com/agentic-research/wp2shopify/internal/ingest"
	"github.com/agentic-research/wp2shopify/internal/mcptool"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP server on stdio exposing convert_products and summarize_products",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine := ingest.NewEngine(cfg.IngestOptions())
		engine.Logger = logger
		conv := convert.NewConverter(cfg.Schema())
		conv.Workers = cfg.Convert.Workers
		conv.Logger = logger

		return mcptool.ServeStdio(version, &mcptool.ToolDeps{
			Loader:    engine,
			Converter: conv,
			Logger:    logger,
		})
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
