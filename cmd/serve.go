package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/agentic-research/wp2shopify/internal/convert"
	"github.com/agentic-research/wp2shopify/internal/ingest"
	"github.com/agentic-research/wp2shopify/internal/server"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the converter over HTTP (POST /convert, POST /breakdown)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.Server.Addr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}

		engine := ingest.NewEngine(cfg.IngestOptions())
		engine.Logger = logger
		conv := convert.NewConverter(cfg.Schema())
		conv.Workers = cfg.Convert.Workers
		conv.Logger = logger

		srv := server.New(engine, conv, int64(cfg.Server.MaxUploadMB)<<20, logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", ":8080", "Listen address")
	rootCmd.AddCommand(serveCmd)
}
