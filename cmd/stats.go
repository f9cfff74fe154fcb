package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/agentic-research/wp2shopify/api"
	"github.com/agentic-research/wp2shopify/internal/config"
	"github.com/agentic-research/wp2shopify/internal/convert"
	"github.com/agentic-research/wp2shopify/internal/ingest"
	"github.com/agentic-research/wp2shopify/internal/record"
	"github.com/agentic-research/wp2shopify/internal/shopify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var statsPreview int

var statsCmd = &cobra.Command{
	Use:   "stats [export]",
	Short: "Show what a conversion would produce, product by product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStats(cmd.Context(), cfg, logger, args[0], statsPreview, cmd.OutOrStdout())
	},
}

func init() {
	statsCmd.Flags().IntVarP(&statsPreview, "preview", "p", 0, "Also print the first N source records")
	rootCmd.AddCommand(statsCmd)
}

func runStats(ctx context.Context, c *config.Config, log *zap.Logger, input string, preview int, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	engine := ingest.NewEngine(c.IngestOptions())
	engine.Logger = log
	table, err := engine.Load(input)
	if err != nil {
		return err
	}

	if preview > 0 {
		if err := writePreview(out, table, preview); err != nil {
			return err
		}
	}

	conv := convert.NewConverter(c.Schema())
	conv.Workers = max(c.Convert.Workers, 1)
	conv.Logger = log
	rows, err := conv.Convert(ctx, table)
	if err != nil {
		return err
	}
	return shopify.Summarize(rows).WriteText(out, true)
}

var previewColumns = []string{
	api.ColumnID, api.ColumnParent, api.ColumnTitle, api.ColumnStatus,
	api.ColumnRegularPrice, api.ColumnSalePrice,
}

// writePreview prints the key fields of the first n source records.
func writePreview(w io.Writer, t *record.Table, n int) error {
	_, _ = fmt.Fprintf(w, "Source records: %d (%d columns)\n", t.Len(), len(t.Columns))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, col := range previewColumns {
		if i > 0 {
			_, _ = fmt.Fprint(tw, "\t")
		}
		_, _ = fmt.Fprint(tw, col)
	}
	_, _ = fmt.Fprintln(tw)

	for _, r := range t.Records[:min(n, t.Len())] {
		for i, col := range previewColumns {
			if i > 0 {
				_, _ = fmt.Fprint(tw, "\t")
			}
			_, _ = fmt.Fprint(tw, r.Text(col))
		}
		_, _ = fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}
