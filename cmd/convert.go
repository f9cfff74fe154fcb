package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/agentic-research/wp2shopify/internal/config"
	"github.com/agentic-research/wp2shopify/internal/convert"
	"github.com/agentic-research/wp2shopify/internal/ingest"
	"github.com/agentic-research/wp2shopify/internal/shopify"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type convertOptions struct {
	Input   string
	Output  string // file, directory, "-" for stdout, or empty for the configured output dir
	Format  string
	Workers int
	Quiet   bool
}

var convertOpts convertOptions

var convertCmd = &cobra.Command{
	Use:   "convert [export]",
	Short: "Convert a WordPress product export into a Shopify import file",
	Long: `Convert reads a WooCommerce export (.csv, .xlsx, .json or a SQLite database)
and writes the Shopify product import. Without -o the file is written to the
output directory as wordpress-to-shopify_YYYYMMDD_HHMMSS.<ext>.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := convertOpts
		opts.Input = args[0]
		if !cmd.Flags().Changed("workers") {
			opts.Workers = cfg.Convert.Workers
		}
		_, err := runConvert(cmd.Context(), cfg, logger, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		return err
	},
}

func init() {
	convertCmd.Flags().StringVarP(&convertOpts.Output, "output", "o", "", "Output file or directory (\"-\" for stdout)")
	convertCmd.Flags().StringVarP(&convertOpts.Format, "format", "f", "", "Output format: csv, xlsx or sqlite (default from extension or config)")
	convertCmd.Flags().IntVarP(&convertOpts.Workers, "workers", "w", 1, "Products assembled concurrently")
	convertCmd.Flags().BoolVarP(&convertOpts.Quiet, "quiet", "q", false, "Do not report progress")
	rootCmd.AddCommand(convertCmd)
}

// runConvert loads, converts and writes one export. It returns the path written
// ("-" for stdout).
func runConvert(ctx context.Context, c *config.Config, log *zap.Logger, opts convertOptions, stdout, stderr io.Writer) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	engine := ingest.NewEngine(c.IngestOptions())
	engine.Logger = log
	table, err := engine.Load(opts.Input)
	if err != nil {
		return "", err
	}

	conv := convert.NewConverter(c.Schema())
	conv.Workers = max(opts.Workers, 1)
	conv.Logger = log
	if !opts.Quiet && opts.Output != "-" {
		conv.Progress = func(done, total int) {
			_, _ = fmt.Fprintf(stderr, "\rConverting products: %d/%d", done, total)
			if done == total {
				_, _ = fmt.Fprintln(stderr)
			}
		}
	}

	start := time.Now()
	rows, err := conv.Convert(ctx, table)
	if err != nil {
		return "", err
	}

	format := c.OutputFormat()
	if opts.Format != "" {
		if format, err = shopify.ParseFormat(opts.Format); err != nil {
			return "", err
		}
	} else if opts.Output != "" {
		format = shopify.FormatForPath(opts.Output, format)
	}

	if opts.Output == "-" {
		if format == shopify.FormatSQLite {
			return "", fmt.Errorf("sqlite output needs a file")
		}
		return "-", shopify.Write(stdout, format, rows)
	}

	path := outputPath(opts.Output, c.Output.Dir, format, start)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	if format == shopify.FormatSQLite {
		runID := uuid.NewString()
		n, err := shopify.WriteSQLite(path, c.Output.Table, runID, rows)
		if err != nil {
			return "", err
		}
		log.Info("stored run", zap.String("db", path), zap.String("run_id", runID), zap.Int("rows", n))
	} else if err := writeFileAtomic(path, func(w io.Writer) error {
		return shopify.Write(w, format, rows)
	}); err != nil {
		return "", err
	}

	if err := shopify.Summarize(rows).WriteText(stdout, false); err != nil {
		return "", err
	}
	_, _ = fmt.Fprintf(stdout, "Wrote %s in %v\n", path, time.Since(start).Round(time.Millisecond))
	return path, nil
}

// outputPath resolves -o against the configured output directory. An empty
// value or an existing directory gets the timestamped file name.
func outputPath(out, dir string, format shopify.Format, now time.Time) string {
	if out == "" {
		return filepath.Join(dir, shopify.Filename(now, format))
	}
	if fi, err := os.Stat(out); err == nil && fi.IsDir() {
		return filepath.Join(out, shopify.Filename(now, format))
	}
	return out
}

// writeFileAtomic writes through a temp file in the target directory and
// renames it into place. A failed write leaves nothing at path.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".wp2shopify-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }() // no-op after rename

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
