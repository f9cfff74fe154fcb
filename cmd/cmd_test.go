package cmd

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/agentic-research/wp2shopify/internal/config"
	"github.com/agentic-research/wp2shopify/internal/shopify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const rugExport = "ID,post_parent,post_title,post_excerpt,post_status,regular_price,sale_price,images,meta:attribute_pa_sizes,meta:attribute_pa_texture\n" +
	"10,,Rug,Soft,publish,100,80,a.jpg|b.jpg!alt : Back,,\n" +
	"11,10,,,publish,,,,Small,Flat\n" +
	"12,10,,,publish,,,,Large,Loop\n" +
	"20,,Mat,,draft,20,,,,\n"

func writeExport(t *testing.T) (dir, path string) {
	t.Helper()
	dir = t.TempDir()
	path = filepath.Join(dir, "export.csv")
	require.NoError(t, os.WriteFile(path, []byte(rugExport), 0o644))
	return dir, path
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestRunConvert_CSV(t *testing.T) {
	dir, in := writeExport(t)
	out := filepath.Join(dir, "shopify.csv")

	var stdout, stderr bytes.Buffer
	path, err := runConvert(context.Background(), config.Default(), zap.NewNop(),
		convertOptions{Input: in, Output: out, Workers: 2}, &stdout, &stderr)
	require.NoError(t, err)
	assert.Equal(t, out, path)

	records := readCSV(t, out)
	assert.Equal(t, shopify.Columns, records[0])
	// Rug: 2 sizes x 2 textures = 4 variants, plus 1 extra image row; Mat: 1 row.
	assert.Len(t, records, 1+5+1)

	assert.Contains(t, stdout.String(), "Total Unique Products: 2")
	assert.Contains(t, stdout.String(), "Wrote "+out)
	assert.Contains(t, stderr.String(), "Converting products: 2/2")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".wp2shopify-"), "temp file left behind: %s", e.Name())
	}
}

func TestRunConvert_DefaultOutputDir(t *testing.T) {
	dir, in := writeExport(t)
	c := config.Default()
	c.Output.Dir = filepath.Join(dir, "output")

	var stdout bytes.Buffer
	path, err := runConvert(context.Background(), c, zap.NewNop(),
		convertOptions{Input: in, Quiet: true}, &stdout, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, c.Output.Dir, filepath.Dir(path))
	assert.Regexp(t, `^wordpress-to-shopify_\d{8}_\d{6}\.csv$`, filepath.Base(path))
	assert.FileExists(t, path)
}

func TestRunConvert_DirectoryOutputAndXLSX(t *testing.T) {
	dir, in := writeExport(t)

	path, err := runConvert(context.Background(), config.Default(), zap.NewNop(),
		convertOptions{Input: in, Output: dir, Format: "xlsx", Quiet: true}, &bytes.Buffer{}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", filepath.Ext(path))
	assert.Equal(t, dir, filepath.Dir(path))
}

func TestRunConvert_Stdout(t *testing.T) {
	_, in := writeExport(t)

	var stdout, stderr bytes.Buffer
	path, err := runConvert(context.Background(), config.Default(), zap.NewNop(),
		convertOptions{Input: in, Output: "-"}, &stdout, &stderr)
	require.NoError(t, err)
	assert.Equal(t, "-", path)
	assert.True(t, strings.HasPrefix(stdout.String(), "Handle,Title,"))
	assert.Empty(t, stderr.String())
}

func TestRunConvert_SQLite(t *testing.T) {
	dir, in := writeExport(t)
	out := filepath.Join(dir, "runs.db")

	for i := 0; i < 2; i++ {
		_, err := runConvert(context.Background(), config.Default(), zap.NewNop(),
			convertOptions{Input: in, Output: out, Quiet: true}, &bytes.Buffer{}, &bytes.Buffer{})
		require.NoError(t, err)
	}

	db, err := sql.Open("sqlite", out)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var runs, rows int
	require.NoError(t, db.QueryRow("SELECT COUNT(DISTINCT run_id), COUNT(*) FROM shopify_rows").Scan(&runs, &rows))
	assert.Equal(t, 2, runs)
	assert.Equal(t, 2*6, rows)
}

func TestRunConvert_FailureWritesNothing(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "export.csv")
	require.NoError(t, os.WriteFile(in, []byte("ID,post_parent,post_title\n1,,Rug\n"), 0o644))
	out := filepath.Join(dir, "shopify.csv")

	_, err := runConvert(context.Background(), config.Default(), zap.NewNop(),
		convertOptions{Input: in, Output: out, Quiet: true}, &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing field "post_status"`)
	assert.NoFileExists(t, out)
}

func TestRunConvert_BadInputs(t *testing.T) {
	dir, in := writeExport(t)

	_, err := runConvert(context.Background(), config.Default(), zap.NewNop(),
		convertOptions{Input: filepath.Join(dir, "missing.csv")}, &bytes.Buffer{}, &bytes.Buffer{})
	assert.Error(t, err)

	_, err = runConvert(context.Background(), config.Default(), zap.NewNop(),
		convertOptions{Input: in, Format: "pdf", Quiet: true}, &bytes.Buffer{}, &bytes.Buffer{})
	assert.Error(t, err)

	_, err = runConvert(context.Background(), config.Default(), zap.NewNop(),
		convertOptions{Input: in, Output: "-", Format: "sqlite"}, &bytes.Buffer{}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestOutputPath(t *testing.T) {
	now := time.Date(2024, 1, 31, 9, 45, 0, 0, time.UTC)
	dir := t.TempDir()

	assert.Equal(t, filepath.Join("output", "wordpress-to-shopify_20240131_094500.csv"),
		outputPath("", "output", shopify.FormatCSV, now))
	assert.Equal(t, filepath.Join(dir, "wordpress-to-shopify_20240131_094500.xlsx"),
		outputPath(dir, "output", shopify.FormatXLSX, now))
	assert.Equal(t, "out/file.csv", outputPath("out/file.csv", "output", shopify.FormatCSV, now))
}

func TestRunStats(t *testing.T) {
	_, in := writeExport(t)

	var out bytes.Buffer
	require.NoError(t, runStats(context.Background(), config.Default(), zap.NewNop(), in, 2, &out))

	text := out.String()
	assert.Contains(t, text, "Source records: 4")
	assert.Contains(t, text, "post_title")
	assert.Contains(t, text, "Total Unique Products: 2")
	assert.Contains(t, text, "Total Rows (incl. variants): 6")
	assert.Contains(t, text, "Average Rows per Product: 3.0")
	assert.Contains(t, text, "Rug")
	assert.Contains(t, text, "Mat")
}

func TestRootCommand_Convert(t *testing.T) {
	dir, in := writeExport(t)
	out := filepath.Join(dir, "cli.csv")
	t.Setenv("WP2SHOPIFY_LOG_LEVEL", "error")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"convert", in, "-o", out, "--quiet"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.FileExists(t, out)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Contains(t, stdout.String(), "Total Unique Products: 2")
}
