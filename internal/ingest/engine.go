package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentic-research/wp2shopify/internal/record"
	"go.uber.org/zap"
)

// Kind is a source file encoding.
type Kind string

const (
	KindCSV    Kind = "csv"
	KindXLSX   Kind = "xlsx"
	KindJSON   Kind = "json"
	KindSQLite Kind = "sqlite"
)

// KindForPath maps a file extension to a source kind.
func KindForPath(path string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return KindCSV, nil
	case ".xlsx", ".xlsm":
		return KindXLSX, nil
	case ".json":
		return KindJSON, nil
	case ".db", ".sqlite", ".sqlite3":
		return KindSQLite, nil
	default:
		return "", fmt.Errorf("unsupported source file %s", path)
	}
}

// ParseKind accepts a kind name as given on a command line or query string.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindCSV, KindXLSX, KindJSON, KindSQLite:
		return k, nil
	case "", "text/csv":
		return KindCSV, nil
	default:
		return "", fmt.Errorf("unknown source kind %q", s)
	}
}

// Options tune the loaders.
type Options struct {
	// Sheet is the XLSX worksheet; empty means the first sheet.
	Sheet string
	// Selector is the JSONPath that selects product records in a JSON document.
	Selector string
	// Table is the SQLite table holding the export.
	Table string
}

// DefaultOptions returns the loader defaults.
func DefaultOptions() Options {
	return Options{Selector: DefaultSelector, Table: DefaultTable}
}

// Engine loads a WordPress export into a record table.
type Engine struct {
	Options Options
	Logger  *zap.Logger
}

func NewEngine(opts Options) *Engine {
	return &Engine{Options: opts, Logger: zap.NewNop()}
}

// Load reads a source file, choosing the loader from its extension.
func (e *Engine) Load(path string) (*record.Table, error) {
	kind, err := KindForPath(path)
	if err != nil {
		return nil, err
	}

	var t *record.Table
	if kind == KindSQLite {
		t, err = LoadSQLite(path, e.Options.Table)
	} else {
		f, openErr := os.Open(path)
		if openErr != nil {
			return nil, openErr
		}
		defer func() { _ = f.Close() }()
		t, err = e.Read(f, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	e.log().Info("loaded source",
		zap.String("path", path),
		zap.String("kind", string(kind)),
		zap.Int("records", t.Len()),
		zap.Int("columns", len(t.Columns)))
	return t, nil
}

// Read decodes a streamed source. SQLite sources need a file; use Load.
func (e *Engine) Read(r io.Reader, kind Kind) (*record.Table, error) {
	switch kind {
	case KindCSV:
		return ReadCSV(r)
	case KindXLSX:
		return ReadXLSX(r, e.Options.Sheet)
	case KindJSON:
		return ReadJSON(r, e.Options.Selector)
	default:
		return nil, fmt.Errorf("%s sources cannot be streamed", kind)
	}
}

func (e *Engine) log() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}
