package shopify

import (
	"database/sql"
	"fmt"
	"regexp"

	_ "modernc.org/sqlite"
)

// DefaultTable is the table WriteSQLite fills when none is configured.
const DefaultTable = "shopify_rows"

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteWriter appends one conversion run to a SQLite table.
// Every row of the run is written in a single transaction: Close commits, Abort discards.
type SQLiteWriter struct {
	db    *sql.DB
	tx    *sql.Tx
	stmt  *sql.Stmt
	runID string
	count int
}

// NewSQLiteWriter opens dbPath, creates the table if needed and starts a transaction.
func NewSQLiteWriter(dbPath, table, runID string) (*SQLiteWriter, error) {
	if table == "" {
		table = DefaultTable
	}
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// Bulk insert tuning; the transaction still guarantees all-or-nothing.
	if _, err := db.Exec("PRAGMA journal_mode = MEMORY"); err != nil {
		_ = db.Close()
		return nil, err
	}

	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %[1]s (
		run_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		kind TEXT NOT NULL,
		handle TEXT NOT NULL,
		title TEXT,
		body_html TEXT,
		published TEXT,
		image_src TEXT,
		image_alt_text TEXT,
		image_position INTEGER,
		option1_name TEXT,
		option1_value TEXT,
		option2_name TEXT,
		option2_value TEXT,
		option3_name TEXT,
		option3_value TEXT,
		variant_price TEXT,
		variant_compare_at_price TEXT,
		PRIMARY KEY (run_id, position)
	);
	CREATE INDEX IF NOT EXISTS idx_%[1]s_handle ON %[1]s(run_id, handle);
	`, table)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	w := &SQLiteWriter{db: db, runID: runID}
	if err := w.beginTx(table); err != nil {
		_ = db.Close()
		return nil, err
	}
	return w, nil
}

func (w *SQLiteWriter) beginTx(table string) error {
	var err error
	w.tx, err = w.db.Begin()
	if err != nil {
		return err
	}
	w.stmt, err = w.tx.Prepare(fmt.Sprintf(`
		INSERT INTO %s (run_id, position, kind, handle, title, body_html, published,
			image_src, image_alt_text, image_position,
			option1_name, option1_value, option2_name, option2_value, option3_name, option3_value,
			variant_price, variant_compare_at_price)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, table))
	if err != nil {
		_ = w.tx.Rollback()
	}
	return err
}

// AddRow inserts the next row of the run. Columns the row omits are stored as NULL.
func (w *SQLiteWriter) AddRow(r Row) error {
	f := r.Fields()
	col := func(name string) any {
		v, ok := f[name]
		if !ok {
			return nil
		}
		return v
	}
	var pos any
	if r.HasImage() {
		pos = r.ImagePosition
	}

	_, err := w.stmt.Exec(
		w.runID, w.count, r.Kind.String(), r.Handle,
		col(ColTitle), col(ColBody), col(ColPublished),
		col(ColImageSrc), col(ColImageAlt), pos,
		col(OptionNameColumn(1)), col(OptionValueColumn(1)),
		col(OptionNameColumn(2)), col(OptionValueColumn(2)),
		col(OptionNameColumn(3)), col(OptionValueColumn(3)),
		col(ColVariantPrice), col(ColCompareAtPrice),
	)
	if err != nil {
		return fmt.Errorf("insert row %d: %w", w.count, err)
	}
	w.count++
	return nil
}

// Count returns the number of rows added so far.
func (w *SQLiteWriter) Count() int {
	return w.count
}

// Close commits the run.
func (w *SQLiteWriter) Close() error {
	_ = w.stmt.Close()
	if err := w.tx.Commit(); err != nil {
		_ = w.db.Close()
		return fmt.Errorf("commit run %s: %w", w.runID, err)
	}
	return w.db.Close()
}

// Abort rolls the run back.
func (w *SQLiteWriter) Abort() error {
	_ = w.stmt.Close()
	err := w.tx.Rollback()
	_ = w.db.Close()
	return err
}

// WriteSQLite stores a whole run, or nothing if any insert fails, and
// returns the number of rows committed.
func WriteSQLite(dbPath, table, runID string, rows []Row) (int, error) {
	w, err := NewSQLiteWriter(dbPath, table, runID)
	if err != nil {
		return 0, err
	}
	for _, r := range rows {
		if err := w.AddRow(r); err != nil {
			_ = w.Abort()
			return 0, err
		}
	}
	n := w.Count()
	if err := w.Close(); err != nil {
		return 0, err
	}
	return n, nil
}
