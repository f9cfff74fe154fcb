package ingest

import (
	"database/sql"
	"fmt"
	"regexp"

	"github.com/agentic-research/wp2shopify/internal/record"
	_ "modernc.org/sqlite"
)

// DefaultTable is the table a SQLite export is read from.
const DefaultTable = "products"

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// StreamSQLite iterates over every row of table. header is called once with
// the column names, then fn once per row; a NULL cell has Valid unset.
// Only one row is alive at a time.
func StreamSQLite(dbPath, table string, header func(columns []string), fn func(cells []sql.NullString) error) error {
	if table == "" {
		table = DefaultTable
	}
	if !tableNameRe.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	defer func() { _ = db.Close() }() // safe to ignore

	rows, err := db.Query("SELECT * FROM " + table + " ORDER BY rowid")
	if err != nil {
		return fmt.Errorf("query %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("columns: %w", err)
	}
	header(columns)

	cells := make([]sql.NullString, len(columns))
	dest := make([]any, len(columns))
	for i := range cells {
		dest[i] = &cells[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		if err := fn(cells); err != nil {
			return err
		}
	}
	return rows.Err()
}

// LoadSQLite reads a whole export table into memory.
func LoadSQLite(dbPath, table string) (*record.Table, error) {
	t := &record.Table{}
	header := func(columns []string) { t.Columns = append([]string(nil), columns...) }
	err := StreamSQLite(dbPath, table, header, func(cells []sql.NullString) error {
		rec := record.New(len(t.Records))
		for i, c := range cells {
			if c.Valid {
				rec.Set(t.Columns[i], c.String)
			}
		}
		t.Records = append(t.Records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}
