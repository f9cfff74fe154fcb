package shopify

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Format is an output encoding.
type Format string

const (
	FormatCSV    Format = "csv"
	FormatXLSX   Format = "xlsx"
	FormatSQLite Format = "sqlite"
)

// ParseFormat accepts a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "sqlite", "db":
		return FormatSQLite, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want csv, xlsx or sqlite)", s)
	}
}

// FormatForPath guesses the format from a file extension, falling back to def.
func FormatForPath(path string, def Format) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".xlsx":
		return FormatXLSX
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	default:
		return def
	}
}

// Ext returns the file extension used for the format, without the dot.
func (f Format) Ext() string {
	if f == FormatSQLite {
		return "db"
	}
	return string(f)
}

// ContentType returns the MIME type for downloads.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatSQLite:
		return "application/vnd.sqlite3"
	default:
		return "text/csv"
	}
}

// Filename builds the timestamped export name, e.g. wordpress-to-shopify_20240131_094500.csv.
func Filename(now time.Time, f Format) string {
	return fmt.Sprintf("wordpress-to-shopify_%s.%s", now.Format("20060102_150405"), f.Ext())
}
