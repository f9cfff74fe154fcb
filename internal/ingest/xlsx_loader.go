package ingest

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/agentic-research/wp2shopify/internal/record"
	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads an export saved as a workbook. The first row of the sheet is
// the header; an empty sheet name selects the first sheet.
func ReadXLSX(r io.Reader, sheet string) (*record.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("no sheets found in workbook")
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if !slices.Contains(sheets, sheet) {
		return nil, fmt.Errorf("sheet not found: %s", sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet is empty: %s", sheet)
	}

	header := cleanHeader(rows[0])
	data := rows[1:]
	// GetRows drops trailing empty cells; pad so a blank cell reads as present-but-empty like in CSV.
	for i, row := range data {
		if len(row) < len(header) {
			padded := make([]string, len(header))
			copy(padded, row)
			data[i] = padded
		}
	}
	return record.NewTable(header, data), nil
}
