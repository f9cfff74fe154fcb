package convert

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingColumn marks a source table that lacks a structural column.
	ErrMissingColumn = errors.New("missing required column")
	// ErrMissingField marks a parent record that lacks a required field.
	ErrMissingField = errors.New("missing required field")
)

// ColumnError reports a structural column absent from the source header.
type ColumnError struct {
	Column string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("source table has no %q column", e.Column)
}

func (e *ColumnError) Unwrap() error { return ErrMissingColumn }

// FieldError reports a parent record without a field the converter needs.
type FieldError struct {
	// Row is the zero-based position of the record in the source table.
	Row   int
	ID    string
	Field string
}

func (e *FieldError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("product at row %d: missing field %q", e.Row+1, e.Field)
	}
	return fmt.Sprintf("product %s (row %d): missing field %q", e.ID, e.Row+1, e.Field)
}

func (e *FieldError) Unwrap() error { return ErrMissingField }
