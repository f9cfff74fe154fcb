package record

import (
	"math"
	"strconv"
	"strings"

	"github.com/agentic-research/wp2shopify/api"
)

// Field is a single source value. A blank CSV cell is present but empty;
// a missing column, a missing JSON key or a SQL NULL is absent.
type Field struct {
	Value   string
	Present bool
}

// Value builds a present field.
func Value(v string) Field {
	return Field{Value: v, Present: true}
}

// String applies the converter's only fallback rule: absent reads as "".
func (f Field) String() string {
	if !f.Present {
		return ""
	}
	return f.Value
}

// Blank reports whether the field is absent or whitespace only.
func (f Field) Blank() bool {
	return !f.Present || strings.TrimSpace(f.Value) == ""
}

// Record is one row of a WordPress export.
type Record struct {
	// Index is the zero-based position of the record in its source table.
	Index  int
	fields map[string]string
}

// New returns an empty record at the given source position.
func New(index int) Record {
	return Record{Index: index, fields: make(map[string]string)}
}

// FromColumns zips a header with a row of values. Values past the end of a
// short row are left absent.
func FromColumns(index int, header, values []string) Record {
	r := New(index)
	for i, col := range header {
		if i >= len(values) {
			break
		}
		r.fields[col] = values[i]
	}
	return r
}

// Set stores a present value.
func (r Record) Set(name, value string) {
	r.fields[name] = value
}

// Get returns the named field.
func (r Record) Get(name string) Field {
	v, ok := r.fields[name]
	if !ok {
		return Field{}
	}
	return Value(v)
}

// Text returns the named field with absent mapped to "".
func (r Record) Text(name string) string {
	return r.Get(name).String()
}

// Has reports whether the named field is present.
func (r Record) Has(name string) bool {
	_, ok := r.fields[name]
	return ok
}

// Len returns the number of present fields.
func (r Record) Len() int {
	return len(r.fields)
}

// ID returns the canonical record identifier.
func (r Record) ID() string {
	return CanonicalID(r.Text(api.ColumnID))
}

// ParentID returns the canonical post_parent reference, "" for parents.
func (r Record) ParentID() string {
	if r.IsParent() {
		return ""
	}
	return CanonicalID(r.Text(api.ColumnParent))
}

// IsParent reports whether post_parent is absent or blank, i.e. the record
// is a product rather than a variant.
func (r Record) IsParent() bool {
	return r.Get(api.ColumnParent).Blank()
}

// IsTopLevel is IsParent, widened to WordPress's post_parent of 0 when
// zeroParent is set.
func (r Record) IsTopLevel(zeroParent bool) bool {
	if r.IsParent() {
		return true
	}
	return zeroParent && r.ParentID() == "0"
}

// Attribute returns the first non-blank attribute column for an axis suffix,
// falling back to the first present one.
func (r Record) Attribute(prefixes []string, suffix string) Field {
	var first Field
	for _, prefix := range prefixes {
		f := r.Get(prefix + suffix)
		if !f.Present {
			continue
		}
		if !f.Blank() {
			return f
		}
		if !first.Present {
			first = f
		}
	}
	return first
}

// CanonicalID trims an identifier and collapses float renderings of whole
// numbers ("10.0") to their integer form, so IDs written by spreadsheet tools
// still match the post_parent references that point at them.
func CanonicalID(s string) string {
	s = strings.TrimSpace(s)
	if !strings.ContainsAny(s, ".eE") {
		return s
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return s
	}
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return s
	}
	return strconv.FormatInt(int64(f), 10)
}
