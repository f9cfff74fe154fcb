package record

// Table is an in-memory source export: a header and its records in source order.
type Table struct {
	Columns []string
	Records []Record
}

// NewTable builds a table from a header and raw rows.
func NewTable(header []string, rows [][]string) *Table {
	t := &Table{Columns: append([]string(nil), header...)}
	t.Records = make([]Record, 0, len(rows))
	for i, row := range rows {
		t.Records = append(t.Records, FromColumns(i, t.Columns, row))
	}
	return t
}

// HasColumn reports whether the header declares the column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.Records)
}

// Parents returns the product records in source order.
func (t *Table) Parents() []Record {
	parents, _ := t.Partition(false)
	return parents
}

// ChildrenByParent groups variant records by canonical parent ID, keeping
// source order within each group.
func (t *Table) ChildrenByParent() map[string][]Record {
	_, children := t.Partition(false)
	return children
}

// Partition splits the records into products and variants grouped by
// canonical parent ID in one pass. zeroParent treats post_parent 0 as a
// product, the way WordPress marks top-level posts.
func (t *Table) Partition(zeroParent bool) ([]Record, map[string][]Record) {
	var parents []Record
	children := make(map[string][]Record)
	for _, r := range t.Records {
		if r.IsTopLevel(zeroParent) {
			parents = append(parents, r)
			continue
		}
		pid := r.ParentID()
		children[pid] = append(children[pid], r)
	}
	return parents, children
}
