package api

// Column names of a WooCommerce product export.
const (
	ColumnID           = "ID"
	ColumnParent       = "post_parent"
	ColumnTitle        = "post_title"
	ColumnExcerpt      = "post_excerpt"
	ColumnStatus       = "post_status"
	ColumnRegularPrice = "regular_price"
	ColumnSalePrice    = "sale_price"
	ColumnImages       = "images"
)

// DefaultAttributePrefixes are probed in order when looking up an axis column.
// The export plugin writes "meta:attribute_pa_<axis>"; hand-built sheets often drop the "meta:".
var DefaultAttributePrefixes = []string{"meta:attribute_pa_", "attribute_pa_"}

// SourceSchema describes where the converter finds its inputs.
// It maps a WordPress export onto the fields the converter reads.
type SourceSchema struct {
	// Version of the schema.
	Version string `json:"version"`
	// AttributePrefixes are tried in order to build an axis column name.
	AttributePrefixes []string `json:"attribute_prefixes,omitempty"`
	// RequiredParentFields must be present on every parent record.
	RequiredParentFields []string `json:"required_parent_fields,omitempty"`
	// ZeroParentIsTopLevel reads a post_parent of 0 as "no parent".
	ZeroParentIsTopLevel bool `json:"zero_parent_is_top_level,omitempty"`
}

// DefaultSchema returns the schema of a stock WooCommerce export.
func DefaultSchema() *SourceSchema {
	return &SourceSchema{
		Version:              "v1",
		AttributePrefixes:    append([]string(nil), DefaultAttributePrefixes...),
		RequiredParentFields: []string{ColumnID, ColumnTitle, ColumnStatus},
	}
}

// StructuralColumns must appear in the table header before any conversion starts.
var StructuralColumns = []string{ColumnID, ColumnParent}
