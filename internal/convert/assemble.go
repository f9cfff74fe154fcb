package convert

import (
	"github.com/agentic-research/wp2shopify/api"
	"github.com/agentic-research/wp2shopify/internal/record"
	"github.com/agentic-research/wp2shopify/internal/shopify"
)

// publishedStatus is the post_status of a live WordPress product.
const publishedStatus = "publish"

// Assembler turns one parent and its children into a product row block.
type Assembler struct {
	Schema *api.SourceSchema
}

// NewAssembler returns an assembler for the given schema, or the stock one when nil.
func NewAssembler(schema *api.SourceSchema) *Assembler {
	if schema == nil {
		schema = api.DefaultSchema()
	}
	return &Assembler{Schema: schema}
}

// AssembleProduct assembles one product with the stock schema.
func AssembleProduct(parent record.Record, children []record.Record) ([]shopify.Row, error) {
	return NewAssembler(nil).Assemble(parent, children)
}

// Assemble returns the product's rows in import order:
//
//  1. the base row: product fields, first image, base combination
//  2. one image-only row per further image
//  3. one row per remaining option combination, without image fields
func (a *Assembler) Assemble(parent record.Record, children []record.Record) ([]shopify.Row, error) {
	if err := a.checkRequired(parent); err != nil {
		return nil, err
	}

	prefixes := a.Schema.AttributePrefixes
	if len(prefixes) == 0 {
		prefixes = api.DefaultAttributePrefixes
	}
	axes := ActiveAxes(children, prefixes)
	images := ParseImages(parent.Get(api.ColumnImages))
	combos := Combinations(axes)

	product := productRow(parent)
	rows := make([]shopify.Row, 0, max(len(images), 1)+len(combos))

	first := product
	first.Kind = shopify.KindBase
	if len(images) > 0 {
		first.ImageSrc = images[0].URL
		first.ImageAlt = images[0].Alt
		first.ImagePosition = 1
	}
	if len(axes) > 0 {
		first.Options = OptionSlots(axes, BaseCombination(axes))
	}
	rows = append(rows, first)

	for i, img := range images[min(1, len(images)):] {
		rows = append(rows, shopify.Row{
			Kind:          shopify.KindImage,
			Handle:        product.Handle,
			ImageSrc:      img.URL,
			ImageAlt:      img.Alt,
			ImagePosition: i + 2,
		})
	}

	for _, combo := range combos {
		v := product
		v.Kind = shopify.KindVariant
		v.Options = OptionSlots(axes, combo)
		rows = append(rows, v)
	}
	return rows, nil
}

func (a *Assembler) checkRequired(parent record.Record) error {
	for _, name := range a.Schema.RequiredParentFields {
		f := parent.Get(name)
		missing := !f.Present
		if name == api.ColumnID {
			missing = f.Blank()
		}
		if missing {
			return &FieldError{Row: parent.Index, ID: parent.ID(), Field: name}
		}
	}
	return nil
}

// productRow applies the field derivation rules shared by base and variant rows.
func productRow(parent record.Record) shopify.Row {
	published := "false"
	if parent.Text(api.ColumnStatus) == publishedStatus {
		published = "true"
	}
	return shopify.Row{
		Handle:         parent.ID(),
		Title:          parent.Text(api.ColumnTitle),
		Body:           parent.Text(api.ColumnExcerpt),
		Published:      published,
		Price:          parent.Text(api.ColumnRegularPrice),
		CompareAtPrice: parent.Text(api.ColumnSalePrice),
	}
}
