package shopify

import "strconv"

// Shopify product import column names.
const (
	ColHandle         = "Handle"
	ColTitle          = "Title"
	ColBody           = "Body (HTML)"
	ColPublished      = "Published"
	ColImageSrc       = "Image Src"
	ColImageAlt       = "Image Alt Text"
	ColImagePosition  = "Image Position"
	ColVariantPrice   = "Variant Price"
	ColCompareAtPrice = "Variant Compare At Price"
)

// MaxOptions is the number of option slots a Shopify product has.
const MaxOptions = 3

// Columns is the output column order expected by Shopify's importer.
var Columns = []string{
	ColHandle, ColTitle, ColBody, ColPublished,
	ColImageSrc, ColImageAlt, ColImagePosition,
	OptionNameColumn(1), OptionValueColumn(1),
	OptionNameColumn(2), OptionValueColumn(2),
	OptionNameColumn(3), OptionValueColumn(3),
	ColVariantPrice, ColCompareAtPrice,
}

// OptionNameColumn returns "Option{slot} Name".
func OptionNameColumn(slot int) string {
	return "Option" + strconv.Itoa(slot) + " Name"
}

// OptionValueColumn returns "Option{slot} Value".
func OptionValueColumn(slot int) string {
	return "Option" + strconv.Itoa(slot) + " Value"
}

// Kind says which group of columns a row carries.
type Kind int

const (
	// KindBase is the first row of a product: product fields, first image, first options.
	KindBase Kind = iota
	// KindImage carries only the handle and one extra image.
	KindImage
	// KindVariant carries product fields and one non-base option combination.
	KindVariant
)

func (k Kind) String() string {
	switch k {
	case KindBase:
		return "base"
	case KindImage:
		return "image"
	case KindVariant:
		return "variant"
	default:
		return "unknown"
	}
}

// Option fills one OptionN Name/Value slot.
type Option struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Row is one line of a Shopify product import. Rows sharing a Handle form one product.
type Row struct {
	Kind           Kind
	Handle         string
	Title          string
	Body           string
	Published      string
	Price          string
	CompareAtPrice string
	ImageSrc       string
	ImageAlt       string
	// ImagePosition is 1-based; 0 means the row carries no image.
	ImagePosition int
	// Options are assigned to slots 1..len(Options) in order.
	Options []Option
}

// HasImage reports whether the row carries image columns.
func (r Row) HasImage() bool {
	return r.ImagePosition > 0
}

// HasProductFields reports whether the row carries title, price and the other product columns.
// Image rows inherit those from the product's first row.
func (r Row) HasProductFields() bool {
	return r.Kind != KindImage
}

// Fields returns the columns this row carries. Columns the row omits are
// absent from the map, not mapped to "".
func (r Row) Fields() map[string]string {
	m := map[string]string{ColHandle: r.Handle}
	if r.HasProductFields() {
		m[ColTitle] = r.Title
		m[ColBody] = r.Body
		m[ColPublished] = r.Published
		m[ColVariantPrice] = r.Price
		m[ColCompareAtPrice] = r.CompareAtPrice
	}
	if r.HasImage() {
		m[ColImageSrc] = r.ImageSrc
		m[ColImageAlt] = r.ImageAlt
		m[ColImagePosition] = strconv.Itoa(r.ImagePosition)
	}
	for i, opt := range r.Options {
		if i >= MaxOptions {
			break
		}
		m[OptionNameColumn(i+1)] = opt.Name
		m[OptionValueColumn(i+1)] = opt.Value
	}
	return m
}

// Cells renders the row in Columns order, writing "" for columns it omits.
func (r Row) Cells() []string {
	fields := r.Fields()
	cells := make([]string, len(Columns))
	for i, col := range Columns {
		cells[i] = fields[col]
	}
	return cells
}
