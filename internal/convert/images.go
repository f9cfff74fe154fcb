package convert

import (
	"strings"

	"github.com/agentic-research/wp2shopify/internal/record"
)

const (
	imageSep   = "|"
	segmentSep = "!"
	altPrefix  = "alt :"
)

// Image is one product image with optional alt text.
type Image struct {
	URL string
	Alt string
}

// ParseImages decodes a WooCommerce images cell:
//
//	url[!key : value...][ | url...]
//
// The first "alt :" segment of an entry supplies its alt text. Blank entries
// and entries without a URL are dropped. Never fails.
func ParseImages(field record.Field) []Image {
	if field.Blank() {
		return nil
	}

	var images []Image
	for _, entry := range strings.Split(field.Value, imageSep) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		segments := strings.Split(entry, segmentSep)
		img := Image{URL: strings.TrimSpace(segments[0])}
		if img.URL == "" {
			continue
		}
		for _, seg := range segments[1:] {
			seg = strings.TrimSpace(seg)
			if strings.HasPrefix(seg, altPrefix) {
				img.Alt = strings.TrimSpace(strings.TrimPrefix(seg, altPrefix))
				break
			}
		}
		images = append(images, img)
	}
	return images
}
