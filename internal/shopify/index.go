package shopify

import (
	"github.com/RoaringBitmap/roaring"
)

// Index groups an output row sequence by Handle.
//
// Row positions are kept in roaring bitmaps: one per handle, plus one for
// rows carrying product fields and one for rows carrying an image, so the
// per-product counts are bitmap intersections rather than rescans.
type Index struct {
	rows     []Row
	handles  []string // first-appearance order
	byHandle map[string]*roaring.Bitmap
	variants *roaring.Bitmap
	images   *roaring.Bitmap
}

// NewIndex indexes rows by handle.
func NewIndex(rows []Row) *Index {
	ix := &Index{
		rows:     rows,
		byHandle: make(map[string]*roaring.Bitmap),
		variants: roaring.New(),
		images:   roaring.New(),
	}
	for i, r := range rows {
		pos := uint32(i)
		bm, ok := ix.byHandle[r.Handle]
		if !ok {
			bm = roaring.New()
			ix.byHandle[r.Handle] = bm
			ix.handles = append(ix.handles, r.Handle)
		}
		bm.Add(pos)
		if r.HasProductFields() {
			ix.variants.Add(pos)
		}
		if r.HasImage() {
			ix.images.Add(pos)
		}
	}
	return ix
}

// Handles returns every handle in order of first appearance.
func (ix *Index) Handles() []string {
	return ix.handles
}

// Rows returns the rows of one product in output order.
func (ix *Index) Rows(handle string) []Row {
	bm, ok := ix.byHandle[handle]
	if !ok {
		return nil
	}
	out := make([]Row, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, ix.rows[it.Next()])
	}
	return out
}

// Contiguous reports whether every product occupies a single unbroken block
// of rows, which Shopify's importer requires.
func (ix *Index) Contiguous() bool {
	for _, bm := range ix.byHandle {
		if bm.Maximum()-bm.Minimum()+1 != uint32(bm.GetCardinality()) {
			return false
		}
	}
	return true
}

// Stats counts one product's rows.
func (ix *Index) Stats(handle string) ProductStats {
	bm, ok := ix.byHandle[handle]
	if !ok {
		return ProductStats{Handle: handle}
	}
	st := ProductStats{
		Handle:    handle,
		Variants:  int(roaring.And(bm, ix.variants).GetCardinality()),
		Images:    int(roaring.And(bm, ix.images).GetCardinality()),
		TotalRows: int(bm.GetCardinality()),
	}
	it := bm.Iterator()
	for it.HasNext() {
		if r := ix.rows[it.Next()]; r.HasProductFields() {
			st.Title = r.Title
			break
		}
	}
	return st
}
