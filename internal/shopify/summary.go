package shopify

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// ProductStats is one line of the per-product breakdown.
type ProductStats struct {
	Handle    string `json:"handle"`
	Title     string `json:"title"`
	Variants  int    `json:"variants"`
	Images    int    `json:"images"`
	TotalRows int    `json:"total_rows"`
}

// Summary describes a converted row sequence.
type Summary struct {
	UniqueProducts int            `json:"unique_products"`
	TotalRows      int            `json:"total_rows"`
	AverageRows    float64        `json:"average_rows_per_product"`
	Products       []ProductStats `json:"products"`
}

// Summarize computes conversion statistics from the rows alone.
func Summarize(rows []Row) Summary {
	ix := NewIndex(rows)
	s := Summary{
		UniqueProducts: len(ix.Handles()),
		TotalRows:      len(rows),
		Products:       make([]ProductStats, 0, len(ix.Handles())),
	}
	if s.UniqueProducts > 0 {
		s.AverageRows = float64(s.TotalRows) / float64(s.UniqueProducts)
	}
	for _, h := range ix.Handles() {
		s.Products = append(s.Products, ix.Stats(h))
	}
	return s
}

// WriteText prints the totals and, when breakdown is set, one line per product.
func (s Summary) WriteText(w io.Writer, breakdown bool) error {
	if _, err := fmt.Fprintf(w, "Total Unique Products: %d\nTotal Rows (incl. variants): %d\nAverage Rows per Product: %.1f\n",
		s.UniqueProducts, s.TotalRows, s.AverageRows); err != nil {
		return err
	}
	if !breakdown || len(s.Products) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw)
	_, _ = fmt.Fprintln(tw, "HANDLE\tTITLE\tVARIANTS\tIMAGES\tTOTAL ROWS")
	for _, p := range s.Products {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\n", p.Handle, p.Title, p.Variants, p.Images, p.TotalRows)
	}
	return tw.Flush()
}
