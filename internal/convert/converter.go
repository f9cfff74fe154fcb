package convert

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/agentic-research/wp2shopify/api"
	"github.com/agentic-research/wp2shopify/internal/record"
	"github.com/agentic-research/wp2shopify/internal/shopify"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ProgressFunc receives the number of products converted so far and the
// total. Calls are serialised and done never decreases.
type ProgressFunc func(done, total int)

// Converter drives a whole export through the assembler.
type Converter struct {
	Schema *api.SourceSchema
	// Workers > 1 assembles products concurrently. Output order is unchanged.
	Workers int
	// Progress is optional.
	Progress ProgressFunc
	Logger   *zap.Logger
}

// NewConverter returns a sequential converter for the schema (stock schema when nil).
func NewConverter(schema *api.SourceSchema) *Converter {
	if schema == nil {
		schema = api.DefaultSchema()
	}
	return &Converter{Schema: schema, Workers: 1, Logger: zap.NewNop()}
}

// Convert is the one-shot entry point: stock schema, no progress.
func Convert(t *record.Table) ([]shopify.Row, error) {
	return NewConverter(nil).Convert(context.Background(), t)
}

// Convert returns every product's row block, concatenated in source order of
// the parents. The run is all-or-nothing: on error no rows are returned.
func (c *Converter) Convert(ctx context.Context, t *record.Table) ([]shopify.Row, error) {
	for _, col := range api.StructuralColumns {
		if !t.HasColumn(col) {
			return nil, &ColumnError{Column: col}
		}
	}

	start := time.Now()
	asm := NewAssembler(c.Schema)
	parents, children := t.Partition(asm.Schema.ZeroParentIsTopLevel)
	log := c.logger()

	blocks := make([][]shopify.Row, len(parents))
	report := c.reporter(len(parents))

	assemble := func(i int) error {
		p := parents[i]
		rows, err := asm.Assemble(p, children[p.ID()])
		if err != nil {
			return err
		}
		blocks[i] = rows
		log.Debug("assembled product",
			zap.String("handle", p.ID()),
			zap.Int("rows", len(rows)))
		report()
		return nil
	}

	if c.Workers <= 1 {
		for i := range parents {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := assemble(i); err != nil {
				return nil, fmt.Errorf("convert: %w", err)
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.Workers)
		for i := range parents {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				return assemble(i)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("convert: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	total := 0
	for _, b := range blocks {
		total += len(b)
	}
	out := make([]shopify.Row, 0, total)
	for _, b := range blocks {
		out = append(out, b...)
	}

	log.Info("conversion finished",
		zap.Int("source_records", t.Len()),
		zap.Int("products", len(parents)),
		zap.Int("rows", len(out)),
		zap.Duration("elapsed", time.Since(start)))
	return out, nil
}

// reporter returns a closure that counts one finished product per call.
func (c *Converter) reporter(total int) func() {
	if c.Progress == nil {
		return func() {}
	}
	var mu sync.Mutex
	done := 0
	return func() {
		mu.Lock()
		defer mu.Unlock()
		done++
		c.Progress(done, total)
	}
}

func (c *Converter) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
