package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/agentic-research/wp2shopify/api"
	"github.com/agentic-research/wp2shopify/internal/record"
	"github.com/agentic-research/wp2shopify/internal/shopify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var exportHeader = []string{
	"ID", "post_parent", "post_title", "post_excerpt", "post_status",
	"regular_price", "sale_price", "images",
	"meta:attribute_pa_sizes", "meta:attribute_pa_texture", "meta:attribute_pa_thickness",
}

func rugTable() *record.Table {
	return record.NewTable(exportHeader, [][]string{
		{"10", "", "Rug", "", "publish", "100", "", "a.jpg|b.jpg!alt : Back", "", "", ""},
		{"11", "10", "Rug - Small", "", "publish", "", "", "", "Small", "", ""},
		{"12", "10", "Rug - Large", "", "publish", "", "", "", "Large", "", ""},
		{"20", "", "Mat", "Thin mat", "draft", "20", "15", "", "", "", ""},
		{"30", "", "Runner", "", "publish", "60", "", "r1.jpg", "", "", ""},
		{"31", "30", "", "", "publish", "", "", "", "S|M", "Flat", "1cm"},
		{"32", "30", "", "", "publish", "", "", "", "L", "Loop", "1cm"},
	})
}

func TestConvert_ConcatenatesBlocksInParentOrder(t *testing.T) {
	rows, err := Convert(rugTable())
	require.NoError(t, err)

	var handles []string
	for _, r := range rows {
		handles = append(handles, r.Handle)
	}
	// Rug: base + image + 1 variant; Mat: base; Runner: 3 sizes x 2 textures.
	assert.Equal(t, []string{
		"10", "10", "10",
		"20",
		"30", "30", "30", "30", "30", "30",
	}, handles)

	assert.Equal(t, "Large", rows[0].Options[0].Value)
	assert.Equal(t, "Small", rows[2].Options[0].Value)

	mat := rows[3]
	assert.Equal(t, "Thin mat", mat.Body)
	assert.Equal(t, "false", mat.Published)
	assert.Equal(t, "15", mat.CompareAtPrice)
	assert.Empty(t, mat.Options)

	runner := rows[4]
	assert.Equal(t, []shopify.Option{
		{Name: "Size", Value: "L"},
		{Name: "Texture", Value: "Flat"},
		{Name: "Thickness", Value: "1cm"},
	}, runner.Options)
}

func TestConvert_HandlesAreParentIDsOnly(t *testing.T) {
	tbl := rugTable()
	rows, err := Convert(tbl)
	require.NoError(t, err)

	parentIDs := map[string]bool{}
	childIDs := map[string]bool{}
	for _, r := range tbl.Records {
		if r.IsParent() {
			parentIDs[r.ID()] = true
		} else {
			childIDs[r.ID()] = true
		}
	}
	for _, r := range rows {
		assert.True(t, parentIDs[r.Handle], "handle %s is not a parent", r.Handle)
		assert.False(t, childIDs[r.Handle], "handle %s is a child id", r.Handle)
	}
	assert.True(t, shopify.NewIndex(rows).Contiguous())
}

func TestConvert_ZeroParentIsAChild(t *testing.T) {
	tbl := record.NewTable([]string{"ID", "post_parent", "post_title", "post_status"}, [][]string{
		{"10", "", "Rug", "publish"},
		{"11", "0", "Orphan child", "publish"},
	})

	rows, err := Convert(tbl)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "10", rows[0].Handle)

	schema := api.DefaultSchema()
	schema.ZeroParentIsTopLevel = true
	rows, err = NewConverter(schema).Convert(context.Background(), tbl)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "11", rows[1].Handle)
	assert.Equal(t, "Orphan child", rows[1].Title)
}

func TestConvert_BlankAttributeColumnFallsThrough(t *testing.T) {
	tbl := record.NewTable([]string{"ID", "post_parent", "post_title", "post_status", "meta:attribute_pa_sizes", "attribute_pa_sizes"}, [][]string{
		{"10", "", "Rug", "publish", "", ""},
		{"11", "10", "", "", "", "Small"},
		{"12", "10", "", "", "", "Large"},
	})

	rows, err := Convert(tbl)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []shopify.Option{{Name: "Size", Value: "Large"}}, rows[0].Options)
	assert.Equal(t, []shopify.Option{{Name: "Size", Value: "Small"}}, rows[1].Options)
}

func TestConvert_Idempotent(t *testing.T) {
	render := func() []byte {
		rows, err := Convert(rugTable())
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, shopify.WriteCSV(&buf, rows))
		return buf.Bytes()
	}
	assert.Equal(t, render(), render())
}

func TestConvert_MissingStructuralColumn(t *testing.T) {
	tbl := record.NewTable([]string{"ID", "post_title"}, [][]string{{"1", "x"}})
	rows, err := Convert(tbl)
	require.Error(t, err)
	assert.Nil(t, rows)
	assert.True(t, errors.Is(err, ErrMissingColumn))

	var ce *ColumnError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "post_parent", ce.Column)
}

func TestConvert_AllOrNothing(t *testing.T) {
	tbl := record.NewTable([]string{"ID", "post_parent", "post_status", "post_title"}, [][]string{
		{"1", "", "publish", "ok"},
		{"2", "", "publish"}, // short row: post_title absent
		{"3", "", "publish", "ok"},
	})

	rows, err := Convert(tbl)
	require.Error(t, err)
	assert.Nil(t, rows)
	assert.Contains(t, err.Error(), `missing field "post_title"`)
	assert.Contains(t, err.Error(), "product 2")
}

func TestConvert_Progress(t *testing.T) {
	var calls [][2]int
	c := NewConverter(nil)
	c.Progress = func(done, total int) {
		calls = append(calls, [2]int{done, total})
	}

	_, err := c.Convert(context.Background(), rugTable())
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, calls)
}

func TestConvert_EmptyTable(t *testing.T) {
	rows, err := Convert(record.NewTable(exportHeader, nil))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestConvert_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewConverter(nil).Convert(ctx, rugTable())
	assert.ErrorIs(t, err, context.Canceled)
}

func bigTable(products, sizes int) *record.Table {
	var rows [][]string
	id := 1
	for p := 0; p < products; p++ {
		pid := id
		rows = append(rows, []string{fmt.Sprint(pid), "", fmt.Sprintf("P%d", p), "", "publish", "1", "", "x.jpg|y.jpg", "", "", ""})
		id++
		for s := 0; s < sizes; s++ {
			rows = append(rows, []string{fmt.Sprint(id), fmt.Sprint(pid), "", "", "", "", "", "", fmt.Sprintf("S%02d", s), "", ""})
			id++
		}
	}
	return record.NewTable(exportHeader, rows)
}

func TestConvert_ParallelMatchesSequential(t *testing.T) {
	defer goleak.VerifyNone(t)

	tbl := bigTable(200, 4)
	want, err := Convert(tbl)
	require.NoError(t, err)

	c := NewConverter(nil)
	c.Workers = 8
	last := 0
	c.Progress = func(done, total int) {
		assert.Equal(t, last+1, done, "progress must be monotonic")
		assert.Equal(t, 200, total)
		last = done
	}
	got, err := c.Convert(context.Background(), tbl)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 200, last)
}

func TestConvert_ParallelError(t *testing.T) {
	defer goleak.VerifyNone(t)

	tbl := bigTable(50, 1)
	bad := record.New(len(tbl.Records))
	bad.Set("ID", "999")
	bad.Set("post_parent", "")
	bad.Set("post_title", "no status")
	tbl.Records = append(tbl.Records, bad)

	c := NewConverter(nil)
	c.Workers = 4
	rows, err := c.Convert(context.Background(), tbl)
	require.Error(t, err)
	assert.Nil(t, rows)
	assert.True(t, errors.Is(err, ErrMissingField))
}
