package mcptool

import (
	"context"
	"strings"
	"testing"

	"github.com/agentic-research/wp2shopify/internal/convert"
	"github.com/agentic-research/wp2shopify/internal/ingest"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rugExport = "ID,post_parent,post_title,post_excerpt,post_status,regular_price,sale_price,images,meta:attribute_pa_sizes\n" +
	"10,,Rug,,publish,100,,a.jpg|b.jpg!alt : Back,\n" +
	"11,10,,,publish,,,,Small\n" +
	"12,10,,,publish,,,,Large\n"

func setupTestDeps(t *testing.T) *ToolDeps {
	t.Helper()
	return &ToolDeps{
		Loader:    ingest.NewEngine(ingest.DefaultOptions()),
		Converter: convert.NewConverter(nil),
	}
}

func makeCallToolRequest(args map[string]interface{}) mcp.CallToolRequest {
	var arguments interface{}
	if args != nil {
		arguments = map[string]any(args)
	}
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: arguments,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	textContent, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return textContent.Text
}

func TestHandleConvert(t *testing.T) {
	deps := setupTestDeps(t)

	result, err := deps.HandleConvert(context.Background(), makeCallToolRequest(map[string]interface{}{
		"csv": rugExport,
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	lines := strings.Split(strings.TrimSpace(resultText(t, result)), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "Handle,Title,Body (HTML),Published,"))
	assert.Contains(t, lines[1], "Large")
	assert.Contains(t, lines[2], "b.jpg")
	assert.Contains(t, lines[3], "Small")
}

func TestHandleConvert_JSONSource(t *testing.T) {
	deps := setupTestDeps(t)

	result, err := deps.HandleConvert(context.Background(), makeCallToolRequest(map[string]interface{}{
		"csv":    `[{"ID": 5, "post_title": "Mat", "post_status": "draft"}]`,
		"source": "json",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError, "a JSON export without post_parent has no structural column")
	assert.Contains(t, resultText(t, result), "post_parent")

	result, err = deps.HandleConvert(context.Background(), makeCallToolRequest(map[string]interface{}{
		"csv":    `[{"ID": 5, "post_parent": null, "post_title": "Mat", "post_status": "draft"}]`,
		"source": "json",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "5,Mat,,false")
}

func TestHandleConvert_EmptyCSV(t *testing.T) {
	deps := setupTestDeps(t)

	result, err := deps.HandleConvert(context.Background(), makeCallToolRequest(map[string]interface{}{
		"csv": "  ",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "csv parameter is required")
}

func TestHandleConvert_NoArguments(t *testing.T) {
	deps := setupTestDeps(t)

	result, err := deps.HandleConvert(context.Background(), makeCallToolRequest(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleConvert_MissingField(t *testing.T) {
	deps := setupTestDeps(t)

	result, err := deps.HandleConvert(context.Background(), makeCallToolRequest(map[string]interface{}{
		"csv": "ID,post_parent,post_status\n7,,publish\n",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), `missing field "post_title"`)
}

func TestHandleConvert_BadSource(t *testing.T) {
	deps := setupTestDeps(t)

	result, err := deps.HandleConvert(context.Background(), makeCallToolRequest(map[string]interface{}{
		"csv":    rugExport,
		"source": "sqlite",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleSummarize(t *testing.T) {
	deps := setupTestDeps(t)

	result, err := deps.HandleSummarize(context.Background(), makeCallToolRequest(map[string]interface{}{
		"csv": rugExport,
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "Total Unique Products: 1")
	assert.Contains(t, text, "Total Rows (incl. variants): 3")
	assert.Contains(t, text, "Average Rows per Product: 3.0")
	assert.Contains(t, text, "Rug")
}

func TestNewServer(t *testing.T) {
	srv := NewServer("test", setupTestDeps(t))
	require.NotNil(t, srv)
}
