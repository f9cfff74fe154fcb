package mcptool

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentic-research/wp2shopify/internal/convert"
	"github.com/agentic-research/wp2shopify/internal/ingest"
	"github.com/agentic-research/wp2shopify/internal/shopify"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Tool names.
const (
	ToolConvert   = "convert_products"
	ToolSummarize = "summarize_products"
)

// ToolDeps holds what the tool handlers need.
type ToolDeps struct {
	Loader    *ingest.Engine
	Converter *convert.Converter
	Logger    *zap.Logger
}

// NewServer builds an MCP server exposing the conversion tools.
func NewServer(version string, deps *ToolDeps) *mcpserver.MCPServer {
	srv := mcpserver.NewMCPServer(
		"wp2shopify",
		version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
	)

	convertTool := mcp.NewTool(ToolConvert,
		mcp.WithDescription("Convert a WordPress/WooCommerce product export into a Shopify product import CSV. Returns the CSV text."),
		mcp.WithString("csv", mcp.Description("The export as text (CSV, or JSON when source is json)"), mcp.Required()),
		mcp.WithString("source", mcp.Description("Encoding of the export: csv (default) or json")),
	)
	summarizeTool := mcp.NewTool(ToolSummarize,
		mcp.WithDescription("Convert a WordPress/WooCommerce product export and report product, variant and image counts per product"),
		mcp.WithString("csv", mcp.Description("The export as text (CSV, or JSON when source is json)"), mcp.Required()),
		mcp.WithString("source", mcp.Description("Encoding of the export: csv (default) or json")),
	)

	srv.AddTool(convertTool, deps.HandleConvert)
	srv.AddTool(summarizeTool, deps.HandleSummarize)
	return srv
}

// ServeStdio runs the MCP server over stdin/stdout until the client disconnects.
func ServeStdio(version string, deps *ToolDeps) error {
	return mcpserver.ServeStdio(NewServer(version, deps))
}

// HandleConvert returns the Shopify CSV for the given export.
func (d *ToolDeps) HandleConvert(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, errResult := d.convert(ctx, request)
	if errResult != nil {
		return errResult, nil
	}

	var sb strings.Builder
	if err := shopify.WriteCSV(&sb, rows); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// HandleSummarize returns the conversion statistics with a per-product breakdown.
func (d *ToolDeps) HandleSummarize(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, errResult := d.convert(ctx, request)
	if errResult != nil {
		return errResult, nil
	}

	var sb strings.Builder
	if err := shopify.Summarize(rows).WriteText(&sb, true); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("summary failed: %v", err)), nil
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (d *ToolDeps) convert(ctx context.Context, request mcp.CallToolRequest) ([]shopify.Row, *mcp.CallToolResult) {
	text := request.GetString("csv", "")
	if strings.TrimSpace(text) == "" {
		return nil, mcp.NewToolResultError("csv parameter is required")
	}

	kind, err := ingest.ParseKind(request.GetString("source", ""))
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}

	table, err := d.Loader.Read(strings.NewReader(text), kind)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("read failed: %v", err))
	}

	rows, err := d.Converter.Convert(ctx, table)
	if err != nil {
		d.log().Warn("mcp conversion failed", zap.String("tool", request.Params.Name), zap.Error(err))
		return nil, mcp.NewToolResultError(fmt.Sprintf("conversion failed: %v", err))
	}
	d.log().Info("mcp conversion",
		zap.String("tool", request.Params.Name),
		zap.Int("records", table.Len()),
		zap.Int("rows", len(rows)))
	return rows, nil
}

func (d *ToolDeps) log() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}
