package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/sparelist/internal/form"
	"github.com/kalambet/sparelist/internal/worklist"
)

// NewMCPServer creates an MCP server exposing the form as tools and the
// worklist as a resource.
func NewMCPServer(f *form.Form, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"sparelist",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("sparelist: pick spare parts from the catalog and build a worklist for export."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("list_spares",
			mcp.WithDescription("List the spare types in the catalog, in catalog order."),
		),
		mcpListSpares(f),
	)

	s.AddTool(
		mcp.NewTool("get_options",
			mcp.WithDescription("Show the current selection, metadata and the values available at each level."),
		),
		mcpGetOptions(f),
	)

	s.AddTool(
		mcp.NewTool("select",
			mcp.WithDescription("Set one level of the selection. Levels below it are cleared."),
			mcp.WithString("field", mcp.Description("One of spare, size, rating, schedule"), mcp.Required()),
			mcp.WithString("value", mcp.Description("Value to select"), mcp.Required()),
		),
		mcpSelect(f),
	)

	s.AddTool(
		mcp.NewTool("add_item",
			mcp.WithDescription("Append the current selection to the worklist under an asset tag."),
			mcp.WithString("asset_tag", mcp.Description("Asset tag of the equipment"), mcp.Required()),
			mcp.WithString("quantity", mcp.Description("Quantity (default 0)")),
			mcp.WithString("position", mcp.Description("Position (default 0)")),
		),
		mcpAddItem(f),
	)

	s.AddTool(
		mcp.NewTool("list_items",
			mcp.WithDescription("List the worklist entries in order."),
		),
		mcpListItems(f),
	)

	s.AddTool(
		mcp.NewTool("delete_item",
			mcp.WithDescription("Delete the worklist entry at a 0-based index."),
			mcp.WithNumber("index", mcp.Description("0-based entry index"), mcp.Required()),
		),
		mcpDeleteItem(f),
	)

	s.AddTool(
		mcp.NewTool("reset_items",
			mcp.WithDescription("Remove every worklist entry."),
		),
		mcpResetItems(f),
	)

	s.AddResource(
		mcp.NewResource(
			"worklist://items",
			"Worklist",
			mcp.WithResourceDescription("Current worklist entries as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceItems(f),
	)

	return s
}

func mcpListSpares(f *form.Form) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcpJSON(nonNil(f.Catalog().Spares())), nil
	}
}

func mcpGetOptions(f *form.Form) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcpJSON(f.Snapshot()), nil
	}
}

func mcpSelect(f *form.Form) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		field, err := req.RequireString("field")
		if err != nil {
			return mcpError("field is required"), nil
		}
		value, err := req.RequireString("value")
		if err != nil {
			return mcpError("value is required"), nil
		}

		snap, err := f.Select(field, value)
		if err != nil {
			return mcpError(err.Error()), nil
		}
		return mcpJSON(snap), nil
	}
}

func mcpAddItem(f *form.Form) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tag, err := req.RequireString("asset_tag")
		if err != nil || tag == "" {
			return mcpError(worklist.ErrMissingAssetTag.Error()), nil
		}

		f.SetMeta(worklist.Meta{
			AssetTag: tag,
			Quantity: req.GetString("quantity", ""),
			Position: req.GetString("position", ""),
		})
		e, err := f.Add(ctx)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to add item: %v", err)), nil
		}
		return mcpJSON(e), nil
	}
}

func mcpListItems(f *form.Form) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcpJSON(nonNil(f.Items())), nil
	}
}

func mcpDeleteItem(f *form.Form) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		index, err := req.RequireInt("index")
		if err != nil {
			return mcpError("index is required"), nil
		}

		deleted, err := f.Delete(ctx, index)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to delete item: %v", err)), nil
		}
		if !deleted {
			return mcpText(fmt.Sprintf("No item at index %d", index)), nil
		}
		return mcpText(fmt.Sprintf("Deleted item %d", index)), nil
	}
}

func mcpResetItems(f *form.Form) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := f.ResetAll(ctx); err != nil {
			return mcpError(fmt.Sprintf("failed to reset worklist: %v", err)), nil
		}
		return mcpText("Worklist cleared"), nil
	}
}

func mcpResourceItems(f *form.Form) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(nonNil(f.Items()))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal worklist: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpJSON(v any) *mcp.CallToolResult {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err))
	}
	return mcpText(string(b))
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
