package api

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kalambet/sparelist/internal/form"
	"github.com/kalambet/sparelist/internal/worklist"
)

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func callTool(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	result, err := h(context.Background(), makeCallToolRequest(name, args))
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", name, err)
	}
	return result
}

func TestMCPTool_ListSpares(t *testing.T) {
	f := newTestForm(t)
	result := callTool(t, mcpListSpares(f), "list_spares", nil)

	var spares []string
	if err := json.Unmarshal([]byte(toolText(t, result)), &spares); err != nil {
		t.Fatal(err)
	}
	if len(spares) != 2 || spares[0] != "VALVE" {
		t.Errorf("spares = %v", spares)
	}
}

func TestMCPTool_SelectAndOptions(t *testing.T) {
	f := newTestForm(t)

	result := callTool(t, mcpSelect(f), "select", map[string]interface{}{"field": "spare", "value": "VALVE"})
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}
	callTool(t, mcpSelect(f), "select", map[string]interface{}{"field": "size", "value": "2in"})

	result = callTool(t, mcpGetOptions(f), "get_options", nil)
	var snap form.Snapshot
	if err := json.Unmarshal([]byte(toolText(t, result)), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Selection.Size != "2in" || len(snap.Options.Ratings) != 2 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestMCPTool_SelectErrors(t *testing.T) {
	f := newTestForm(t)

	result := callTool(t, mcpSelect(f), "select", map[string]interface{}{"value": "x"})
	if !result.IsError {
		t.Error("missing field accepted")
	}
	result = callTool(t, mcpSelect(f), "select", map[string]interface{}{"field": "colour", "value": "x"})
	if !result.IsError || !strings.Contains(toolText(t, result), "unknown selection field") {
		t.Errorf("unknown field result = %s", toolText(t, result))
	}
}

func TestMCPTool_AddListDeleteReset(t *testing.T) {
	f := newTestForm(t)

	callTool(t, mcpSelect(f), "select", map[string]interface{}{"field": "spare", "value": "PIPE"})
	callTool(t, mcpSelect(f), "select", map[string]interface{}{"field": "size", "value": "2in"})
	result := callTool(t, mcpAddItem(f), "add_item", map[string]interface{}{
		"asset_tag": "A1",
		"quantity":  "4",
	})
	if result.IsError {
		t.Fatalf("add_item: %s", toolText(t, result))
	}
	var e worklist.Entry
	if err := json.Unmarshal([]byte(toolText(t, result)), &e); err != nil {
		t.Fatal(err)
	}
	if e.AssetTag != "A1" || e.Quantity != "4" || e.Position != "0" || e.Spare != "PIPE" {
		t.Errorf("entry = %+v", e)
	}

	result = callTool(t, mcpListItems(f), "list_items", nil)
	var items []worklist.Entry
	if err := json.Unmarshal([]byte(toolText(t, result)), &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %v", items)
	}

	result = callTool(t, mcpDeleteItem(f), "delete_item", map[string]interface{}{"index": float64(3)})
	if result.IsError || !strings.Contains(toolText(t, result), "No item") {
		t.Errorf("out of range delete = %s", toolText(t, result))
	}
	result = callTool(t, mcpDeleteItem(f), "delete_item", map[string]interface{}{"index": float64(0)})
	if result.IsError || len(f.Items()) != 0 {
		t.Errorf("delete = %s, items = %d", toolText(t, result), len(f.Items()))
	}

	callTool(t, mcpAddItem(f), "add_item", map[string]interface{}{"asset_tag": "A2"})
	result = callTool(t, mcpResetItems(f), "reset_items", nil)
	if result.IsError || len(f.Items()) != 0 {
		t.Errorf("reset = %s, items = %d", toolText(t, result), len(f.Items()))
	}
}

func TestMCPTool_AddItemRequiresAssetTag(t *testing.T) {
	f := newTestForm(t)
	result := callTool(t, mcpAddItem(f), "add_item", map[string]interface{}{"asset_tag": ""})
	if !result.IsError {
		t.Error("empty asset tag accepted")
	}
	if len(f.Items()) != 0 {
		t.Error("worklist changed")
	}
}

func TestMCPResource_Items(t *testing.T) {
	f := newTestForm(t)
	callTool(t, mcpAddItem(f), "add_item", map[string]interface{}{"asset_tag": "A1"})

	req := mcp.ReadResourceRequest{Params: mcp.ReadResourceParams{URI: "worklist://items"}}
	contents, err := mcpResourceItems(f)(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %d", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}
	if tc.MIMEType != "application/json" || !strings.Contains(tc.Text, `"assetTag":"A1"`) {
		t.Errorf("resource = %+v", tc)
	}
}

func TestNewMCPServer_Builds(t *testing.T) {
	if s := NewMCPServer(newTestForm(t), "test"); s == nil {
		t.Fatal("nil server")
	}
}
