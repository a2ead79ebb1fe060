package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/stitch/internal/stitch"
	"github.com/HendryAvila/stitch/internal/workspace"
	"github.com/mark3labs/mcp-go/mcp"
)

// ListTool handles the stitch_list MCP tool.
type ListTool struct {
	ws *workspace.Workspace
}

// NewListTool creates a ListTool bound to a workspace.
func NewListTool(ws *workspace.Workspace) *ListTool {
	return &ListTool{ws: ws}
}

// Definition returns the MCP tool definition for registration.
func (t *ListTool) Definition() mcp.Tool {
	return mcp.NewTool("stitch_list",
		mcp.WithDescription("List stitches, oldest first, optionally filtered by status or parent."),
		mcp.WithString("status",
			mcp.Description("Only list stitches with this status."),
			mcp.Enum(
				string(stitch.StatusOpen),
				string(stitch.StatusClosed),
				string(stitch.StatusSuperseded),
				string(stitch.StatusAbandoned),
			),
		),
		mcp.WithString("parent",
			mcp.Description("Only list direct children of this stitch."),
		),
	)
}

// Handle processes the stitch_list tool call.
func (t *ListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := stitch.Filter{
		Status: stitch.Status(req.GetString("status", "")),
		Parent: req.GetString("parent", ""),
	}
	if filter.Status != "" {
		if err := stitch.ValidateStatus(filter.Status); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	list, err := t.ws.Store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing stitches: %w", err)
	}
	if len(list) == 0 {
		return mcp.NewToolResultText("No stitches found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Stitches (%d)\n\n", len(list))
	for i := range list {
		writeStitchLine(&b, &list[i])
	}
	return mcp.NewToolResultText(b.String()), nil
}
