package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/stitch/internal/workspace"
	"github.com/mark3labs/mcp-go/mcp"
)

// IndexRebuildTool handles the stitch_index_rebuild MCP tool.
type IndexRebuildTool struct {
	ws *workspace.Workspace
}

// NewIndexRebuildTool creates an IndexRebuildTool bound to a workspace.
func NewIndexRebuildTool(ws *workspace.Workspace) *IndexRebuildTool {
	return &IndexRebuildTool{ws: ws}
}

// Definition returns the MCP tool definition for registration.
func (t *IndexRebuildTool) Definition() mcp.Tool {
	return mcp.NewTool("stitch_index_rebuild",
		mcp.WithDescription(
			"Rebuild the parent-child index from the stitch documents. "+
				"Use after editing stitch files by hand or when children look wrong.",
		),
	)
}

// Handle processes the stitch_index_rebuild tool call.
func (t *IndexRebuildTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := t.ws.Index.Rebuild(ctx)
	if err != nil {
		return nil, fmt.Errorf("rebuilding index: %w", err)
	}

	edges := 0
	for _, kids := range res.Index.Children {
		edges += len(kids)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Index Rebuilt\n\n")
	fmt.Fprintf(&b, "**Parents:** %d\n**Children:** %d\n", len(res.Index.Children), edges)
	if len(res.Dangling) > 0 {
		fmt.Fprintf(&b, "\n## Dangling parents (%d)\n\n", len(res.Dangling))
		b.WriteString("These IDs are referenced as parents but have no document:\n\n")
		for _, id := range res.Dangling {
			fmt.Fprintf(&b, "- `%s`\n", id)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}
