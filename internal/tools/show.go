package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/stitch/internal/current"
	"github.com/HendryAvila/stitch/internal/workspace"
	"github.com/mark3labs/mcp-go/mcp"
)

// ShowTool handles the stitch_show MCP tool.
type ShowTool struct {
	ws *workspace.Workspace
}

// NewShowTool creates a ShowTool bound to a workspace.
func NewShowTool(ws *workspace.Workspace) *ShowTool {
	return &ShowTool{ws: ws}
}

// Definition returns the MCP tool definition for registration.
func (t *ShowTool) Definition() mcp.Tool {
	return mcp.NewTool("stitch_show",
		mcp.WithDescription(
			"Show a stitch with its relations, linked commits, body, and direct children. "+
				"If `id` is omitted, shows the current stitch.",
		),
		mcp.WithString("id",
			mcp.Description("Stitch ID. Defaults to the current stitch."),
		),
	)
}

// Handle processes the stitch_show tool call.
func (t *ShowTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := t.ws.ResolveID(req.GetString("id", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	d, err := t.ws.Show(ctx, id)
	if err != nil {
		return resultFor(err)
	}
	s := d.Stitch
	cur, _ := current.Get(t.ws.Root)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", s.Title)
	fmt.Fprintf(&b, "**ID:** `%s`", s.ID)
	if s.ID == cur {
		b.WriteString(" (current)")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "**Status:** %s\n", s.Status)
	fmt.Fprintf(&b, "**Created:** %s\n", s.CreatedAt)
	fmt.Fprintf(&b, "**Updated:** %s\n", s.UpdatedAt)
	if s.Relations.Parent != "" {
		fmt.Fprintf(&b, "**Parent:** `%s`\n", s.Relations.Parent)
	}
	if len(s.Relations.DependsOn) > 0 {
		fmt.Fprintf(&b, "**Depends on:** %s\n", strings.Join(s.Relations.DependsOn, ", "))
	}
	if len(s.Tags) > 0 {
		fmt.Fprintf(&b, "**Tags:** %s\n", strings.Join(s.Tags, ", "))
	}

	b.WriteString("\n## Linked commits\n\n")
	if len(s.Git.Links) == 0 {
		b.WriteString("None yet.\n")
	}
	for _, l := range s.Git.Links {
		fmt.Fprintf(&b, "- `%s`\n", l)
	}

	if len(d.Children) > 0 || len(d.Missing) > 0 {
		fmt.Fprintf(&b, "\n## Children (%d)\n\n", len(d.Children))
		for _, c := range d.Children {
			writeStitchLine(&b, c)
		}
		for _, m := range d.Missing {
			fmt.Fprintf(&b, "- `%s` (missing document)\n", m)
		}
	}

	if body := strings.TrimSpace(s.Body); body != "" {
		fmt.Fprintf(&b, "\n## Notes\n\n%s\n", body)
	}
	return mcp.NewToolResultText(b.String()), nil
}
