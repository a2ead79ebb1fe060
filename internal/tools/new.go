package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/stitch/internal/workspace"
	"github.com/mark3labs/mcp-go/mcp"
)

// NewStitchTool handles the stitch_new MCP tool.
type NewStitchTool struct {
	ws *workspace.Workspace
}

// NewNewStitchTool creates a NewStitchTool bound to a workspace.
func NewNewStitchTool(ws *workspace.Workspace) *NewStitchTool {
	return &NewStitchTool{ws: ws}
}

// Definition returns the MCP tool definition for registration.
func (t *NewStitchTool) Definition() mcp.Tool {
	return mcp.NewTool("stitch_new",
		mcp.WithDescription(
			"Record a new stitch: a short statement of intent that commits will later be linked to. "+
				"Use `parent` to nest it under a larger piece of work.",
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("One-line statement of what this work intends to do."),
		),
		mcp.WithString("parent",
			mcp.Description("ID of the stitch this one belongs to."),
		),
		mcp.WithString("depends_on",
			mcp.Description("Comma-separated IDs of stitches this one depends on."),
		),
		mcp.WithString("tags",
			mcp.Description("Comma-separated free-form labels."),
		),
		mcp.WithString("body",
			mcp.Description("Markdown notes: context, approach, open questions."),
		),
		mcp.WithBoolean("set_current",
			mcp.Description("If true, make the new stitch the current one (default: false)."),
		),
	)
}

// Handle processes the stitch_new tool call.
func (t *NewStitchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	if strings.TrimSpace(title) == "" {
		return mcp.NewToolResultError("'title' is required"), nil
	}

	s, err := t.ws.Create(ctx, workspace.NewParams{
		Title:      title,
		Parent:     req.GetString("parent", ""),
		DependsOn:  splitList(req.GetString("depends_on", "")),
		Tags:       splitList(req.GetString("tags", "")),
		Body:       req.GetString("body", ""),
		SetCurrent: getBoolArg(req, "set_current", false),
	})
	if err != nil {
		return resultFor(err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Stitch Created\n\n")
	fmt.Fprintf(&b, "**ID:** `%s`\n", s.ID)
	fmt.Fprintf(&b, "**Title:** %s\n", s.Title)
	fmt.Fprintf(&b, "**Status:** %s\n", s.Status)
	if s.Relations.Parent != "" {
		fmt.Fprintf(&b, "**Parent:** `%s`\n", s.Relations.Parent)
	}
	if getBoolArg(req, "set_current", false) {
		b.WriteString("\nThis is now the current stitch.\n")
	}
	b.WriteString("\nLink commits with `stitch_link` as work lands, then close it with `stitch_finish`.")
	return mcp.NewToolResultText(b.String()), nil
}
