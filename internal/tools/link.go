package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/stitch/internal/workspace"
	"github.com/mark3labs/mcp-go/mcp"
)

// LinkTool handles the stitch_link MCP tool.
type LinkTool struct {
	ws *workspace.Workspace
}

// NewLinkTool creates a LinkTool bound to a workspace.
func NewLinkTool(ws *workspace.Workspace) *LinkTool {
	return &LinkTool{ws: ws}
}

// Definition returns the MCP tool definition for registration.
func (t *LinkTool) Definition() mcp.Tool {
	return mcp.NewTool("stitch_link",
		mcp.WithDescription(
			"Link commits to a stitch. Each reference is a commit-ish (SHA, HEAD~2, tag) "+
				"or an `a..b` range, verified with git and stored as full SHAs. "+
				"A stitch without linked commits is treated as abandoned when finished.",
		),
		mcp.WithString("refs",
			mcp.Required(),
			mcp.Description("Comma-separated commit references or ranges."),
		),
		mcp.WithString("id",
			mcp.Description("Stitch ID. Defaults to the current stitch."),
		),
		mcp.WithBoolean("verify",
			mcp.Description("Resolve references with git before storing them (default: true)."),
		),
	)
}

// Handle processes the stitch_link tool call.
func (t *LinkTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	refs := splitList(req.GetString("refs", ""))
	if len(refs) == 0 {
		return mcp.NewToolResultError("'refs' is required: give at least one commit or range"), nil
	}
	id, err := t.ws.ResolveID(req.GetString("id", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := t.ws.Link(ctx, id, refs, getBoolArg(req, "verify", true))
	if err != nil {
		return resultFor(err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Linked `%s`\n\n", res.Stitch.ID)
	if len(res.Added) == 0 {
		b.WriteString("All references were already linked; nothing changed.\n")
	}
	for _, ref := range res.Added {
		fmt.Fprintf(&b, "- added `%s`\n", ref)
	}
	for _, ref := range res.Existing {
		fmt.Fprintf(&b, "- already linked `%s`\n", ref)
	}
	fmt.Fprintf(&b, "\n%d commit reference(s) linked in total.", len(res.Stitch.Git.Links))
	return mcp.NewToolResultText(b.String()), nil
}
