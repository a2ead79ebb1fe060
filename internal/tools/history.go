package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/stitch/internal/journal"
	"github.com/HendryAvila/stitch/internal/workspace"
	"github.com/mark3labs/mcp-go/mcp"
)

// HistoryTool handles the stitch_history MCP tool.
type HistoryTool struct {
	ws *workspace.Workspace
}

// NewHistoryTool creates a HistoryTool bound to a workspace.
func NewHistoryTool(ws *workspace.Workspace) *HistoryTool {
	return &HistoryTool{ws: ws}
}

// Definition returns the MCP tool definition for registration.
func (t *HistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("stitch_history",
		mcp.WithDescription(
			"Show recorded finish operations, newest first. With `id`, only the history of that stitch.",
		),
		mcp.WithString("id",
			mcp.Description("Stitch ID. Omit for recent finishes across the project."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of entries (default: 20)."),
		),
	)
}

// Handle processes the stitch_history tool call.
func (t *HistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.ws.Journal == nil {
		return mcp.NewToolResultError("The finish journal is disabled (journal.enabled) or failed to open."), nil
	}
	id := req.GetString("id", "")
	limit := getIntArg(req, "limit", 20)

	var (
		entries []journal.Entry
		err     error
	)
	if id != "" {
		entries, err = t.ws.Journal.History(ctx, id, limit)
	} else {
		entries, err = t.ws.Journal.Recent(ctx, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("No finishes recorded."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Finish History (%d)\n\n", len(entries))
	b.WriteString("| When | Stitch | Change | Operation |\n")
	b.WriteString("|------|--------|--------|-----------|\n")
	for _, e := range entries {
		change := fmt.Sprintf("%s → %s", e.FromStatus, e.ToStatus)
		var flags []string
		if e.AutoDetected {
			flags = append(flags, "auto")
		}
		if e.Forced {
			flags = append(flags, "forced")
		}
		if len(flags) > 0 {
			change += " (" + strings.Join(flags, ", ") + ")"
		}
		fmt.Fprintf(&b, "| %s | `%s` %s | %s | `%s` |\n", e.FinishedAt, e.StitchID, e.Title, change, e.OperationID)
	}
	return mcp.NewToolResultText(b.String()), nil
}
