package tools

import (
	"context"
	"fmt"

	"github.com/HendryAvila/stitch/internal/lifecycle"
	"github.com/HendryAvila/stitch/internal/stitch"
	"github.com/HendryAvila/stitch/internal/workspace"
	"github.com/mark3labs/mcp-go/mcp"
)

// FinishTool handles the stitch_finish MCP tool.
// It is the two-step finish: without `confirm`, a finish that touches more
// than one stitch only returns its preview.
type FinishTool struct {
	ws *workspace.Workspace
}

// NewFinishTool creates a FinishTool bound to a workspace.
func NewFinishTool(ws *workspace.Workspace) *FinishTool {
	return &FinishTool{ws: ws}
}

// Definition returns the MCP tool definition for registration.
func (t *FinishTool) Definition() mcp.Tool {
	return mcp.NewTool("stitch_finish",
		mcp.WithDescription(
			"Finish a stitch and cascade the status to every descendant, atomically. "+
				"If the stitch has no linked commits or has open descendants, it is auto-detected "+
				"as abandoned and `force` is needed to proceed. When more than one stitch would change, "+
				"the first call returns a preview; call again with `confirm: true` to apply it.",
		),
		mcp.WithString("id",
			mcp.Description("Stitch ID. Defaults to the current stitch."),
		),
		mcp.WithString("status",
			mcp.Description("Terminal status to apply: "+statusList()+". Defaults to the configured status."),
			mcp.Enum(string(stitch.StatusClosed), string(stitch.StatusSuperseded), string(stitch.StatusAbandoned)),
		),
		mcp.WithString("superseded_by",
			mcp.Description("ID of the stitch replacing this one. Requires status superseded."),
		),
		mcp.WithBoolean("force",
			mcp.Description("Proceed even though the work looks incomplete (default: false)."),
		),
		mcp.WithBoolean("confirm",
			mcp.Description("Apply a finish that changes more than one stitch (default: false)."),
		),
	)
}

// Handle processes the stitch_finish tool call.
func (t *FinishTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := t.ws.ResolveID(req.GetString("id", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	force := getBoolArg(req, "force", false)

	preview, err := t.ws.Engine.Prepare(ctx, id, lifecycle.Options{
		Status:       stitch.Status(req.GetString("status", "")),
		SupersededBy: req.GetString("superseded_by", ""),
		Force:        force,
	})
	if err != nil {
		return resultFor(err)
	}

	if preview.ForceRequired != "" {
		return mcp.NewToolResultError(renderPreview(preview) +
			"\nNothing was changed. Call again with `force: true` to finish as shown, " +
			"or with `status: \"abandoned\"` to abandon explicitly."), nil
	}
	if preview.RequiresConfirmation && !getBoolArg(req, "confirm", false) {
		return mcp.NewToolResultText(renderPreview(preview) + fmt.Sprintf(
			"\nNothing was changed yet. %d stitches will be updated; "+
				"call `stitch_finish` again with the same arguments and `confirm: true` to apply.",
			len(preview.Affected))), nil
	}

	res, err := t.ws.Engine.Execute(ctx, preview, lifecycle.ExecuteOptions{Force: force})
	if err != nil {
		return resultFor(err)
	}
	cleared := t.ws.AfterFinish(res)
	return mcp.NewToolResultText(renderResult(res, cleared)), nil
}
