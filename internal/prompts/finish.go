// Package prompts implements MCP prompt handlers for stitch.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// FinishPrompt handles the stitch-finish MCP prompt.
// It walks the AI through preview, confirmation, and finish.
type FinishPrompt struct{}

// NewFinishPrompt creates a FinishPrompt.
func NewFinishPrompt() *FinishPrompt {
	return &FinishPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *FinishPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("stitch-finish",
		mcp.WithPromptDescription(
			"Finish a stitch safely: review what will change, "+
				"link any missing commits, and apply the finish once you agree.",
		),
		mcp.WithArgument("id",
			mcp.ArgumentDescription("Stitch to finish. Defaults to the current stitch."),
		),
		mcp.WithArgument("status",
			mcp.ArgumentDescription("closed, superseded, or abandoned. Default: closed"),
		),
	)
}

// Handle processes the stitch-finish prompt request.
func (p *FinishPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	target := "the current stitch"
	status := "closed"
	if args := req.Params.Arguments; args != nil {
		if id := args["id"]; id != "" {
			target = fmt.Sprintf("stitch `%s`", id)
		}
		if s := args["status"]; s != "" {
			status = s
		}
	}

	return &mcp.GetPromptResult{
		Description: "Finish a stitch",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I want to finish %s as **%s**.\n\n"+
						"Please:\n"+
						"1. Run `stitch_show` on it and tell me which commits are linked\n"+
						"2. If commits that belong to this work are missing, suggest `stitch_link` calls and wait for my go-ahead\n"+
						"3. Call `stitch_finish` without `force` or `confirm` to get the preview\n"+
						"4. Show me the affected stitches and any warnings. If force is required, explain why and ask me before passing `force: true`\n"+
						"5. Only after I agree, call `stitch_finish` again with `confirm: true`\n"+
						"6. Summarize what changed",
					target, status,
				)),
			},
		},
	}, nil
}
