// Package tools implements the stitch MCP tool handlers.
//
// Each tool is a struct holding its dependencies, with a Definition for
// registration and a Handle compatible with mcp-go's CallToolRequest
// signature. Bad input and domain refusals come back as tool-result errors
// the model can read and correct; only infrastructure failures are Go
// errors.
package tools

import (
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/stitch/internal/lifecycle"
	"github.com/HendryAvila/stitch/internal/stitch"
	"github.com/HendryAvila/stitch/internal/workspace"
	"github.com/mark3labs/mcp-go/mcp"
)

// getIntArg extracts an integer argument from the request.
// MCP sends numbers as float64 in JSON.
func getIntArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// getBoolArg extracts a boolean argument from the request.
func getBoolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// splitList splits a comma or whitespace separated argument.
func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t'
	})
}

// domainErrors are failures caused by the request rather than the system.
var domainErrors = []error{
	lifecycle.ErrNotFound,
	lifecycle.ErrInvalidReference,
	lifecycle.ErrInvalidStatus,
	lifecycle.ErrForceRequired,
	stitch.ErrNotFound,
	workspace.ErrNotInitialized,
}

// resultFor turns err into a tool-result error when the caller can fix it,
// and passes infrastructure errors through.
func resultFor(err error) (*mcp.CallToolResult, error) {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	return nil, err
}

// statusList renders the valid terminal statuses for descriptions.
func statusList() string {
	return strings.Join([]string{
		string(stitch.StatusClosed),
		string(stitch.StatusSuperseded),
		string(stitch.StatusAbandoned),
	}, ", ")
}

// writeStitchLine renders one stitch as a markdown list item.
func writeStitchLine(b *strings.Builder, s *stitch.Stitch) {
	fmt.Fprintf(b, "- `%s` **%s** (%s)\n", s.ID, s.Title, s.Status)
}

// renderPreview formats a finish preview as markdown.
func renderPreview(p *lifecycle.Preview) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Finish Preview\n\n")
	fmt.Fprintf(&b, "**Target:** `%s` %s (%s)\n", p.Target.ID, p.Target.Title, p.Target.Status)
	requested := string(p.RequestedStatus)
	if requested == "" {
		requested = "default"
	}
	fmt.Fprintf(&b, "**Requested:** %s\n", requested)
	fmt.Fprintf(&b, "**Final status:** %s", p.FinalStatus)
	if p.AutoDetected {
		b.WriteString(" (auto-detected)")
	}
	b.WriteString("\n")
	if p.SupersededBy != "" {
		fmt.Fprintf(&b, "**Superseded by:** `%s`\n", p.SupersededBy)
	}

	fmt.Fprintf(&b, "\n## Affected (%d)\n\n", len(p.Affected))
	for _, s := range p.Affected {
		fmt.Fprintf(&b, "- `%s` %s: %s → %s\n", s.ID, s.Title, s.Status, p.FinalStatus)
	}

	if len(p.Warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, w := range p.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	if p.ForceRequired != "" {
		fmt.Fprintf(&b, "\n**Force required:** %s\n", p.ForceRequired)
	}
	return b.String()
}

// renderResult formats a finish result as markdown.
func renderResult(res *lifecycle.Result, clearedCurrent string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Finished `%s`\n\n", res.TargetID)
	fmt.Fprintf(&b, "**Status:** %s\n", res.FinalStatus)
	if res.AutoDetected {
		b.WriteString("**Auto-detected:** yes\n")
	}
	if res.Forced {
		b.WriteString("**Forced:** yes\n")
	}
	if res.SupersededBy != "" {
		fmt.Fprintf(&b, "**Superseded by:** `%s`\n", res.SupersededBy)
	}
	fmt.Fprintf(&b, "**Operation:** `%s`\n\n", res.OperationID)

	fmt.Fprintf(&b, "## Updated (%d)\n\n", len(res.Finished))
	for _, f := range res.Finished {
		fmt.Fprintf(&b, "- `%s` %s: %s → %s\n", f.ID, f.Title, f.PreviousStatus, f.NewStatus)
	}
	if len(res.Warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, w := range res.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	if clearedCurrent != "" {
		fmt.Fprintf(&b, "\nCurrent stitch `%s` was finished and has been cleared.\n", clearedCurrent)
	}
	return b.String()
}
