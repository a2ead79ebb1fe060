// Package server wires the stitch MCP components and creates the server
// instance.
//
// This is the composition root for the MCP surface: it takes an opened
// workspace and injects it into the tools, prompts and resources. No
// business logic lives here, only wiring.
package server

import (
	"github.com/HendryAvila/stitch/internal/prompts"
	"github.com/HendryAvila/stitch/internal/resources"
	"github.com/HendryAvila/stitch/internal/tools"
	"github.com/HendryAvila/stitch/internal/workspace"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates the MCP server with every tool, prompt, and resource
// registered against ws. The caller owns ws and closes it on shutdown.
func New(ws *workspace.Workspace) *server.MCPServer {
	s := server.NewMCPServer(
		"stitch",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register tools ---

	newTool := tools.NewNewStitchTool(ws)
	s.AddTool(newTool.Definition(), newTool.Handle)

	showTool := tools.NewShowTool(ws)
	s.AddTool(showTool.Definition(), showTool.Handle)

	listTool := tools.NewListTool(ws)
	s.AddTool(listTool.Definition(), listTool.Handle)

	linkTool := tools.NewLinkTool(ws)
	s.AddTool(linkTool.Definition(), linkTool.Handle)

	finishTool := tools.NewFinishTool(ws)
	s.AddTool(finishTool.Definition(), finishTool.Handle)

	// History reads the journal; the tool itself reports when the journal
	// is disabled, so it is registered unconditionally.
	historyTool := tools.NewHistoryTool(ws)
	s.AddTool(historyTool.Definition(), historyTool.Handle)

	rebuildTool := tools.NewIndexRebuildTool(ws)
	s.AddTool(rebuildTool.Definition(), rebuildTool.Handle)

	// --- Register prompts ---

	finishPrompt := prompts.NewFinishPrompt()
	s.AddPrompt(finishPrompt.Definition(), finishPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(ws)
	s.AddResource(resourceHandler.CurrentResource(), resourceHandler.HandleCurrent)
	s.AddResource(resourceHandler.IndexResource(), resourceHandler.HandleIndex)

	return s
}

// Serve runs s over stdio until the client disconnects.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// serverInstructions returns the system instructions that tell the AI
// how to use stitch.
func serverInstructions() string {
	return `You have access to stitch, which records the intent behind code changes.

A stitch is a short statement of intent ("add retry to the upload client")
with linked commits. Stitches nest: a parent stitch groups the smaller pieces
of work that make it up.

## Workflow

1. Before starting a piece of work, call stitch_new with a one-line title.
   Use parent to nest it, set_current to make it the working stitch.
2. After committing, call stitch_link with the commit (or a..b range).
3. When the work is done, call stitch_finish.

## Finishing

- stitch_finish applies one terminal status (closed, superseded, abandoned)
  to the stitch AND every descendant, all or nothing.
- A stitch with no linked commits, or with open descendants, is treated as
  abandoned. The tool then refuses and explains why; only pass force: true
  after the user agrees.
- When more than one stitch would change, the first call returns a preview.
  Show it to the user and call again with confirm: true only after they agree.
- Use status superseded with superseded_by when a newer stitch replaces one.

Never edit files under .stitch/ directly; use the tools.`
}
