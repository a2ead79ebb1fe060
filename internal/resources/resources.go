// Package resources implements MCP resource handlers for a stitch project.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (stitch://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/stitch/internal/current"
	"github.com/HendryAvila/stitch/internal/workspace"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	CurrentURI = "stitch://current"
	IndexURI   = "stitch://index"
)

// Handler manages stitch resource endpoints.
type Handler struct {
	ws *workspace.Workspace
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(ws *workspace.Workspace) *Handler {
	return &Handler{ws: ws}
}

// CurrentResource returns the MCP resource definition for the current stitch.
func (h *Handler) CurrentResource() mcp.Resource {
	return mcp.NewResource(
		CurrentURI,
		"Current Stitch",
		mcp.WithResourceDescription("The stitch currently being worked on, as JSON (null when none is set)"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleCurrent returns the current stitch as JSON.
func (h *Handler) HandleCurrent(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	id, err := current.Get(h.ws.Root)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	if id == "" {
		return jsonResource(req.Params.URI, nil)
	}
	s, err := h.ws.Store.Load(id)
	if err != nil {
		return errorResource(req.Params.URI, fmt.Sprintf("current stitch %s: %v", id, err)), nil
	}
	return jsonResource(req.Params.URI, s)
}

// IndexResource returns the MCP resource definition for the parent-child index.
func (h *Handler) IndexResource() mcp.Resource {
	return mcp.NewResource(
		IndexURI,
		"Stitch Index",
		mcp.WithResourceDescription("Parent to children map of every stitch, as JSON"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleIndex returns the parent-child index as JSON, rebuilding it first
// if it is missing or stale.
func (h *Handler) HandleIndex(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	ix, err := h.ws.Index.Load(ctx)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	return jsonResource(req.Params.URI, ix)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
