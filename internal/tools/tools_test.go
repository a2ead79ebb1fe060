package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/HendryAvila/stitch/internal/current"
	"github.com/HendryAvila/stitch/internal/stitch"
	"github.com/HendryAvila/stitch/internal/workspace"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- Test helpers ---

// setupWorkspace initializes a stitch project in a temp dir.
func setupWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()
	ws, err := workspace.Init(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("setup: init workspace: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

// mustCreate adds a stitch, optionally linked, under parent.
func mustCreate(t *testing.T, ws *workspace.Workspace, title, parent string, links ...string) *stitch.Stitch {
	t.Helper()
	s, err := ws.Create(context.Background(), workspace.NewParams{Title: title, Parent: parent})
	if err != nil {
		t.Fatalf("setup: create %q: %v", title, err)
	}
	if len(links) > 0 {
		if _, err := ws.Link(context.Background(), s.ID, links, false); err != nil {
			t.Fatalf("setup: link %q: %v", title, err)
		}
	}
	return s
}

func call(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// isErrorResult checks if the result is a tool error.
func isErrorResult(result *mcp.CallToolResult) bool {
	return result != nil && result.IsError
}

// getResultText extracts the text content from a CallToolResult.
func getResultText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func statusOf(t *testing.T, ws *workspace.Workspace, id string) stitch.Status {
	t.Helper()
	s, err := ws.Store.Load(id)
	if err != nil {
		t.Fatalf("load %s: %v", id, err)
	}
	return s.Status
}

// --- Definitions ---

func TestDefinitions_Names(t *testing.T) {
	ws := setupWorkspace(t)
	want := map[string]mcp.Tool{
		"stitch_new":           NewNewStitchTool(ws).Definition(),
		"stitch_show":          NewShowTool(ws).Definition(),
		"stitch_list":          NewListTool(ws).Definition(),
		"stitch_link":          NewLinkTool(ws).Definition(),
		"stitch_finish":        NewFinishTool(ws).Definition(),
		"stitch_history":       NewHistoryTool(ws).Definition(),
		"stitch_index_rebuild": NewIndexRebuildTool(ws).Definition(),
	}
	for name, def := range want {
		if def.Name != name {
			t.Errorf("name = %q, want %q", def.Name, name)
		}
	}
}

// --- stitch_new ---

func TestNewStitchTool_Handle(t *testing.T) {
	ws := setupWorkspace(t)
	parent := mustCreate(t, ws, "epic", "")
	tool := NewNewStitchTool(ws)

	result, err := tool.Handle(context.Background(), call(map[string]interface{}{
		"title":       "add retries",
		"parent":      parent.ID,
		"tags":        "net, reliability",
		"set_current": true,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}
	text := getResultText(result)
	if !strings.Contains(text, "Stitch Created") || !strings.Contains(text, parent.ID) {
		t.Errorf("unexpected text: %s", text)
	}

	cur, _ := current.Get(ws.Root)
	s, err := ws.Store.Load(cur)
	if err != nil {
		t.Fatalf("current stitch not loadable: %v", err)
	}
	if s.Title != "add retries" || len(s.Tags) != 2 {
		t.Errorf("stitch = %+v", s)
	}
}

func TestNewStitchTool_Handle_Errors(t *testing.T) {
	ws := setupWorkspace(t)
	tool := NewNewStitchTool(ws)

	for name, args := range map[string]map[string]interface{}{
		"missing title":  {},
		"missing parent": {"title": "x", "parent": "ghost"},
	} {
		t.Run(name, func(t *testing.T) {
			result, err := tool.Handle(context.Background(), call(args))
			if err != nil {
				t.Fatalf("Handle returned Go error: %v", err)
			}
			if !isErrorResult(result) {
				t.Errorf("expected tool error, got: %s", getResultText(result))
			}
		})
	}
}

// --- stitch_show / stitch_list ---

func TestShowTool_Handle(t *testing.T) {
	ws := setupWorkspace(t)
	p := mustCreate(t, ws, "parent work", "", "abc123")
	c := mustCreate(t, ws, "child work", p.ID)
	if err := current.Set(ws.Root, p.ID); err != nil {
		t.Fatal(err)
	}

	result, err := NewShowTool(ws).Handle(context.Background(), call(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	text := getResultText(result)
	for _, want := range []string{"parent work", "(current)", "abc123", "Children (1)", c.ID} {
		if !strings.Contains(text, want) {
			t.Errorf("result should contain %q:\n%s", want, text)
		}
	}

	result, _ = NewShowTool(ws).Handle(context.Background(), call(map[string]interface{}{"id": "ghost"}))
	if !isErrorResult(result) {
		t.Error("unknown id should be a tool error")
	}
}

func TestListTool_Handle(t *testing.T) {
	ws := setupWorkspace(t)
	p := mustCreate(t, ws, "alpha", "")
	mustCreate(t, ws, "beta", p.ID)
	tool := NewListTool(ws)

	result, err := tool.Handle(context.Background(), call(map[string]interface{}{"parent": p.ID}))
	if err != nil {
		t.Fatal(err)
	}
	text := getResultText(result)
	if !strings.Contains(text, "Stitches (1)") || !strings.Contains(text, "beta") {
		t.Errorf("unexpected list: %s", text)
	}

	result, _ = tool.Handle(context.Background(), call(map[string]interface{}{"status": "closed"}))
	if !strings.Contains(getResultText(result), "No stitches found") {
		t.Errorf("expected empty list, got %s", getResultText(result))
	}

	result, _ = tool.Handle(context.Background(), call(map[string]interface{}{"status": "done"}))
	if !isErrorResult(result) {
		t.Error("unknown status should be a tool error")
	}
}

// --- stitch_link ---

func TestLinkTool_Handle_Unverified(t *testing.T) {
	ws := setupWorkspace(t)
	s := mustCreate(t, ws, "work", "")
	tool := NewLinkTool(ws)

	result, err := tool.Handle(context.Background(), call(map[string]interface{}{
		"id":     s.ID,
		"refs":   "abc123, a1..b2",
		"verify": false,
	}))
	if err != nil {
		t.Fatal(err)
	}
	if isErrorResult(result) {
		t.Fatalf("unexpected error: %s", getResultText(result))
	}
	if !strings.Contains(getResultText(result), "2 commit reference(s)") {
		t.Errorf("unexpected text: %s", getResultText(result))
	}

	result, _ = tool.Handle(context.Background(), call(map[string]interface{}{"id": s.ID}))
	if !isErrorResult(result) {
		t.Error("missing refs should be a tool error")
	}
}

// --- stitch_finish ---

func TestFinishTool_Handle_ForceRequired(t *testing.T) {
	ws := setupWorkspace(t)
	s := mustCreate(t, ws, "unlinked", "")
	tool := NewFinishTool(ws)

	result, err := tool.Handle(context.Background(), call(map[string]interface{}{"id": s.ID, "status": "closed"}))
	if err != nil {
		t.Fatal(err)
	}
	if !isErrorResult(result) {
		t.Fatal("unlinked finish should need force")
	}
	if !strings.Contains(getResultText(result), "Force required") {
		t.Errorf("error should explain the force requirement: %s", getResultText(result))
	}
	if statusOf(t, ws, s.ID) != stitch.StatusOpen {
		t.Error("refused finish must not write")
	}

	result, _ = tool.Handle(context.Background(), call(map[string]interface{}{"id": s.ID, "status": "closed", "force": true}))
	if isErrorResult(result) {
		t.Fatalf("forced finish failed: %s", getResultText(result))
	}
	if statusOf(t, ws, s.ID) != stitch.StatusClosed {
		t.Error("forced finish should keep the requested status")
	}
}

func TestFinishTool_Handle_ConfirmFlow(t *testing.T) {
	ws := setupWorkspace(t)
	p := mustCreate(t, ws, "parent", "", "abc")
	c := mustCreate(t, ws, "child", p.ID, "def")
	if err := current.Set(ws.Root, c.ID); err != nil {
		t.Fatal(err)
	}
	tool := NewFinishTool(ws)
	args := map[string]interface{}{"id": p.ID, "status": "superseded"}

	result, err := tool.Handle(context.Background(), call(args))
	if err != nil {
		t.Fatal(err)
	}
	text := getResultText(result)
	if isErrorResult(result) || !strings.Contains(text, "Finish Preview") || !strings.Contains(text, "confirm") {
		t.Fatalf("expected preview asking for confirmation, got: %s", text)
	}
	if statusOf(t, ws, c.ID) != stitch.StatusOpen {
		t.Fatal("preview must not write")
	}

	args["confirm"] = true
	result, err = tool.Handle(context.Background(), call(args))
	if err != nil {
		t.Fatal(err)
	}
	text = getResultText(result)
	if isErrorResult(result) {
		t.Fatalf("confirmed finish failed: %s", text)
	}
	if !strings.Contains(text, "Updated (2)") || !strings.Contains(text, "has been cleared") {
		t.Errorf("unexpected result: %s", text)
	}
	if statusOf(t, ws, p.ID) != stitch.StatusSuperseded || statusOf(t, ws, c.ID) != stitch.StatusSuperseded {
		t.Error("cascade should supersede parent and child")
	}
	if cur, _ := current.Get(ws.Root); cur != "" {
		t.Errorf("current = %q, want cleared", cur)
	}
}

func TestFinishTool_Handle_InvalidSupersede(t *testing.T) {
	ws := setupWorkspace(t)
	s := mustCreate(t, ws, "old", "", "abc")

	result, err := NewFinishTool(ws).Handle(context.Background(), call(map[string]interface{}{
		"id":            s.ID,
		"status":        "closed",
		"superseded_by": "ghost",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !isErrorResult(result) {
		t.Error("superseded_by without superseded status should be a tool error")
	}
}

// --- stitch_history / stitch_index_rebuild ---

func TestHistoryTool_Handle(t *testing.T) {
	ws := setupWorkspace(t)
	s := mustCreate(t, ws, "shipped", "", "abc")
	tool := NewHistoryTool(ws)

	result, _ := tool.Handle(context.Background(), call(map[string]interface{}{}))
	if !strings.Contains(getResultText(result), "No finishes recorded") {
		t.Errorf("unexpected text: %s", getResultText(result))
	}

	if _, err := NewFinishTool(ws).Handle(context.Background(), call(map[string]interface{}{"id": s.ID})); err != nil {
		t.Fatal(err)
	}
	result, err := tool.Handle(context.Background(), call(map[string]interface{}{"id": s.ID, "limit": float64(5)}))
	if err != nil {
		t.Fatal(err)
	}
	text := getResultText(result)
	if !strings.Contains(text, "Finish History (1)") || !strings.Contains(text, "open → closed") {
		t.Errorf("unexpected history: %s", text)
	}
}

func TestIndexRebuildTool_Handle(t *testing.T) {
	ws := setupWorkspace(t)
	p := mustCreate(t, ws, "p", "")
	mustCreate(t, ws, "c1", p.ID)
	mustCreate(t, ws, "c2", p.ID)

	result, err := NewIndexRebuildTool(ws).Handle(context.Background(), call(map[string]interface{}{}))
	if err != nil {
		t.Fatal(err)
	}
	text := getResultText(result)
	if !strings.Contains(text, "**Parents:** 1") || !strings.Contains(text, "**Children:** 2") {
		t.Errorf("unexpected text: %s", text)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" a, b\nc ,, d ")
	want := []string{"a", "b", "c", "d"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("splitList = %v, want %v", got, want)
	}
}
