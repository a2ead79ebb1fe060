package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HendryAvila/stitch/internal/current"
	"github.com/HendryAvila/stitch/internal/index"
	"github.com/HendryAvila/stitch/internal/stitch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// statusOf reads a stitch straight from disk.
func statusOf(t *testing.T, dir, id string) stitch.Status {
	t.Helper()
	s, err := stitch.NewFileStore(dir).Load(id)
	require.NoError(t, err)
	return s.Status
}

// withTerminal fakes stdin being a terminal and answers the confirmation
// prompt with answer. It returns a pointer counting prompts.
func withTerminal(t *testing.T, isTTY, answer bool) *int {
	t.Helper()
	prevTTY, prevConfirm := stdinIsTerminal, confirm
	asked := 0
	stdinIsTerminal = func() bool { return isTTY }
	confirm = func(string, string) (bool, error) {
		asked++
		return answer, nil
	}
	t.Cleanup(func() {
		stdinIsTerminal, confirm = prevTTY, prevConfirm
	})
	return &asked
}

func TestInit(t *testing.T) {
	dir := t.TempDir()

	out := mustRun(t, dir, "init")
	assert.Contains(t, out, "Initialized stitch project")
	assert.DirExists(t, stitch.StitchesPath(dir))
	assert.FileExists(t, index.Path(dir))
	assert.FileExists(t, filepath.Join(stitch.StatePath(dir), "config.yaml"))

	out = mustRun(t, dir, "init")
	assert.Contains(t, out, "Reinitialized")
}

func TestNewListShow(t *testing.T) {
	dir := initProject(t)

	parent := newStitch(t, dir, "add", "retry", "to", "uploads", "--current", "--tag", "http")
	child := newStitch(t, dir, "handle 429", "--parent", parent)

	cur, err := current.Get(dir)
	require.NoError(t, err)
	assert.Equal(t, parent, cur)

	out := mustRun(t, dir, "list")
	assert.Contains(t, out, "* "+parent)
	assert.Contains(t, out, "add retry to uploads")
	assert.Contains(t, out, "  "+child)

	out = mustRun(t, dir, "list", "--parent", parent)
	assert.Contains(t, out, child)
	assert.NotContains(t, out, "add retry to uploads")

	out = mustRun(t, dir, "list", "--status", "closed")
	assert.Contains(t, out, "No stitches found.")

	// show falls back to the current stitch
	out = mustRun(t, dir, "show")
	assert.Contains(t, out, "add retry to uploads")
	assert.Contains(t, out, "tags:     http")
	assert.Contains(t, out, "Children (1):")
	assert.Contains(t, out, child)
	assert.Contains(t, out, "No linked commits.")
}

func TestNew_UnknownParent(t *testing.T) {
	dir := initProject(t)
	_, stderr, err := run(t, dir, "new", "orphan", "--parent", "missing")
	require.Error(t, err)
	assert.Contains(t, stderr, "Stitch not found")
}

func TestList_InvalidStatus(t *testing.T) {
	dir := initProject(t)
	_, stderr, err := run(t, dir, "list", "--status", "done")
	require.Error(t, err)
	assert.Contains(t, stderr, "Invalid status")
}

func TestLink_NoVerify(t *testing.T) {
	dir := initProject(t)
	id := newStitch(t, dir, "work")

	out := mustRun(t, dir, "link", id, "abc123", "a..b", "--no-verify")
	assert.Contains(t, out, "Linked abc123")
	assert.Contains(t, out, "Linked a..b")
	assert.Contains(t, out, "2 linked reference(s)")

	out = mustRun(t, dir, "link", id, "abc123", "--no-verify")
	assert.Contains(t, out, "already linked: abc123")

	out = mustRun(t, dir, "show", id)
	assert.Contains(t, out, "Commits (2):")
}

func TestFinish_LinkedLeafCloses(t *testing.T) {
	dir := initProject(t)
	id := newStitch(t, dir, "work", "--current")
	mustRun(t, dir, "link", id, "abc123", "--no-verify")

	out := mustRun(t, dir, "finish")
	assert.Contains(t, out, "Finished 1 stitch(es) as closed")
	assert.Contains(t, out, "has been cleared")
	assert.Equal(t, stitch.StatusClosed, statusOf(t, dir, id))

	cur, err := current.Get(dir)
	require.NoError(t, err)
	assert.Empty(t, cur)
}

func TestFinish_ForceRequired(t *testing.T) {
	dir := initProject(t)
	id := newStitch(t, dir, "never committed")

	out, stderr, err := run(t, dir, "finish", id)
	require.Error(t, err)
	assert.Contains(t, out, "auto-detected")
	assert.Contains(t, stderr, "Finish needs --force")
	assert.Contains(t, stderr, "Would finish: abandoned")
	assert.Equal(t, stitch.StatusOpen, statusOf(t, dir, id))

	mustRun(t, dir, "finish", id, "--force")
	assert.Equal(t, stitch.StatusAbandoned, statusOf(t, dir, id))
}

func TestFinish_CascadeNeedsConfirmation(t *testing.T) {
	dir := initProject(t)
	parent := newStitch(t, dir, "parent")
	child := newStitch(t, dir, "child", "--parent", parent)
	mustRun(t, dir, "link", parent, "aaa", "--no-verify")
	mustRun(t, dir, "link", child, "bbb", "--no-verify")

	t.Run("refused without a terminal", func(t *testing.T) {
		withTerminal(t, false, true)
		out, stderr, err := run(t, dir, "finish", parent, "--status", "closed", "--force")
		require.Error(t, err)
		assert.Contains(t, out, "Will update (2):")
		assert.Contains(t, stderr, "Confirmation required")
		assert.Contains(t, stderr, "--yes")
		assert.Equal(t, stitch.StatusOpen, statusOf(t, dir, parent))
		assert.Equal(t, stitch.StatusOpen, statusOf(t, dir, child))
	})

	t.Run("declined at the prompt", func(t *testing.T) {
		asked := withTerminal(t, true, false)
		out := mustRun(t, dir, "finish", parent, "--status", "closed", "--force")
		assert.Equal(t, 1, *asked)
		assert.Contains(t, out, "Nothing was changed")
		assert.Equal(t, stitch.StatusOpen, statusOf(t, dir, parent))
	})

	t.Run("yes skips the prompt", func(t *testing.T) {
		asked := withTerminal(t, true, false)
		mustRun(t, dir, "finish", parent, "--status", "closed", "--force", "--yes")
		assert.Zero(t, *asked)
		assert.Equal(t, stitch.StatusClosed, statusOf(t, dir, parent))
		assert.Equal(t, stitch.StatusClosed, statusOf(t, dir, child))
	})
}

func TestFinish_ConfirmedAtPrompt(t *testing.T) {
	dir := initProject(t)
	parent := newStitch(t, dir, "parent")
	child := newStitch(t, dir, "child", "--parent", parent)

	asked := withTerminal(t, true, true)
	mustRun(t, dir, "finish", parent, "--status", "abandoned")
	assert.Equal(t, 1, *asked)
	assert.Equal(t, stitch.StatusAbandoned, statusOf(t, dir, parent))
	assert.Equal(t, stitch.StatusAbandoned, statusOf(t, dir, child))
}

func TestFinish_Superseded(t *testing.T) {
	dir := initProject(t)
	old := newStitch(t, dir, "old approach")
	replacement := newStitch(t, dir, "new approach")

	mustRun(t, dir, "finish", old, "--status", "superseded", "--superseded-by", replacement, "--force")
	s, err := stitch.NewFileStore(dir).Load(old)
	require.NoError(t, err)
	assert.Equal(t, stitch.StatusSuperseded, s.Status)
	assert.Contains(t, s.Relations.DependsOn, replacement)

	_, stderr, err := run(t, dir, "finish", replacement, "--superseded-by", old)
	require.Error(t, err)
	assert.Contains(t, stderr, "Invalid reference")
}

func TestFinish_NoTarget(t *testing.T) {
	dir := initProject(t)
	_, stderr, err := run(t, dir, "finish")
	require.Error(t, err)
	assert.Contains(t, stderr, "No stitch given")
}

func TestCurrent(t *testing.T) {
	dir := initProject(t)
	id := newStitch(t, dir, "focus")

	out := mustRun(t, dir, "current")
	assert.Contains(t, out, "No current stitch.")

	mustRun(t, dir, "current", id)
	out = mustRun(t, dir, "current")
	assert.Contains(t, out, id)
	assert.Contains(t, out, "focus")

	_, _, err := run(t, dir, "current", "missing")
	require.Error(t, err)

	_, _, err = run(t, dir, "current", id, "--clear")
	require.Error(t, err)

	mustRun(t, dir, "current", "--clear")
	cur, err := current.Get(dir)
	require.NoError(t, err)
	assert.Empty(t, cur)
}

func TestIndexRebuildAndShow(t *testing.T) {
	dir := initProject(t)
	parent := newStitch(t, dir, "parent")
	child := newStitch(t, dir, "child", "--parent", parent)

	require.NoError(t, os.Remove(index.Path(dir)))

	out := mustRun(t, dir, "index", "rebuild")
	assert.Contains(t, out, "Index rebuilt: 1 parents, 1 children")

	out = mustRun(t, dir, "index", "show")
	assert.Contains(t, out, `"version": 1`)
	assert.Contains(t, out, parent)
	assert.Contains(t, out, child)
}

func TestHistory(t *testing.T) {
	dir := initProject(t)
	id := newStitch(t, dir, "tracked")

	out := mustRun(t, dir, "history")
	assert.Contains(t, out, "No finishes recorded.")

	mustRun(t, dir, "finish", id, "--force")

	out = mustRun(t, dir, "history", id)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "open → abandoned (auto, forced)")

	out = mustRun(t, dir, "history", "--limit", "1")
	assert.Equal(t, 1, strings.Count(strings.TrimSpace(out), "\n")+1)
}

func TestHistory_JournalDisabled(t *testing.T) {
	dir := initProject(t)
	t.Setenv("STITCH_JOURNAL_ENABLED", "false")

	_, stderr, err := run(t, dir, "history")
	require.Error(t, err)
	assert.Contains(t, stderr, "Journal unavailable")
}
