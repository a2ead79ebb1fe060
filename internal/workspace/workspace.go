// Package workspace opens a stitch project and wires its components.
//
// It is the composition root shared by the CLI and the MCP server: it
// resolves configuration, creates the concrete store, index, engine and
// journal, and hosts the mutations that touch more than one of them.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/HendryAvila/stitch/internal/config"
	"github.com/HendryAvila/stitch/internal/current"
	"github.com/HendryAvila/stitch/internal/gitref"
	"github.com/HendryAvila/stitch/internal/index"
	"github.com/HendryAvila/stitch/internal/journal"
	"github.com/HendryAvila/stitch/internal/lifecycle"
	"github.com/HendryAvila/stitch/internal/stitch"
)

// ErrNotInitialized means no .stitch directory was found.
var ErrNotInitialized = errors.New("not a stitch project (run `stitch init`)")

// Workspace is an opened stitch project.
type Workspace struct {
	Root    string
	Config  *config.Config
	Store   *stitch.FileStore
	Index   *index.Manager
	Engine  *lifecycle.Engine
	Git     *gitref.Verifier
	Journal *journal.Journal // nil when disabled or unavailable
}

// Discover finds the project containing dir and opens it.
func Discover(dir string) (*Workspace, error) {
	root, ok := config.FindRoot(dir)
	if !ok {
		return nil, ErrNotInitialized
	}
	return Open(root)
}

// Open wires the components of the project at root.
//
// The journal is an independent subsystem: if it fails to open, the
// workspace still works and a warning is logged.
func Open(root string) (*Workspace, error) {
	if info, err := os.Stat(stitch.StatePath(root)); err != nil || !info.IsDir() {
		return nil, ErrNotInitialized
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	store := stitch.NewFileStore(root)
	store.SetWorkers(cfg.StoreWorkers)
	idx := index.NewManager(root, store)

	engine := lifecycle.New(store, idx)
	if err := engine.SetDefaultStatus(cfg.DefaultStatus); err != nil {
		return nil, err
	}

	w := &Workspace{
		Root:   root,
		Config: cfg,
		Store:  store,
		Index:  idx,
		Engine: engine,
		Git:    gitref.NewVerifier(root),
	}

	if cfg.JournalEnabled {
		j, err := journal.Open(cfg.JournalPath)
		if err != nil {
			log.Printf("WARNING: journal disabled: %v", err)
		} else {
			w.Journal = j
			engine.SetObserver(j)
		}
	}
	return w, nil
}

// Init creates the .stitch layout, a default config and a fresh index at
// root, then opens it. Running Init on an existing project is safe.
func Init(ctx context.Context, root string) (*Workspace, error) {
	if err := os.MkdirAll(stitch.StitchesPath(root), 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", stitch.StitchesPath(root), err)
	}
	if _, err := config.WriteDefault(root); err != nil {
		return nil, err
	}
	w, err := Open(root)
	if err != nil {
		return nil, err
	}
	if _, err := w.Index.Rebuild(ctx); err != nil {
		w.Close()
		return nil, fmt.Errorf("building index: %w", err)
	}
	return w, nil
}

// Close releases the journal connection. It is safe to call more than once.
func (w *Workspace) Close() error {
	if w.Journal == nil {
		return nil
	}
	err := w.Journal.Close()
	w.Journal = nil
	return err
}

// ResolveID returns id, or the current pointer when id is empty.
func (w *Workspace) ResolveID(id string) (string, error) {
	if id != "" {
		return id, nil
	}
	cur, err := current.Get(w.Root)
	if err != nil {
		return "", err
	}
	if cur == "" {
		return "", errors.New("no stitch id given and no current stitch set")
	}
	return cur, nil
}

// AfterFinish clears the current pointer when the finish wrote it and
// returns the cleared ID, or "".
func (w *Workspace) AfterFinish(res *lifecycle.Result) string {
	cleared, err := current.ClearIf(w.Root, res.Touches)
	if err != nil {
		log.Printf("WARNING: finish %s: %v", res.TargetID, err)
		return ""
	}
	return cleared
}
