package index

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/HendryAvila/stitch/internal/stitch"
	"github.com/gofrs/flock"
)

const (
	// FileName is the index file under .stitch/.
	FileName = "index.json"
	// LockFileName guards index rewrites across processes.
	LockFileName = "index.lock"

	lockTimeout      = 10 * time.Second
	lockPollInterval = 50 * time.Millisecond
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// Lister is the slice of the document store the index needs to rebuild.
type Lister interface {
	List(ctx context.Context, filter stitch.Filter) ([]stitch.Stitch, error)
}

// RebuildResult reports a rebuilt index together with parent IDs that are
// referenced by some document but have no document of their own.
type RebuildResult struct {
	Index    *Index
	Dangling []string
}

// Manager loads, rebuilds, and incrementally updates the persisted index.
type Manager struct {
	root  string
	store Lister
}

// NewManager creates an index manager for the project at root.
func NewManager(root string, store Lister) *Manager {
	return &Manager{root: root, store: store}
}

// Path returns the absolute path to the index file.
func Path(projectRoot string) string {
	return filepath.Join(stitch.StatePath(projectRoot), FileName)
}

// Load returns the persisted index, rebuilding it from the documents when
// the file is missing, unparsable, or carries another version tag.
func (m *Manager) Load(ctx context.Context) (*Index, error) {
	ix, reason := m.read()
	if ix != nil {
		return ix, nil
	}
	log.Printf("index: rebuilding (%s)", reason)
	res, err := m.Rebuild(ctx)
	if err != nil {
		return nil, err
	}
	return res.Index, nil
}

// Children returns the direct children of id.
func (m *Manager) Children(ctx context.Context, id string) ([]string, error) {
	ix, err := m.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return ix.ChildrenOf(id), nil
}

// Descendants returns every descendant of id in breadth-first order.
// Like Children, it never writes: a missing or stale file is rebuilt in
// memory only, so finish previews work on a read-only tree.
func (m *Manager) Descendants(ctx context.Context, id string) ([]string, error) {
	ix, err := m.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return ix.DescendantsOf(id), nil
}

// snapshot returns the persisted index, or an unsaved rebuild when the file
// cannot be used.
func (m *Manager) snapshot(ctx context.Context) (*Index, error) {
	ix, reason := m.read()
	if ix != nil {
		return ix, nil
	}
	log.Printf("index: using an in-memory rebuild (%s)", reason)
	res, err := m.scan(ctx)
	if err != nil {
		return nil, err
	}
	return res.Index, nil
}

// Rebuild scans every document, groups by relations.parent, and overwrites
// the persisted index. Children are ordered by ID, which is creation order,
// so two rebuilds over the same documents produce identical maps.
func (m *Manager) Rebuild(ctx context.Context) (*RebuildResult, error) {
	res, err := m.scan(ctx)
	if err != nil {
		return nil, err
	}
	err = m.withLock(ctx, func() error {
		return m.write(res.Index)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// scan derives the index from the documents without persisting it.
func (m *Manager) scan(ctx context.Context) (*RebuildResult, error) {
	docs, err := m.store.List(ctx, stitch.Filter{})
	if err != nil {
		return nil, fmt.Errorf("index: listing stitches: %w", err)
	}

	ix := newIndex()
	known := make(map[string]bool, len(docs))
	for _, d := range docs {
		known[d.ID] = true
	}
	for _, d := range docs {
		if p := d.Relations.Parent; p != "" {
			ix.addChild(p, d.ID)
		}
	}

	var dangling []string
	for parent, kids := range ix.Children {
		sort.Strings(kids)
		if !known[parent] {
			dangling = append(dangling, parent)
		}
	}
	sort.Strings(dangling)
	for _, p := range dangling {
		log.Printf("WARNING: index: parent %q is referenced by %v but has no document", p, ix.Children[p])
	}

	return &RebuildResult{Index: ix, Dangling: dangling}, nil
}

// AddChild records child under parent. Calling it again is a no-op.
func (m *Manager) AddChild(ctx context.Context, parent, child string) error {
	return m.update(ctx, func(ix *Index) bool { return ix.addChild(parent, child) })
}

// RemoveChild forgets child under parent. Calling it again is a no-op.
func (m *Manager) RemoveChild(ctx context.Context, parent, child string) error {
	return m.update(ctx, func(ix *Index) bool { return ix.removeChild(parent, child) })
}

// update applies fn to the current index under the file lock and persists
// the result when fn reports a change.
func (m *Manager) update(ctx context.Context, fn func(*Index) bool) error {
	// A stale or missing file is rebuilt outside the lock first; Rebuild
	// takes the lock itself.
	if ix, _ := m.read(); ix == nil {
		if _, err := m.Rebuild(ctx); err != nil {
			return err
		}
	}
	return m.withLock(ctx, func() error {
		ix, reason := m.read()
		if ix == nil {
			return fmt.Errorf("index: unreadable after rebuild (%s)", reason)
		}
		if !fn(ix) {
			return nil
		}
		return m.write(ix)
	})
}

// read parses the index file. A nil index comes with the reason it could
// not be used.
func (m *Manager) read() (*Index, string) {
	data, err := os.ReadFile(Path(m.root))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "missing"
		}
		return nil, fmt.Sprintf("unreadable: %v", err)
	}
	var ix Index
	if err := json.Unmarshal(data, &ix); err != nil {
		return nil, fmt.Sprintf("corrupt: %v", err)
	}
	if ix.Version != Version {
		return nil, fmt.Sprintf("version %d, want %d", ix.Version, Version)
	}
	if ix.Children == nil {
		ix.Children = map[string][]string{}
	}
	return &ix, ""
}

// write persists ix with a fresh timestamp.
func (m *Manager) write(ix *Index) error {
	ix.Version = Version
	ix.UpdatedAt = timeNow().UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(ix, "", "  ")
	if err != nil {
		return fmt.Errorf("index: marshaling: %w", err)
	}
	if err := stitch.WriteFileAtomic(Path(m.root), data); err != nil {
		return fmt.Errorf("index: writing: %w", err)
	}
	return nil
}

// withLock runs fn while holding the exclusive index file lock.
func (m *Manager) withLock(ctx context.Context, fn func() error) error {
	if err := os.MkdirAll(stitch.StatePath(m.root), 0o755); err != nil {
		return fmt.Errorf("index: creating state directory: %w", err)
	}
	lock := flock.New(filepath.Join(stitch.StatePath(m.root), LockFileName))

	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()
	locked, err := lock.TryLockContext(lockCtx, lockPollInterval)
	if err != nil {
		return fmt.Errorf("index: acquiring lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("index: lock %s held by another process", lock.Path())
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Printf("WARNING: index: releasing lock: %v", err)
		}
	}()
	return fn()
}
