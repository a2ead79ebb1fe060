package stitch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

const (
	// Dir is the per-project directory holding all stitch state.
	Dir = ".stitch"
	// StitchesDir is the subdirectory under .stitch/ where documents live.
	StitchesDir = "stitches"
	// FileExt is the extension of a stitch document.
	FileExt = ".md"

	// defaultListWorkers bounds concurrent file reads during List.
	defaultListWorkers = 8
)

// ErrNotFound is returned when a stitch document does not exist.
var ErrNotFound = errors.New("stitch not found")

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Status Status
	Parent string
}

func (f Filter) match(s *Stitch) bool {
	if f.Status != "" && s.Status != f.Status {
		return false
	}
	if f.Parent != "" && s.Relations.Parent != f.Parent {
		return false
	}
	return true
}

// Store defines the persistence interface for stitch documents.
// Abstracted for testability (DIP).
type Store interface {
	Create(s *Stitch) error
	Load(id string) (*Stitch, error)
	Save(s *Stitch) error
	List(ctx context.Context, filter Filter) ([]Stitch, error)
	Exists(id string) bool
}

// RawStore exposes a document's serialized bytes. The lifecycle engine
// uses it to capture originals before a multi-document write and to
// restore them on failure.
type RawStore interface {
	Path(id string) string
	ReadRaw(id string) ([]byte, error)
	WriteRaw(id string, data []byte) error
}

// FileStore implements Store and RawStore on the local filesystem.
type FileStore struct {
	root    string
	workers int
}

// NewFileStore creates a filesystem-backed store for the project at root.
func NewFileStore(root string) *FileStore {
	return &FileStore{root: root, workers: defaultListWorkers}
}

// SetWorkers sets how many documents List reads concurrently.
func (fs *FileStore) SetWorkers(n int) {
	if n > 0 {
		fs.workers = n
	}
}

// Root returns the project root the store was created with.
func (fs *FileStore) Root() string { return fs.root }

// StatePath returns the absolute path to the .stitch/ directory.
func StatePath(projectRoot string) string {
	return filepath.Join(projectRoot, Dir)
}

// StitchesPath returns the absolute path to the .stitch/stitches/ directory.
func StitchesPath(projectRoot string) string {
	return filepath.Join(StatePath(projectRoot), StitchesDir)
}

// DocumentPath returns the absolute path to a stitch's file.
func DocumentPath(projectRoot, id string) string {
	return filepath.Join(StitchesPath(projectRoot), id+FileExt)
}

// ValidateID rejects IDs that cannot safely name a file.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("stitch id is required")
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") || id != strings.TrimSpace(id) {
		return fmt.Errorf("invalid stitch id %q", id)
	}
	return nil
}

// Path returns the file backing the given stitch.
func (fs *FileStore) Path(id string) string {
	return DocumentPath(fs.root, id)
}

// Create persists a new stitch. It fails if a document with the same ID
// already exists.
func (fs *FileStore) Create(s *Stitch) error {
	if err := ValidateID(s.ID); err != nil {
		return err
	}
	if err := os.MkdirAll(StitchesPath(fs.root), 0o755); err != nil {
		return fmt.Errorf("creating stitches directory: %w", err)
	}
	if fs.Exists(s.ID) {
		return fmt.Errorf("stitch %q already exists", s.ID)
	}
	return fs.write(s)
}

// Load reads a specific stitch by ID.
func (fs *FileStore) Load(id string) (*Stitch, error) {
	data, err := fs.ReadRaw(id)
	if err != nil {
		return nil, err
	}
	s, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("parsing stitch %q: %w", id, err)
	}
	if s.ID != id {
		return nil, fmt.Errorf("stitch file %q declares id %q", id, s.ID)
	}
	return s, nil
}

// Save updates an existing stitch, rewriting its timestamp.
func (fs *FileStore) Save(s *Stitch) error {
	if err := ValidateID(s.ID); err != nil {
		return err
	}
	s.Touch()
	return fs.write(s)
}

// Exists reports whether a document file is present for id.
func (fs *FileStore) Exists(id string) bool {
	if ValidateID(id) != nil {
		return false
	}
	_, err := os.Stat(fs.Path(id))
	return err == nil
}

// List returns every readable stitch matching filter, sorted by ID
// (creation order). Unreadable documents are skipped with a warning.
func (fs *FileStore) List(ctx context.Context, filter Filter) ([]Stitch, error) {
	entries, err := os.ReadDir(StitchesPath(fs.root))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading stitches directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, FileExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, FileExt))
	}

	loaded := make([]*Stitch, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fs.workers)
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, err := fs.Load(id)
			if err != nil {
				log.Printf("WARNING: skipping unreadable stitch %q: %v", id, err)
				return nil
			}
			loaded[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var result []Stitch
	for _, s := range loaded {
		if s != nil && filter.match(s) {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ReadRaw returns the serialized bytes of a stitch file.
func (fs *FileStore) ReadRaw(id string) ([]byte, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fs.Path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
		}
		return nil, fmt.Errorf("reading stitch %q: %w", id, err)
	}
	return data, nil
}

// WriteRaw replaces a stitch file with data. The write goes through a
// temporary file in the same directory and a rename, so readers never
// observe a half-written document.
func (fs *FileStore) WriteRaw(id string, data []byte) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	return WriteFileAtomic(fs.Path(id), data)
}

// write marshals and writes a stitch to its file.
func (fs *FileStore) write(s *Stitch) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	return WriteFileAtomic(fs.Path(s.ID), data)
}

// WriteFileAtomic writes data to path via a temp file and rename, creating
// parent directories as needed.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("setting mode on %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
