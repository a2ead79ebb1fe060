package workspace

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/HendryAvila/stitch/internal/current"
	"github.com/HendryAvila/stitch/internal/lifecycle"
	"github.com/HendryAvila/stitch/internal/stitch"
)

// NewParams holds the input for creating a stitch.
type NewParams struct {
	Title      string
	Parent     string
	DependsOn  []string
	Tags       []string
	Body       string
	SetCurrent bool
}

// Create validates p, writes a new stitch, and registers it with its
// parent in the index.
func (w *Workspace) Create(ctx context.Context, p NewParams) (*stitch.Stitch, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, errors.New("title is required")
	}
	if p.Parent != "" && !w.Store.Exists(p.Parent) {
		return nil, fmt.Errorf("%w: parent %q", lifecycle.ErrNotFound, p.Parent)
	}

	s, err := stitch.New(title)
	if err != nil {
		return nil, err
	}
	s.Relations.Parent = p.Parent
	for _, dep := range p.DependsOn {
		dep = strings.TrimSpace(dep)
		if dep == "" {
			continue
		}
		if !w.Store.Exists(dep) {
			return nil, fmt.Errorf("%w: dependency %q", lifecycle.ErrNotFound, dep)
		}
		s.AddDependency(dep)
	}
	for _, tag := range p.Tags {
		if tag = strings.TrimSpace(tag); tag != "" && !slices.Contains(s.Tags, tag) {
			s.Tags = append(s.Tags, tag)
		}
	}
	s.Body = p.Body

	if err := w.Store.Create(s); err != nil {
		return nil, err
	}

	// The index is a cache; a failed update is repaired by the next rebuild.
	if s.Relations.Parent != "" {
		if err := w.Index.AddChild(ctx, s.Relations.Parent, s.ID); err != nil {
			log.Printf("WARNING: index: adding %s under %s: %v", s.ID, s.Relations.Parent, err)
		}
	}

	if p.SetCurrent {
		if err := current.Set(w.Root, s.ID); err != nil {
			return s, fmt.Errorf("stitch %s created but setting it current failed: %w", s.ID, err)
		}
	}
	return s, nil
}

// LinkResult reports what Link changed.
type LinkResult struct {
	Stitch *stitch.Stitch
	Added  []string
	// Existing are refs that were already linked.
	Existing []string
}

// Link adds commit references to a stitch's git links. With verify set,
// every reference is resolved through git first and stored as full SHAs;
// nothing is written unless all of them resolve.
func (w *Workspace) Link(ctx context.Context, id string, refs []string, verify bool) (*LinkResult, error) {
	if len(refs) == 0 {
		return nil, errors.New("at least one commit reference is required")
	}

	normalized := make([]string, 0, len(refs))
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		if verify {
			full, err := w.Git.Verify(ctx, ref)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", lifecycle.ErrInvalidReference, err)
			}
			ref = full
		}
		normalized = append(normalized, ref)
	}
	if len(normalized) == 0 {
		return nil, errors.New("at least one commit reference is required")
	}

	// Serialize with finishes of the same stitch.
	unlock := w.Engine.Locks().Lock(id)
	defer unlock()

	s, err := w.Store.Load(id)
	if err != nil {
		if errors.Is(err, stitch.ErrNotFound) {
			return nil, fmt.Errorf("%w: %q", lifecycle.ErrNotFound, id)
		}
		return nil, err
	}

	res := &LinkResult{Stitch: s}
	for _, ref := range normalized {
		if s.AddLink(ref) {
			res.Added = append(res.Added, ref)
		} else {
			res.Existing = append(res.Existing, ref)
		}
	}
	if len(res.Added) == 0 {
		return res, nil
	}
	if err := w.Store.Save(s); err != nil {
		return nil, err
	}
	return res, nil
}

// Details is a stitch with its direct children loaded.
type Details struct {
	Stitch   *stitch.Stitch
	Children []*stitch.Stitch
	// Missing are child IDs the index lists but the store cannot load.
	Missing []string
}

// Show loads a stitch and its direct children.
func (w *Workspace) Show(ctx context.Context, id string) (*Details, error) {
	s, err := w.Store.Load(id)
	if err != nil {
		if errors.Is(err, stitch.ErrNotFound) {
			return nil, fmt.Errorf("%w: %q", lifecycle.ErrNotFound, id)
		}
		return nil, err
	}
	kids, err := w.Index.Children(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &Details{Stitch: s}
	for _, kid := range kids {
		c, err := w.Store.Load(kid)
		if err != nil {
			d.Missing = append(d.Missing, kid)
			continue
		}
		d.Children = append(d.Children, c)
	}
	return d, nil
}
