// Package stitch defines the stitch document and its file-backed store.
//
// A stitch is a recorded unit of intent: a title, a lifecycle status,
// containment and dependency edges to other stitches, and links into git
// history. Each stitch is persisted as one markdown file with a TOML
// frontmatter block under .stitch/stitches/.
//
// This package follows the same design principles as the rest of the repo:
// - SRP: types, document codec, and store in separate files
// - DIP: Store is an interface; the lifecycle engine and tools depend on it
package stitch

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// --- Status enum ---

// Status tracks the lifecycle of a stitch. StatusOpen is the only
// non-terminal status.
type Status string

const (
	StatusOpen       Status = "open"
	StatusClosed     Status = "closed"
	StatusSuperseded Status = "superseded"
	StatusAbandoned  Status = "abandoned"
)

// validStatuses is the set of allowed statuses.
var validStatuses = map[Status]bool{
	StatusOpen:       true,
	StatusClosed:     true,
	StatusSuperseded: true,
	StatusAbandoned:  true,
}

// ValidateStatus returns an error if the status is not recognized.
func ValidateStatus(s Status) error {
	if !validStatuses[s] {
		return fmt.Errorf("invalid status %q: must be one of: open, closed, superseded, abandoned", s)
	}
	return nil
}

// IsTerminal reports whether s is a terminal status.
func (s Status) IsTerminal() bool {
	return s != StatusOpen && validStatuses[s]
}

// --- Core data structures ---

// Relations holds the edges from a stitch to other stitches.
type Relations struct {
	Parent    string   `toml:"parent,omitempty" json:"parent,omitempty"`
	DependsOn []string `toml:"depends_on,omitempty" json:"depends_on,omitempty"`
}

// GitInfo binds a stitch to git history. Links are commit SHAs or
// "a..b" ranges. Fingerprints are diff hashes and do not count as
// linked work.
type GitInfo struct {
	Links        []string `toml:"links,omitempty" json:"links,omitempty"`
	Fingerprints []string `toml:"fingerprints,omitempty" json:"fingerprints,omitempty"`
}

// Stitch is the root data structure for a document. The frontmatter
// fields are TOML-encoded; Body is the markdown after the frontmatter.
type Stitch struct {
	ID        string    `toml:"id" json:"id"`
	Title     string    `toml:"title" json:"title"`
	Status    Status    `toml:"status" json:"status"`
	Tags      []string  `toml:"tags,omitempty" json:"tags,omitempty"`
	CreatedAt string    `toml:"created_at" json:"created_at"`
	UpdatedAt string    `toml:"updated_at" json:"updated_at"`
	Relations Relations `toml:"relations" json:"relations"`
	Git       GitInfo   `toml:"git" json:"git"`
	Body      string    `toml:"-" json:"body,omitempty"`

	// Extra holds frontmatter keys this version does not know, so that
	// rewriting a document keeps them. Unknown keys inside the relations
	// and git tables are nested under "relations" and "git".
	Extra map[string]any `toml:"-" json:"extra,omitempty"`
}

// HasLinkedWork reports whether at least one commit or range is linked.
func (s *Stitch) HasLinkedWork() bool {
	for _, l := range s.Git.Links {
		if strings.TrimSpace(l) != "" {
			return true
		}
	}
	return false
}

// AddDependency appends id to Relations.DependsOn unless already present.
// Returns true if the set changed.
func (s *Stitch) AddDependency(id string) bool {
	if id == "" || slices.Contains(s.Relations.DependsOn, id) {
		return false
	}
	s.Relations.DependsOn = append(s.Relations.DependsOn, id)
	return true
}

// AddLink appends a git reference unless already present.
// Returns true if the set changed.
func (s *Stitch) AddLink(ref string) bool {
	ref = strings.TrimSpace(ref)
	if ref == "" || slices.Contains(s.Git.Links, ref) {
		return false
	}
	s.Git.Links = append(s.Git.Links, ref)
	return true
}

// Touch rewrites UpdatedAt to now. The timestamp never moves backwards:
// if the clock reads earlier than the stored value, the stored value wins.
func (s *Stitch) Touch() {
	now := timeNow().UTC().Format(timeLayout)
	if s.UpdatedAt != "" && now < s.UpdatedAt {
		return
	}
	s.UpdatedAt = now
}

// Clone returns a deep copy so callers can mutate without aliasing slices.
func (s *Stitch) Clone() *Stitch {
	c := *s
	c.Tags = slices.Clone(s.Tags)
	c.Relations.DependsOn = slices.Clone(s.Relations.DependsOn)
	c.Git.Links = slices.Clone(s.Git.Links)
	c.Git.Fingerprints = slices.Clone(s.Git.Fingerprints)
	c.Extra = maps.Clone(s.Extra)
	return &c
}

// NewID returns a time-ordered identifier. UUIDv7 strings sort
// lexicographically by creation time.
func NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generating stitch id: %w", err)
	}
	return id.String(), nil
}

// New builds an open stitch with a fresh ID and timestamps.
func New(title string) (*Stitch, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("title is required")
	}
	id, err := NewID()
	if err != nil {
		return nil, err
	}
	now := timeNow().UTC().Format(timeLayout)
	return &Stitch{
		ID:        id,
		Title:     strings.TrimSpace(title),
		Status:    StatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
