// Package index maintains the parent-to-children adjacency cache over
// stitch documents.
//
// The index is never a source of truth: every entry is derivable from
// relations.parent in the documents themselves. A missing, unparsable, or
// version-mismatched index file is simply rebuilt by scanning the store.
package index

import (
	"slices"
)

// Version is the on-disk format tag. Any other value triggers a rebuild.
const Version = 1

// Index is the persisted adjacency map from parent ID to ordered child IDs.
type Index struct {
	Version   int                 `json:"version"`
	Children  map[string][]string `json:"children"`
	UpdatedAt string              `json:"updated_at"`
}

// newIndex returns an empty index at the current version.
func newIndex() *Index {
	return &Index{Version: Version, Children: map[string][]string{}}
}

// ChildrenOf returns the direct children of id, or nil if none are known.
// The returned slice is a copy.
func (ix *Index) ChildrenOf(id string) []string {
	return slices.Clone(ix.Children[id])
}

// DescendantsOf walks the children map breadth-first from id. The result
// excludes id itself and lists every node at most once, so a malformed
// map containing a cycle still terminates.
func (ix *Index) DescendantsOf(id string) []string {
	visited := map[string]bool{id: true}
	queue := []string{id}
	var result []string

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range ix.Children[current] {
			if visited[child] {
				continue
			}
			visited[child] = true
			result = append(result, child)
			queue = append(queue, child)
		}
	}
	return result
}

// addChild appends child under parent. Returns false if already present.
func (ix *Index) addChild(parent, child string) bool {
	if slices.Contains(ix.Children[parent], child) {
		return false
	}
	ix.Children[parent] = append(ix.Children[parent], child)
	return true
}

// removeChild drops child from parent, deleting the parent entry once it
// has no children left. Returns false if child was not present.
func (ix *Index) removeChild(parent, child string) bool {
	kids := ix.Children[parent]
	i := slices.Index(kids, child)
	if i < 0 {
		return false
	}
	kids = slices.Delete(kids, i, i+1)
	if len(kids) == 0 {
		delete(ix.Children, parent)
	} else {
		ix.Children[parent] = kids
	}
	return true
}
