// Package hierarchy answers structural questions about a tag forest: node
// lookup, parent lookup, ancestor chains, descendant page counts and the
// derived archival predicate. All functions are pure reads of a snapshot.
package hierarchy

import (
	"fmt"
	"slices"

	"idealite/internal/domain"
	models "idealite/internal/domain/models/workspace"
)

// FindNode performs a depth-first search from every root and returns the tag
// with the given ID. Tags unreachable from a root are not found.
func FindNode(f *models.Forest, id string) (*models.Tag, bool) {
	var found *models.Tag
	walkTags(f, func(t *models.Tag, _ int) bool {
		if t.ID == id {
			found = t
			return false
		}
		return true
	})
	return found, found != nil
}

// FindParent returns the tag whose immediate children include id. A root,
// or an unknown id, has no parent.
func FindParent(f *models.Forest, id string) (*models.Tag, bool) {
	t, ok := f.Tags[id]
	if !ok || t.ParentID == nil {
		return nil, false
	}
	parent, ok := f.Tags[*t.ParentID]
	if !ok || !slices.Contains(parent.ChildIDs, id) {
		return nil, false
	}
	return parent, true
}

// AncestorChain returns the root-first chain of tag IDs ending with id.
// The walk is bounded by the number of tags in the forest; exceeding it means
// the parent links form a cycle and ErrCycleDetected is returned.
func AncestorChain(f *models.Forest, id string) ([]string, error) {
	if _, ok := f.Tags[id]; !ok {
		return nil, fmt.Errorf("tag %s: %w", id, domain.ErrContainerNotFound)
	}

	chain := []string{id}
	current := id
	for steps := 0; ; steps++ {
		if steps > len(f.Tags) {
			return nil, fmt.Errorf("ancestor walk from tag %s: %w", id, domain.ErrCycleDetected)
		}
		parent, ok := FindParent(f, current)
		if !ok {
			break
		}
		chain = append(chain, parent.ID)
		current = parent.ID
	}

	// Walked leaf-to-root; callers want root-first
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// CountDescendantPages counts the distinct active pages placed in the tag's
// subtree: pages directly under each tag plus pages in any of their folders.
// A page is counted once even if it is reachable through more than one list.
// Archived pages and archived child tags (with everything under them) are
// skipped, since deleting the tag cannot archive them again.
func CountDescendantPages(f *models.Forest, tagID string) int {
	seen := make(map[string]struct{})
	addPages := func(ids []string) {
		for _, pid := range ids {
			if p, ok := f.Pages[pid]; ok && !p.Archived {
				seen[pid] = struct{}{}
			}
		}
	}
	visitedTags := make(map[string]struct{})
	visitedFolders := make(map[string]struct{})

	var countFolder func(id string)
	countFolder = func(id string) {
		if _, done := visitedFolders[id]; done {
			return
		}
		visitedFolders[id] = struct{}{}
		fo, ok := f.Folders[id]
		if !ok {
			return
		}
		addPages(fo.PageIDs)
		for _, child := range fo.ChildFolderIDs {
			countFolder(child)
		}
	}

	var countTag func(id string)
	countTag = func(id string) {
		if _, done := visitedTags[id]; done {
			return
		}
		visitedTags[id] = struct{}{}
		t, ok := f.Tags[id]
		if !ok || t.Archived {
			return
		}
		addPages(t.PageIDs)
		for _, fid := range t.FolderIDs {
			countFolder(fid)
		}
		for _, child := range t.ChildIDs {
			countTag(child)
		}
	}

	countTag(tagID)
	return len(seen)
}

// IsArchived reports whether the tag or any ancestor carries the archived
// flag. Archival is inherited by ancestry and never written to descendants.
// Unknown tags and corrupt (cyclic) ancestry count as archived so they stay
// out of traversals.
func IsArchived(f *models.Forest, tagID string) bool {
	current := tagID
	for steps := 0; steps <= len(f.Tags); steps++ {
		t, ok := f.Tags[current]
		if !ok {
			return true
		}
		if t.Archived {
			return true
		}
		if t.ParentID == nil {
			return false
		}
		if _, ok := f.Tags[*t.ParentID]; !ok {
			// Dangling parent: the tag was linked as a root
			return false
		}
		current = *t.ParentID
	}
	return true
}

// IsPageArchived reports whether a page is excluded from active traversal:
// it was archived directly, or its primary tag is archived.
func IsPageArchived(f *models.Forest, p *models.Page) bool {
	return p.Archived || IsArchived(f, p.PrimaryTagID)
}

// walkTags visits tags depth-first from each root. fn returns false to stop.
// Depth is bounded by the tag count so corrupt child links cannot loop.
func walkTags(f *models.Forest, fn func(t *models.Tag, depth int) bool) {
	var visit func(id string, depth int) bool
	visit = func(id string, depth int) bool {
		if depth > len(f.Tags) {
			return true
		}
		t, ok := f.Tags[id]
		if !ok {
			return true
		}
		if !fn(t, depth) {
			return false
		}
		for _, child := range t.ChildIDs {
			if !visit(child, depth+1) {
				return false
			}
		}
		return true
	}
	for _, root := range f.RootIDs {
		if !visit(root, 0) {
			return
		}
	}
}
