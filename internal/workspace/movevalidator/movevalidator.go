// Package movevalidator lists where a page may be moved.
package movevalidator

import (
	"fmt"

	"idealite/internal/domain"
	models "idealite/internal/domain/models/workspace"
	"idealite/internal/workspace/hierarchy"
)

// LegalDestinations returns every active container the page can move to, in
// tree order: each tag, then its folders depth-first, then its child tags.
// The page's current container is excluded, as is anything under an archived
// tag. Pages are leaves so no other destination can form a cycle.
func LegalDestinations(f *models.Forest, pageID string) ([]models.ContainerRef, error) {
	p, ok := f.Page(pageID)
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("page %s not found", pageID)}
	}
	current := p.Container()

	var out []models.ContainerRef
	add := func(c models.ContainerRef) {
		if !c.Equal(current) {
			out = append(out, c)
		}
	}

	visitedFolders := make(map[string]struct{})
	var visitFolder func(tagID, id string)
	visitFolder = func(tagID, id string) {
		if _, done := visitedFolders[id]; done {
			return
		}
		visitedFolders[id] = struct{}{}
		fo, ok := f.Folder(id)
		if !ok || fo.TagID != tagID {
			return
		}
		add(models.FolderContainer(tagID, id))
		for _, child := range fo.ChildFolderIDs {
			visitFolder(tagID, child)
		}
	}

	for _, tagID := range hierarchy.ActiveTags(f) {
		add(models.TagContainer(tagID))
		for _, fid := range f.Tags[tagID].FolderIDs {
			visitFolder(tagID, fid)
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("page %s: %w", pageID, domain.ErrNoLegalDestination)
	}
	return out, nil
}

// IsLegal reports whether dest appears in the page's legal destinations.
func IsLegal(f *models.Forest, pageID string, dest models.ContainerRef) bool {
	dests, err := LegalDestinations(f, pageID)
	if err != nil {
		return false
	}
	for _, d := range dests {
		if d.Equal(dest) {
			return true
		}
	}
	return false
}
