package hierarchy

import (
	models "idealite/internal/domain/models/workspace"
)

// ActiveTags returns the IDs of all non-archived tags in depth-first order.
// Descendants of an archived tag are skipped with it.
func ActiveTags(f *models.Forest) []string {
	var ids []string
	var visit func(id string, depth int)
	visit = func(id string, depth int) {
		t, ok := f.Tags[id]
		if !ok || t.Archived || depth > len(f.Tags) {
			return
		}
		ids = append(ids, id)
		for _, child := range t.ChildIDs {
			visit(child, depth+1)
		}
	}
	for _, root := range f.RootIDs {
		visit(root, 0)
	}
	return ids
}

// ActiveTree builds the nested presentation view, excluding archived tags
// (and everything below them) and archived pages.
func ActiveTree(f *models.Forest) []*models.TreeTag {
	roots := make([]*models.TreeTag, 0, len(f.RootIDs))
	for _, id := range f.RootIDs {
		if node := buildTag(f, id, 0); node != nil {
			roots = append(roots, node)
		}
	}
	return roots
}

func buildTag(f *models.Forest, id string, depth int) *models.TreeTag {
	t, ok := f.Tags[id]
	if !ok || t.Archived || depth > len(f.Tags) {
		return nil
	}

	node := &models.TreeTag{
		ID:          t.ID,
		Name:        t.Name,
		IsCollapsed: t.Collapsed,
		Pages:       treePages(f, t.PageIDs),
		Folders:     make([]*models.TreeFolder, 0, len(t.FolderIDs)),
		Children:    make([]*models.TreeTag, 0, len(t.ChildIDs)),
	}
	for _, fid := range t.FolderIDs {
		if folder := buildFolder(f, fid, 0); folder != nil {
			node.Folders = append(node.Folders, folder)
		}
	}
	for _, child := range t.ChildIDs {
		if c := buildTag(f, child, depth+1); c != nil {
			node.Children = append(node.Children, c)
		}
	}
	return node
}

func buildFolder(f *models.Forest, id string, depth int) *models.TreeFolder {
	fo, ok := f.Folders[id]
	if !ok || depth > len(f.Folders) {
		return nil
	}
	node := &models.TreeFolder{
		ID:          fo.ID,
		Name:        fo.Name,
		IsCollapsed: fo.Collapsed,
		Pages:       treePages(f, fo.PageIDs),
		Folders:     make([]*models.TreeFolder, 0, len(fo.ChildFolderIDs)),
	}
	for _, child := range fo.ChildFolderIDs {
		if c := buildFolder(f, child, depth+1); c != nil {
			node.Folders = append(node.Folders, c)
		}
	}
	return node
}

func treePages(f *models.Forest, ids []string) []models.TreePage {
	pages := make([]models.TreePage, 0, len(ids))
	for _, id := range ids {
		p, ok := f.Pages[id]
		if !ok || p.Archived {
			continue
		}
		pages = append(pages, models.TreePage{
			ID:           p.ID,
			Title:        p.Title,
			Kind:         p.Kind,
			FolderID:     p.FolderID,
			PrimaryTagID: p.PrimaryTagID,
		})
	}
	return pages
}
