package workspace

// Image is a before-image of selected nodes, taken before an optimistic
// mutation. Restoring it puts exactly those nodes back (including removing
// nodes that did not exist yet) and leaves every other node alone, so
// overlapping mutations on unrelated nodes survive a rollback.
type Image struct {
	tags    map[string]*Tag
	folders map[string]*Folder
	pages   map[string]*Page
}

// Capture records the current state of refs. Absent nodes are recorded as
// absent.
func (f *Forest) Capture(refs ...NodeRef) *Image {
	img := &Image{
		tags:    make(map[string]*Tag),
		folders: make(map[string]*Folder),
		pages:   make(map[string]*Page),
	}
	for _, ref := range refs {
		switch ref.Kind {
		case NodeKindTag:
			if t, ok := f.Tags[ref.ID]; ok {
				img.tags[ref.ID] = t.Clone()
			} else {
				img.tags[ref.ID] = nil
			}
		case NodeKindFolder:
			if fo, ok := f.Folders[ref.ID]; ok {
				img.folders[ref.ID] = fo.Clone()
			} else {
				img.folders[ref.ID] = nil
			}
		case NodeKindPage:
			if p, ok := f.Pages[ref.ID]; ok {
				img.pages[ref.ID] = p.Clone()
			} else {
				img.pages[ref.ID] = nil
			}
		}
	}
	return img
}

// Restore writes the image back into f.
func (f *Forest) Restore(img *Image) {
	for id, t := range img.tags {
		if t == nil {
			delete(f.Tags, id)
		} else {
			f.Tags[id] = t.Clone()
		}
	}
	for id, fo := range img.folders {
		if fo == nil {
			delete(f.Folders, id)
		} else {
			f.Folders[id] = fo.Clone()
		}
	}
	for id, p := range img.pages {
		if p == nil {
			delete(f.Pages, id)
		} else {
			f.Pages[id] = p.Clone()
		}
	}
}
