package workspace

// Forest is the arena holding one user's workspace: every tag, folder and
// page indexed by identifier. Relationships are stored as identifiers on both
// sides (parent ID on the child, child ID list on the parent) so the structure
// serializes as-is and walks can be bounded by len(Tags).
//
// A Forest published by a session is treated as immutable; writers Clone,
// mutate the copy and swap it in.
type Forest struct {
	RootIDs []string           `json:"roots"`
	Tags    map[string]*Tag    `json:"tags"`
	Folders map[string]*Folder `json:"folders"`
	Pages   map[string]*Page   `json:"pages"`
}

func NewForest() *Forest {
	return &Forest{
		RootIDs: []string{},
		Tags:    make(map[string]*Tag),
		Folders: make(map[string]*Folder),
		Pages:   make(map[string]*Page),
	}
}

// NewForestFrom links flat entity lists into a forest using a multi-pass
// build: index every entity first, then connect children to parents. Input
// order is preserved in child lists. A tag whose parent is unknown becomes a
// root; folders and pages whose container is unknown are indexed but unlinked.
func NewForestFrom(tags []Tag, folders []Folder, pages []Page) *Forest {
	f := NewForest()

	// First pass: index all nodes with empty link lists
	for i := range tags {
		t := tags[i].Clone()
		t.ChildIDs, t.PageIDs, t.FolderIDs = []string{}, []string{}, []string{}
		f.Tags[t.ID] = t
	}
	for i := range folders {
		fo := folders[i].Clone()
		fo.PageIDs, fo.ChildFolderIDs = []string{}, []string{}
		f.Folders[fo.ID] = fo
	}
	for i := range pages {
		p := pages[i].Clone()
		f.Pages[p.ID] = p
	}

	// Second pass: nest tags and folders
	for i := range tags {
		t := f.Tags[tags[i].ID]
		if t.ParentID != nil {
			if parent, ok := f.Tags[*t.ParentID]; ok {
				parent.ChildIDs = append(parent.ChildIDs, t.ID)
				continue
			}
		}
		f.RootIDs = append(f.RootIDs, t.ID)
	}
	for i := range folders {
		f.linkFolder(f.Folders[folders[i].ID])
	}

	// Third pass: place pages
	for i := range pages {
		f.linkPage(f.Pages[pages[i].ID])
	}

	return f
}

// Clone returns a deep copy.
func (f *Forest) Clone() *Forest {
	c := &Forest{
		RootIDs: cloneStrings(f.RootIDs),
		Tags:    make(map[string]*Tag, len(f.Tags)),
		Folders: make(map[string]*Folder, len(f.Folders)),
		Pages:   make(map[string]*Page, len(f.Pages)),
	}
	if c.RootIDs == nil {
		c.RootIDs = []string{}
	}
	for id, t := range f.Tags {
		c.Tags[id] = t.Clone()
	}
	for id, fo := range f.Folders {
		c.Folders[id] = fo.Clone()
	}
	for id, p := range f.Pages {
		c.Pages[id] = p.Clone()
	}
	return c
}

func (f *Forest) Tag(id string) (*Tag, bool) {
	t, ok := f.Tags[id]
	return t, ok
}

func (f *Forest) Folder(id string) (*Folder, bool) {
	fo, ok := f.Folders[id]
	return fo, ok
}

func (f *Forest) Page(id string) (*Page, bool) {
	p, ok := f.Pages[id]
	return p, ok
}

// InsertFolder adds a folder and links it under its parent folder or tag.
func (f *Forest) InsertFolder(fo *Folder) {
	f.Folders[fo.ID] = fo
	f.linkFolder(fo)
}

// InsertPage adds a page and links it under its container.
func (f *Forest) InsertPage(p *Page) {
	f.Pages[p.ID] = p
	f.linkPage(p)
}

// RelinkPage moves an existing page to dest, updating both container lists.
// The caller is responsible for the page's hierarchy.
func (f *Forest) RelinkPage(p *Page, dest ContainerRef) {
	f.unlinkPage(p)
	p.PrimaryTagID = dest.TagID
	p.FolderID = cloneStringPtr(dest.FolderID)
	f.linkPage(p)
}

// ContainerPageIDs returns the page list of a container, or false if the
// container does not exist.
func (f *Forest) ContainerPageIDs(c ContainerRef) ([]string, bool) {
	if c.FolderID != nil {
		fo, ok := f.Folders[*c.FolderID]
		if !ok {
			return nil, false
		}
		return fo.PageIDs, true
	}
	t, ok := f.Tags[c.TagID]
	if !ok {
		return nil, false
	}
	return t.PageIDs, true
}

// SiblingFolderIDs returns the folders directly inside a container.
func (f *Forest) SiblingFolderIDs(c ContainerRef) ([]string, bool) {
	if c.FolderID != nil {
		fo, ok := f.Folders[*c.FolderID]
		if !ok {
			return nil, false
		}
		return fo.ChildFolderIDs, true
	}
	t, ok := f.Tags[c.TagID]
	if !ok {
		return nil, false
	}
	return t.FolderIDs, true
}

func (f *Forest) linkFolder(fo *Folder) {
	if fo.ParentFolderID != nil {
		if parent, ok := f.Folders[*fo.ParentFolderID]; ok {
			parent.ChildFolderIDs = append(parent.ChildFolderIDs, fo.ID)
		}
		return
	}
	if t, ok := f.Tags[fo.TagID]; ok {
		t.FolderIDs = append(t.FolderIDs, fo.ID)
	}
}

func (f *Forest) linkPage(p *Page) {
	if p.FolderID != nil {
		if fo, ok := f.Folders[*p.FolderID]; ok {
			fo.PageIDs = append(fo.PageIDs, p.ID)
		}
		return
	}
	if t, ok := f.Tags[p.PrimaryTagID]; ok {
		t.PageIDs = append(t.PageIDs, p.ID)
	}
}

func (f *Forest) unlinkPage(p *Page) {
	if p.FolderID != nil {
		if fo, ok := f.Folders[*p.FolderID]; ok {
			fo.PageIDs = removeID(fo.PageIDs, p.ID)
		}
		return
	}
	if t, ok := f.Tags[p.PrimaryTagID]; ok {
		t.PageIDs = removeID(t.PageIDs, p.ID)
	}
}

func removeID(ids []string, id string) []string {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
