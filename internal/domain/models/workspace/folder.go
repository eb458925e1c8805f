package workspace

import "time"

// Folder groups pages inside exactly one tag. Nested folders stay within the
// owning tag.
type Folder struct {
	ID             string    `json:"id" db:"id"`
	TagID          string    `json:"tag_id" db:"tag_id"`
	ParentFolderID *string   `json:"parent_folder_id" db:"parent_folder_id"` // NULL = directly under the tag
	Name           string    `json:"name" db:"name"`
	PageIDs        []string  `json:"pages"`
	ChildFolderIDs []string  `json:"folders"`
	Collapsed      bool      `json:"is_collapsed" db:"is_collapsed"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

func (f *Folder) Clone() *Folder {
	c := *f
	c.ParentFolderID = cloneStringPtr(f.ParentFolderID)
	c.PageIDs = cloneStrings(f.PageIDs)
	c.ChildFolderIDs = cloneStrings(f.ChildFolderIDs)
	return &c
}
