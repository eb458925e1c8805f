package workspace

import "time"

// Tag is a node in a user's tag forest. Children, pages and folders are held
// as identifiers into the owning Forest.
type Tag struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	ParentID  *string   `json:"parent_id" db:"parent_id"` // NULL = root tag
	ChildIDs  []string  `json:"children"`
	PageIDs   []string  `json:"pages"`   // pages placed directly under the tag (no folder)
	FolderIDs []string  `json:"folders"` // top-level folders owned by the tag
	Collapsed bool      `json:"is_collapsed" db:"is_collapsed"`
	Archived  bool      `json:"deleted" db:"deleted"` // set on the archived tag only, never on descendants
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (t *Tag) Clone() *Tag {
	c := *t
	c.ParentID = cloneStringPtr(t.ParentID)
	c.ChildIDs = cloneStrings(t.ChildIDs)
	c.PageIDs = cloneStrings(t.PageIDs)
	c.FolderIDs = cloneStrings(t.FolderIDs)
	return &c
}
