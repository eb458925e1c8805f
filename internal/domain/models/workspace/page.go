package workspace

import "time"

type PageKind string

const (
	PageKindPage   PageKind = "page"
	PageKindCanvas PageKind = "canvas"
)

func (k PageKind) Valid() bool {
	return k == PageKindPage || k == PageKindCanvas
}

// Page is a leaf content unit. Hierarchy caches the root-first chain of tag
// IDs ending with PrimaryTagID; it is recomputed whenever the primary tag changes.
type Page struct {
	ID              string    `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	Kind            PageKind  `json:"kind" db:"kind"`
	PrimaryTagID    string    `json:"primary_tag_id" db:"primary_tag_id"`
	FolderID        *string   `json:"folder_id" db:"folder_id"` // NULL = directly under the primary tag
	Hierarchy       []string  `json:"hierarchy" db:"hierarchy"`
	SecondaryTagIDs []string  `json:"secondary_tag_ids,omitempty"`
	Archived        bool      `json:"archived" db:"archived"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

func (p *Page) Clone() *Page {
	c := *p
	c.FolderID = cloneStringPtr(p.FolderID)
	c.Hierarchy = cloneStrings(p.Hierarchy)
	c.SecondaryTagIDs = cloneStrings(p.SecondaryTagIDs)
	return &c
}

// Container returns the page's current placement.
func (p *Page) Container() ContainerRef {
	return ContainerRef{TagID: p.PrimaryTagID, FolderID: cloneStringPtr(p.FolderID)}
}
