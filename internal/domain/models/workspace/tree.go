package workspace

// TreeTag is the nested, presentation-facing view of an active tag.
type TreeTag struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	IsCollapsed bool          `json:"is_collapsed"`
	Pages       []TreePage    `json:"pages"`
	Folders     []*TreeFolder `json:"folders"`
	Children    []*TreeTag    `json:"children"`
}

// TreeFolder is a folder with its nested folders and pages.
type TreeFolder struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	IsCollapsed bool          `json:"is_collapsed"`
	Pages       []TreePage    `json:"pages"`
	Folders     []*TreeFolder `json:"folders"`
}

// TreePage is page metadata for tree display.
type TreePage struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Kind         PageKind `json:"kind"`
	FolderID     *string  `json:"folder_id"`
	PrimaryTagID string   `json:"primary_tag_id"`
}
