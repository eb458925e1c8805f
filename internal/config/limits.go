package config

const (
	// MaxTagNameLength is the maximum length for tag names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxTagNameLength = 255

	// MaxPageTitleLength is the maximum length for page titles.
	MaxPageTitleLength = 255

	// MaxFolderNameLength is the maximum length for folder names.
	// Same as page titles for consistency.
	MaxFolderNameLength = 255

	// MaxHierarchyDepth bounds the ancestor chain stored on a page.
	// Deeper tag trees are rejected by the server as corrupt input.
	MaxHierarchyDepth = 64
)
