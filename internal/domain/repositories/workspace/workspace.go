package workspace

import (
	"context"

	models "idealite/internal/domain/models/workspace"
)

// TagRepository defines data access for a user's tag forest
type TagRepository interface {
	// ListByUser returns every tag, archived ones included, in creation order
	ListByUser(ctx context.Context, userID string) ([]models.Tag, error)

	GetByID(ctx context.Context, id, userID string) (*models.Tag, error)

	// Create inserts a tag. Re-inserting an existing ID is a no-op.
	Create(ctx context.Context, userID string, tag *models.Tag) error

	// AncestorChain returns the root-first chain of tag IDs ending with id,
	// computed with a recursive CTE. ErrCycleDetected if the walk exceeds
	// MaxHierarchyDepth.
	AncestorChain(ctx context.Context, id, userID string) ([]string, error)

	// SubtreeIDs returns id and all of its descendant tag IDs
	SubtreeIDs(ctx context.Context, id, userID string) ([]string, error)

	// IsArchived reports whether the tag or any ancestor is deleted
	IsArchived(ctx context.Context, id, userID string) (bool, error)

	// Archive sets the deleted flag on this tag only
	Archive(ctx context.Context, id, userID string) error

	SetCollapsed(ctx context.Context, id, userID string, collapsed bool) error
}

// FolderRepository defines data access for folders
type FolderRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Folder, error)

	GetByID(ctx context.Context, id, userID string) (*models.Folder, error)

	// Create inserts a folder and reports whether a row was written. An
	// existing ID leaves the stored folder untouched.
	Create(ctx context.Context, userID string, folder *models.Folder) (bool, error)

	SetCollapsed(ctx context.Context, id, userID string, collapsed bool) error
}

// PageRepository defines data access for pages and their tag associations
type PageRepository interface {
	// ListByUser returns every page with its secondary tag IDs
	ListByUser(ctx context.Context, userID string) ([]models.Page, error)

	GetByID(ctx context.Context, id, userID string) (*models.Page, error)

	// Create inserts the page and its primary tag association. An existing
	// ID leaves the stored page untouched and returns false.
	Create(ctx context.Context, userID string, page *models.Page) (bool, error)

	// AddTag attaches a secondary tag
	AddTag(ctx context.Context, pageID, tagID string) error

	// Move replaces the primary placement and hierarchy. Secondary
	// associations are kept.
	Move(ctx context.Context, userID string, page *models.Page) error

	// CountInTags counts distinct active pages whose primary tag is in tagIDs
	CountInTags(ctx context.Context, userID string, tagIDs []string) (int, error)

	// ArchiveOrphans archives pages whose every tag association lies within
	// tagIDs and returns how many were archived
	ArchiveOrphans(ctx context.Context, userID string, tagIDs []string) (int, error)
}
