package workspace

import (
	"context"

	models "idealite/internal/domain/models/workspace"
)

// WorkspaceService is the server-side implementation of the remote
// operations, scoped to one authenticated user per call.
type WorkspaceService interface {
	// GetTree loads the user's forest and its active nested view
	GetTree(ctx context.Context, userID string) (*TreeResponse, error)

	CreatePage(ctx context.Context, userID string, req *CreatePageRequest) (*models.Page, error)
	CreateFolder(ctx context.Context, userID string, req *CreateFolderRequest) (*models.Folder, error)

	// DeleteTag archives the tag and its orphaned pages
	DeleteTag(ctx context.Context, userID string, req *DeleteTagRequest) (*DeleteTagResult, error)

	// MovePage changes the primary placement and recomputes the hierarchy
	MovePage(ctx context.Context, userID string, req *MovePageRequest) (*models.Page, error)

	SetCollapsed(ctx context.Context, userID string, req *SetCollapsedRequest) error
}

// TreeResponse carries the flat forest (for clients that keep an arena) and
// the nested active view (for display).
type TreeResponse struct {
	Forest *models.Forest    `json:"forest"`
	Tree   []*models.TreeTag `json:"tree"`
}

// DeleteTagResult reports how many pages were archived with the tag.
type DeleteTagResult struct {
	TagID         string `json:"tag_id"`
	ArchivedPages int    `json:"archived_pages"`
}
