package workspace

import (
	"context"

	models "idealite/internal/domain/models/workspace"
)

// Remote is the source of truth the tree engine reconciles against. Every
// operation is safe to retry: creates are deduplicated by the client-assigned
// ID, the others are idempotent.
//
// A non-nil error is a transport failure. A response with Success=false is a
// server-reported failure. Both roll back the optimistic change.
type Remote interface {
	CreatePage(ctx context.Context, req *CreatePageRequest) (*MutationResponse, error)
	CreateFolder(ctx context.Context, req *CreateFolderRequest) (*MutationResponse, error)
	DeleteTag(ctx context.Context, req *DeleteTagRequest) (*MutationResponse, error)
	MovePage(ctx context.Context, req *MovePageRequest) (*MutationResponse, error)
	SetCollapsed(ctx context.Context, req *SetCollapsedRequest) (*MutationResponse, error)
}

// ForestSource loads a user's full forest, used to seed a session.
type ForestSource interface {
	FetchForest(ctx context.Context) (*models.Forest, error)
}

// CreatePageRequest represents a page creation payload
type CreatePageRequest struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Kind      models.PageKind `json:"kind"`
	TagID     string          `json:"tag_id"`
	FolderID  *string         `json:"folder_id"`
	Hierarchy []string        `json:"hierarchy"`
}

// CreateFolderRequest represents a folder creation payload
type CreateFolderRequest struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	TagID          string  `json:"tag_id"`
	ParentFolderID *string `json:"parent_folder_id"`
}

// DeleteTagRequest archives a tag. TagID travels in the URL path.
type DeleteTagRequest struct {
	TagID string `json:"-"`
}

// MovePageRequest relocates a page. PageID travels in the URL path.
type MovePageRequest struct {
	PageID              string  `json:"-"`
	DestinationTagID    string  `json:"destination_tag_id"`
	DestinationFolderID *string `json:"destination_folder_id"`
}

// SetCollapsedRequest persists a tag or folder expansion state
type SetCollapsedRequest struct {
	Kind      models.NodeKind `json:"kind"`
	ID        string          `json:"id"`
	Collapsed bool            `json:"collapsed"`
}

// MutationResponse is the wire result of every remote mutation:
// {success, id} or {success: false, error}.
type MutationResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}
