// Package workspace is the server side of the workspace tree: it persists the
// remote operations the client engine reconciles against.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"idealite/internal/domain"
	models "idealite/internal/domain/models/workspace"
	"idealite/internal/domain/repositories"
	wsRepo "idealite/internal/domain/repositories/workspace"
	wsSvc "idealite/internal/domain/services/workspace"
	"idealite/internal/workspace/hierarchy"
	"idealite/internal/workspace/naming"
)

type workspaceService struct {
	tagRepo    wsRepo.TagRepository
	folderRepo wsRepo.FolderRepository
	pageRepo   wsRepo.PageRepository
	txManager  repositories.TransactionManager
	logger     *slog.Logger
	now        func() time.Time
}

// NewWorkspaceService creates a new workspace service
func NewWorkspaceService(
	tagRepo wsRepo.TagRepository,
	folderRepo wsRepo.FolderRepository,
	pageRepo wsRepo.PageRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) wsSvc.WorkspaceService {
	return &workspaceService{
		tagRepo:    tagRepo,
		folderRepo: folderRepo,
		pageRepo:   pageRepo,
		txManager:  txManager,
		logger:     logger,
		now:        time.Now,
	}
}

// GetTree loads tags, folders and pages concurrently and links them with the
// multi-pass forest build.
func (s *workspaceService) GetTree(ctx context.Context, userID string) (*wsSvc.TreeResponse, error) {
	var (
		tags    []models.Tag
		folders []models.Folder
		pages   []models.Page
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tags, err = s.tagRepo.ListByUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		folders, err = s.folderRepo.ListByUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		pages, err = s.pageRepo.ListByUser(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load workspace: %w", err)
	}

	forest := models.NewForestFrom(tags, folders, pages)
	return &wsSvc.TreeResponse{
		Forest: forest,
		Tree:   hierarchy.ActiveTree(forest),
	}, nil
}

func (s *workspaceService) CreatePage(ctx context.Context, userID string, req *wsSvc.CreatePageRequest) (*models.Page, error) {
	if err := validateCreatePage(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if req.Kind == "" {
		req.Kind = models.PageKindPage
	}
	if req.FolderID != nil && *req.FolderID == "" {
		req.FolderID = nil
	}

	var page *models.Page
	created := false
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		// Retried create: hand back what is stored
		existing, err := s.pageRepo.GetByID(txCtx, req.ID, userID)
		if err == nil {
			page = existing
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		if err := s.requireActiveTag(txCtx, req.TagID, userID, domain.ErrContainerNotFound); err != nil {
			return err
		}
		container := models.TagContainer(req.TagID)
		if req.FolderID != nil {
			if err := s.requireOwnedFolder(txCtx, *req.FolderID, req.TagID, userID, domain.ErrContainerNotFound); err != nil {
				return err
			}
			container = models.FolderContainer(req.TagID, *req.FolderID)
		}

		chain, err := s.tagRepo.AncestorChain(txCtx, req.TagID, userID)
		if err != nil {
			return err
		}
		if len(req.Hierarchy) > 0 && !slices.Equal(req.Hierarchy, chain) {
			s.logger.Debug("client hierarchy differs from stored tree",
				"page_id", req.ID,
				"client", req.Hierarchy,
				"server", chain,
			)
		}

		title := req.Title
		if title == "" {
			title, err = s.nextPageTitle(txCtx, userID, container)
			if err != nil {
				return err
			}
		}

		page = &models.Page{
			ID:              req.ID,
			Title:           title,
			Kind:            req.Kind,
			PrimaryTagID:    req.TagID,
			FolderID:        req.FolderID,
			Hierarchy:       chain,
			SecondaryTagIDs: []string{},
			CreatedAt:       s.now(),
		}
		created, err = s.pageRepo.Create(txCtx, userID, page)
		if err == nil && !created {
			// The ID is taken by a row this user cannot see
			return &domain.ConflictError{
				Message:      fmt.Sprintf("page id %s is already in use", req.ID),
				ResourceType: "page",
				ResourceID:   req.ID,
			}
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if created {
		s.logger.Info("page created",
			"id", page.ID,
			"title", page.Title,
			"tag_id", page.PrimaryTagID,
			"folder_id", page.FolderID,
			"hierarchy", page.Hierarchy,
		)
	}
	return page, nil
}

func (s *workspaceService) CreateFolder(ctx context.Context, userID string, req *wsSvc.CreateFolderRequest) (*models.Folder, error) {
	if err := validateCreateFolder(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if req.ParentFolderID != nil && *req.ParentFolderID == "" {
		req.ParentFolderID = nil
	}

	var folder *models.Folder
	created := false
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		existing, err := s.folderRepo.GetByID(txCtx, req.ID, userID)
		if err == nil {
			folder = existing
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		if err := s.requireActiveTag(txCtx, req.TagID, userID, domain.ErrContainerNotFound); err != nil {
			return err
		}
		if req.ParentFolderID != nil {
			if err := s.requireOwnedFolder(txCtx, *req.ParentFolderID, req.TagID, userID, domain.ErrInvalidParent); err != nil {
				return err
			}
		}

		name := req.Name
		if name == "" {
			name, err = s.nextFolderName(txCtx, userID, req.TagID, req.ParentFolderID)
			if err != nil {
				return err
			}
		}

		folder = &models.Folder{
			ID:             req.ID,
			TagID:          req.TagID,
			ParentFolderID: req.ParentFolderID,
			Name:           name,
			PageIDs:        []string{},
			ChildFolderIDs: []string{},
			CreatedAt:      s.now(),
		}
		created, err = s.folderRepo.Create(txCtx, userID, folder)
		if err == nil && !created {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("folder id %s is already in use", req.ID),
				ResourceType: "folder",
				ResourceID:   req.ID,
			}
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if created {
		s.logger.Info("folder created",
			"id", folder.ID,
			"name", folder.Name,
			"tag_id", folder.TagID,
			"parent_folder_id", folder.ParentFolderID,
		)
	}
	return folder, nil
}

// DeleteTag archives the tag and every page that has no association outside
// the tag's subtree. Descendant tags keep their own flag unset.
func (s *workspaceService) DeleteTag(ctx context.Context, userID string, req *wsSvc.DeleteTagRequest) (*wsSvc.DeleteTagResult, error) {
	if req.TagID == "" {
		return nil, &domain.ValidationError{Message: "tag id is required"}
	}

	result := &wsSvc.DeleteTagResult{TagID: req.TagID}
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		archived, err := s.tagRepo.IsArchived(txCtx, req.TagID, userID)
		if err != nil {
			return err
		}
		if archived {
			// Already archived: a retried call succeeds without changes
			return nil
		}

		subtree, err := s.tagRepo.SubtreeIDs(txCtx, req.TagID, userID)
		if err != nil {
			return err
		}
		if err := s.tagRepo.Archive(txCtx, req.TagID, userID); err != nil {
			return err
		}
		result.ArchivedPages, err = s.pageRepo.ArchiveOrphans(txCtx, userID, subtree)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tag archived",
		"tag_id", req.TagID,
		"archived_pages", result.ArchivedPages,
	)
	return result, nil
}

func (s *workspaceService) MovePage(ctx context.Context, userID string, req *wsSvc.MovePageRequest) (*models.Page, error) {
	if err := validateMovePage(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if req.DestinationFolderID != nil && *req.DestinationFolderID == "" {
		req.DestinationFolderID = nil
	}
	dest := models.ContainerRef{TagID: req.DestinationTagID, FolderID: req.DestinationFolderID}

	var page *models.Page
	moved := false
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		var err error
		page, err = s.pageRepo.GetByID(txCtx, req.PageID, userID)
		if err != nil {
			return err
		}
		if page.Container().Equal(dest) {
			return nil
		}

		if err := s.requireActiveTag(txCtx, dest.TagID, userID, domain.ErrInvalidDestination); err != nil {
			return err
		}
		if dest.FolderID != nil {
			if err := s.requireOwnedFolder(txCtx, *dest.FolderID, dest.TagID, userID, domain.ErrInvalidDestination); err != nil {
				return err
			}
		}

		chain, err := s.tagRepo.AncestorChain(txCtx, dest.TagID, userID)
		if err != nil {
			return err
		}
		page.PrimaryTagID = dest.TagID
		page.FolderID = dest.FolderID
		page.Hierarchy = chain
		moved = true
		return s.pageRepo.Move(txCtx, userID, page)
	})
	if err != nil {
		return nil, err
	}

	if moved {
		s.logger.Info("page moved",
			"id", page.ID,
			"tag_id", page.PrimaryTagID,
			"folder_id", page.FolderID,
			"hierarchy", page.Hierarchy,
		)
	}
	return page, nil
}

func (s *workspaceService) SetCollapsed(ctx context.Context, userID string, req *wsSvc.SetCollapsedRequest) error {
	if err := validateSetCollapsed(req); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var err error
	switch req.Kind {
	case models.NodeKindTag:
		err = s.tagRepo.SetCollapsed(ctx, req.ID, userID, req.Collapsed)
	case models.NodeKindFolder:
		err = s.folderRepo.SetCollapsed(ctx, req.ID, userID, req.Collapsed)
	}
	if err != nil {
		return err
	}

	s.logger.Debug("collapsed state saved",
		"kind", req.Kind,
		"id", req.ID,
		"collapsed", req.Collapsed,
	)
	return nil
}

// requireActiveTag returns kind when the tag is missing or archived.
func (s *workspaceService) requireActiveTag(ctx context.Context, tagID, userID string, kind error) error {
	archived, err := s.tagRepo.IsArchived(ctx, tagID, userID)
	if err != nil {
		if errorsIsNotFound(err) {
			return fmt.Errorf("tag %s: %w", tagID, kind)
		}
		return err
	}
	if archived {
		return fmt.Errorf("tag %s is archived: %w", tagID, kind)
	}
	return nil
}

// requireOwnedFolder returns kind when the folder is missing or belongs to
// another tag.
func (s *workspaceService) requireOwnedFolder(ctx context.Context, folderID, tagID, userID string, kind error) error {
	folder, err := s.folderRepo.GetByID(ctx, folderID, userID)
	if err != nil {
		if errorsIsNotFound(err) {
			return fmt.Errorf("folder %s: %w", folderID, kind)
		}
		return err
	}
	if folder.TagID != tagID {
		return fmt.Errorf("folder %s is not in tag %s: %w", folderID, tagID, kind)
	}
	return nil
}

func (s *workspaceService) nextPageTitle(ctx context.Context, userID string, c models.ContainerRef) (string, error) {
	pages, err := s.pageRepo.ListByUser(ctx, userID)
	if err != nil {
		return "", err
	}
	var titles []string
	for _, p := range pages {
		if !p.Archived && p.Container().Equal(c) {
			titles = append(titles, p.Title)
		}
	}
	return naming.NextUntitledName(titles), nil
}

func (s *workspaceService) nextFolderName(ctx context.Context, userID, tagID string, parentFolderID *string) (string, error) {
	folders, err := s.folderRepo.ListByUser(ctx, userID)
	if err != nil {
		return "", err
	}
	var names []string
	for _, f := range folders {
		if f.TagID == tagID && models.StringPtrEqual(f.ParentFolderID, parentFolderID) {
			names = append(names, f.Name)
		}
	}
	return naming.NextUntitledName(names), nil
}
