package mutation

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"idealite/internal/domain"
	models "idealite/internal/domain/models/workspace"
	svc "idealite/internal/domain/services/workspace"
	"idealite/internal/workspace/hierarchy"
	"idealite/internal/workspace/naming"
)

// Engine builds intents. It holds no forest state of its own.
type Engine struct {
	newID func() string
	now   func() time.Time
}

type Option func(*Engine)

// WithIDGenerator overrides identifier assignment. IDs must be globally
// unique; the remote deduplicates creates by them.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

func WithClock(fn func() time.Time) Option {
	return func(e *Engine) { e.now = fn }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// requireActiveTag returns kind when the tag is missing or archived (directly
// or through an ancestor). Corrupt ancestry is reported as ErrCycleDetected
// rather than hidden behind kind.
func requireActiveTag(f *models.Forest, id string, kind error) error {
	if _, ok := f.Tag(id); !ok {
		return fmt.Errorf("tag %s: %w", id, kind)
	}
	if _, err := hierarchy.AncestorChain(f, id); err != nil {
		return err
	}
	if hierarchy.IsArchived(f, id) {
		return fmt.Errorf("tag %s: %w", id, kind)
	}
	return nil
}

// ownedFolder returns the folder if it exists and belongs to tagID.
func ownedFolder(f *models.Forest, tagID string, folderID string) (*models.Folder, bool) {
	fo, ok := f.Folder(folderID)
	if !ok || fo.TagID != tagID {
		return nil, false
	}
	return fo, true
}

// CreatePage plans a new page in container c.
func (e *Engine) CreatePage(f *models.Forest, c models.ContainerRef, kind models.PageKind) (*Intent, error) {
	if kind == "" {
		kind = models.PageKindPage
	}
	if !kind.Valid() {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("invalid page kind %q", kind)}
	}

	if err := requireActiveTag(f, c.TagID, domain.ErrContainerNotFound); err != nil {
		return nil, err
	}
	var folder *models.Folder
	if c.FolderID != nil {
		fo, ok := ownedFolder(f, c.TagID, *c.FolderID)
		if !ok {
			return nil, fmt.Errorf("folder %s in tag %s: %w", *c.FolderID, c.TagID, domain.ErrContainerNotFound)
		}
		folder = fo
	}

	chain, err := hierarchy.AncestorChain(f, c.TagID)
	if err != nil {
		return nil, err
	}

	pageIDs, _ := f.ContainerPageIDs(c)
	titles := make([]string, 0, len(pageIDs))
	for _, id := range pageIDs {
		if p, ok := f.Page(id); ok && !p.Archived {
			titles = append(titles, p.Title)
		}
	}

	page := &models.Page{
		ID:              e.newID(),
		Title:           naming.NextUntitledName(titles),
		Kind:            kind,
		PrimaryTagID:    c.TagID,
		FolderID:        c.FolderID,
		Hierarchy:       chain,
		SecondaryTagIDs: []string{},
		CreatedAt:       e.now(),
	}
	page = page.Clone()

	in := &Intent{
		Op:      OpCreatePage,
		Target:  models.PageNode(page.ID),
		Touched: []models.NodeRef{c.ContainerNode(), models.PageNode(page.ID)},
		Guards:  []models.NodeRef{models.TagNode(c.TagID)},
		Page:    page,
		created: &models.NodeRef{Kind: models.NodeKindPage, ID: page.ID},
	}
	if folder != nil && folder.Collapsed {
		in.ExpandFolderID = &folder.ID
	}
	in.apply = func(f *models.Forest) {
		f.InsertPage(page.Clone())
	}
	in.send = func(ctx context.Context, r svc.Remote) (*svc.MutationResponse, error) {
		return r.CreatePage(ctx, &svc.CreatePageRequest{
			ID:        page.ID,
			Title:     page.Title,
			Kind:      page.Kind,
			TagID:     page.PrimaryTagID,
			FolderID:  page.FolderID,
			Hierarchy: page.Hierarchy,
		})
	}
	return in, nil
}

// CreateFolder plans a new folder under tagID, nested in parentFolderID when
// given. The parent must belong to the same tag.
func (e *Engine) CreateFolder(f *models.Forest, tagID string, parentFolderID *string) (*Intent, error) {
	if err := requireActiveTag(f, tagID, domain.ErrContainerNotFound); err != nil {
		return nil, err
	}

	c := models.TagContainer(tagID)
	var parent *models.Folder
	if parentFolderID != nil {
		fo, ok := ownedFolder(f, tagID, *parentFolderID)
		if !ok {
			return nil, fmt.Errorf("folder %s is not in tag %s: %w", *parentFolderID, tagID, domain.ErrInvalidParent)
		}
		parent = fo
		c = models.FolderContainer(tagID, fo.ID)
	}

	siblingIDs, _ := f.SiblingFolderIDs(c)
	names := make([]string, 0, len(siblingIDs))
	for _, id := range siblingIDs {
		if fo, ok := f.Folder(id); ok {
			names = append(names, fo.Name)
		}
	}

	folder := &models.Folder{
		ID:             e.newID(),
		TagID:          tagID,
		ParentFolderID: c.FolderID,
		Name:           naming.NextUntitledName(names),
		PageIDs:        []string{},
		ChildFolderIDs: []string{},
		CreatedAt:      e.now(),
	}
	folder = folder.Clone()

	in := &Intent{
		Op:      OpCreateFolder,
		Target:  models.FolderNode(folder.ID),
		Touched: []models.NodeRef{c.ContainerNode(), models.FolderNode(folder.ID)},
		Guards:  []models.NodeRef{models.TagNode(tagID)},
		Folder:  folder,
		created: &models.NodeRef{Kind: models.NodeKindFolder, ID: folder.ID},
	}
	if parent != nil && parent.Collapsed {
		in.ExpandFolderID = &parent.ID
	}
	in.apply = func(f *models.Forest) {
		f.InsertFolder(folder.Clone())
	}
	in.send = func(ctx context.Context, r svc.Remote) (*svc.MutationResponse, error) {
		return r.CreateFolder(ctx, &svc.CreateFolderRequest{
			ID:             folder.ID,
			Name:           folder.Name,
			TagID:          folder.TagID,
			ParentFolderID: folder.ParentFolderID,
		})
	}
	return in, nil
}

// DeleteTag plans archiving tagID. Only the tag's own flag is written;
// descendant tags and their pages become archived by ancestry.
func (e *Engine) DeleteTag(f *models.Forest, tagID string) (*Intent, error) {
	if err := requireActiveTag(f, tagID, domain.ErrContainerNotFound); err != nil {
		return nil, err
	}

	in := &Intent{
		Op:          OpDeleteTag,
		Target:      models.TagNode(tagID),
		Touched:     []models.NodeRef{models.TagNode(tagID)},
		ImpactCount: hierarchy.CountDescendantPages(f, tagID),
	}
	in.apply = func(f *models.Forest) {
		if t, ok := f.Tag(tagID); ok {
			t.Archived = true
		}
	}
	in.send = func(ctx context.Context, r svc.Remote) (*svc.MutationResponse, error) {
		return r.DeleteTag(ctx, &svc.DeleteTagRequest{TagID: tagID})
	}
	return in, nil
}

// MovePage plans relocating a page to dest. Moving to the current container
// is a no-op. Secondary tags are untouched.
func (e *Engine) MovePage(f *models.Forest, pageID string, dest models.ContainerRef) (*Intent, error) {
	p, ok := f.Page(pageID)
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("page %s not found", pageID)}
	}

	src := p.Container()
	if src.Equal(dest) {
		return &Intent{
			Op:     OpMovePage,
			Target: models.PageNode(pageID),
			NoOp:   true,
			Page:   p.Clone(),
		}, nil
	}

	if err := requireActiveTag(f, dest.TagID, domain.ErrInvalidDestination); err != nil {
		return nil, err
	}
	if dest.FolderID != nil {
		if _, ok := ownedFolder(f, dest.TagID, *dest.FolderID); !ok {
			return nil, fmt.Errorf("folder %s is not in tag %s: %w", *dest.FolderID, dest.TagID, domain.ErrInvalidDestination)
		}
	}

	chain, err := hierarchy.AncestorChain(f, dest.TagID)
	if err != nil {
		return nil, err
	}

	moved := p.Clone()
	moved.PrimaryTagID = dest.TagID
	moved.FolderID = nil
	if dest.FolderID != nil {
		id := *dest.FolderID
		moved.FolderID = &id
	}
	moved.Hierarchy = chain

	touched := []models.NodeRef{models.PageNode(pageID), src.ContainerNode(), dest.ContainerNode()}
	in := &Intent{
		Op:      OpMovePage,
		Target:  models.PageNode(pageID),
		Touched: touched,
		Guards:  []models.NodeRef{models.TagNode(dest.TagID)},
		Page:    moved,
	}
	in.apply = func(f *models.Forest) {
		cur, ok := f.Page(pageID)
		if !ok {
			return
		}
		f.RelinkPage(cur, dest)
		cur.Hierarchy = slices.Clone(chain)
	}
	in.send = func(ctx context.Context, r svc.Remote) (*svc.MutationResponse, error) {
		return r.MovePage(ctx, &svc.MovePageRequest{
			PageID:              pageID,
			DestinationTagID:    dest.TagID,
			DestinationFolderID: dest.FolderID,
		})
	}
	return in, nil
}

// SetCollapsed plans a presentation flag change on a tag or folder. Setting
// the current value is a no-op.
func (e *Engine) SetCollapsed(f *models.Forest, node models.NodeRef, collapsed bool) (*Intent, error) {
	var current bool
	switch node.Kind {
	case models.NodeKindTag:
		t, ok := f.Tag(node.ID)
		if !ok {
			return nil, fmt.Errorf("tag %s: %w", node.ID, domain.ErrContainerNotFound)
		}
		current = t.Collapsed
	case models.NodeKindFolder:
		fo, ok := f.Folder(node.ID)
		if !ok {
			return nil, fmt.Errorf("folder %s: %w", node.ID, domain.ErrContainerNotFound)
		}
		current = fo.Collapsed
	default:
		return nil, &domain.ValidationError{Message: fmt.Sprintf("%s cannot be collapsed", node)}
	}

	in := &Intent{
		Op:     OpSetCollapsed,
		Target: node,
		NoOp:   current == collapsed,
	}
	if in.NoOp {
		return in, nil
	}
	in.Touched = []models.NodeRef{node}
	in.apply = func(f *models.Forest) {
		switch node.Kind {
		case models.NodeKindTag:
			if t, ok := f.Tag(node.ID); ok {
				t.Collapsed = collapsed
			}
		case models.NodeKindFolder:
			if fo, ok := f.Folder(node.ID); ok {
				fo.Collapsed = collapsed
			}
		}
	}
	in.send = func(ctx context.Context, r svc.Remote) (*svc.MutationResponse, error) {
		return r.SetCollapsed(ctx, &svc.SetCollapsedRequest{
			Kind:      node.Kind,
			ID:        node.ID,
			Collapsed: collapsed,
		})
	}
	return in, nil
}
