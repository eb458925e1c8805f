package workspace

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idealite/internal/domain"
	models "idealite/internal/domain/models/workspace"
	"idealite/internal/domain/repositories"
	wsSvc "idealite/internal/domain/services/workspace"
)

const user = "user-1"

// memStore backs the in-memory repositories used by these tests. It keeps
// rows the way the SQL schema does: flat, with parent IDs.
type memStore struct {
	mu       sync.Mutex
	tags     []models.Tag
	folders  []models.Folder
	pages    []models.Page
	pageTags map[string][]string
}

type memTags struct{ s *memStore }
type memFolders struct{ s *memStore }
type memPages struct{ s *memStore }
type memTx struct{}

func (memTx) ExecTx(ctx context.Context, fn repositories.TxFn) error { return fn(ctx) }

func (r memTags) find(id string) *models.Tag {
	for i := range r.s.tags {
		if r.s.tags[i].ID == id {
			return &r.s.tags[i]
		}
	}
	return nil
}

func (r memTags) ListByUser(_ context.Context, _ string) ([]models.Tag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return slices.Clone(r.s.tags), nil
}

func (r memTags) GetByID(_ context.Context, id, _ string) (*models.Tag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t := r.find(id); t != nil {
		c := *t
		return &c, nil
	}
	return nil, fmt.Errorf("tag %s: %w", id, domain.ErrNotFound)
}

func (r memTags) Create(_ context.Context, _ string, tag *models.Tag) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.find(tag.ID) == nil {
		r.s.tags = append(r.s.tags, *tag)
	}
	return nil
}

func (r memTags) AncestorChain(_ context.Context, id, _ string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var chain []string
	for cur := r.find(id); cur != nil; {
		chain = append([]string{cur.ID}, chain...)
		if cur.ParentID == nil {
			break
		}
		cur = r.find(*cur.ParentID)
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("tag %s: %w", id, domain.ErrContainerNotFound)
	}
	return chain, nil
}

func (r memTags) SubtreeIDs(_ context.Context, id, _ string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := []string{id}
	for i := 0; i < len(ids); i++ {
		for _, t := range r.s.tags {
			if t.ParentID != nil && *t.ParentID == ids[i] {
				ids = append(ids, t.ID)
			}
		}
	}
	return ids, nil
}

func (r memTags) IsArchived(_ context.Context, id, _ string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur := r.find(id)
	if cur == nil {
		return false, fmt.Errorf("tag %s: %w", id, domain.ErrContainerNotFound)
	}
	for cur != nil {
		if cur.Archived {
			return true, nil
		}
		if cur.ParentID == nil {
			break
		}
		cur = r.find(*cur.ParentID)
	}
	return false, nil
}

func (r memTags) Archive(_ context.Context, id, _ string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t := r.find(id)
	if t == nil {
		return fmt.Errorf("tag %s: %w", id, domain.ErrContainerNotFound)
	}
	t.Archived = true
	return nil
}

func (r memTags) SetCollapsed(_ context.Context, id, _ string, collapsed bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t := r.find(id)
	if t == nil {
		return fmt.Errorf("tag %s: %w", id, domain.ErrContainerNotFound)
	}
	t.Collapsed = collapsed
	return nil
}

func (r memFolders) find(id string) *models.Folder {
	for i := range r.s.folders {
		if r.s.folders[i].ID == id {
			return &r.s.folders[i]
		}
	}
	return nil
}

func (r memFolders) ListByUser(_ context.Context, _ string) ([]models.Folder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return slices.Clone(r.s.folders), nil
}

func (r memFolders) GetByID(_ context.Context, id, _ string) (*models.Folder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if f := r.find(id); f != nil {
		c := *f
		return &c, nil
	}
	return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
}

func (r memFolders) Create(_ context.Context, _ string, folder *models.Folder) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.find(folder.ID) != nil {
		return false, nil
	}
	r.s.folders = append(r.s.folders, *folder)
	return true, nil
}

func (r memFolders) SetCollapsed(_ context.Context, id, _ string, collapsed bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f := r.find(id)
	if f == nil {
		return fmt.Errorf("folder %s: %w", id, domain.ErrContainerNotFound)
	}
	f.Collapsed = collapsed
	return nil
}

func (r memPages) find(id string) *models.Page {
	for i := range r.s.pages {
		if r.s.pages[i].ID == id {
			return &r.s.pages[i]
		}
	}
	return nil
}

func (r memPages) ListByUser(_ context.Context, _ string) ([]models.Page, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return slices.Clone(r.s.pages), nil
}

func (r memPages) GetByID(_ context.Context, id, _ string) (*models.Page, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p := r.find(id); p != nil {
		return p.Clone(), nil
	}
	return nil, fmt.Errorf("page %s: %w", id, domain.ErrNotFound)
}

func (r memPages) Create(_ context.Context, _ string, page *models.Page) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.find(page.ID) != nil {
		return false, nil
	}
	r.s.pages = append(r.s.pages, *page.Clone())
	r.s.pageTags[page.ID] = append([]string{page.PrimaryTagID}, page.SecondaryTagIDs...)
	return true, nil
}

func (r memPages) AddTag(_ context.Context, pageID, tagID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !slices.Contains(r.s.pageTags[pageID], tagID) {
		r.s.pageTags[pageID] = append(r.s.pageTags[pageID], tagID)
	}
	return nil
}

func (r memPages) Move(_ context.Context, _ string, page *models.Page) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := r.find(page.ID)
	if p == nil {
		return fmt.Errorf("page %s: %w", page.ID, domain.ErrNotFound)
	}
	tags := r.s.pageTags[p.ID]
	if i := slices.Index(tags, p.PrimaryTagID); i >= 0 {
		tags = slices.Delete(tags, i, i+1)
	}
	if !slices.Contains(tags, page.PrimaryTagID) {
		tags = append(tags, page.PrimaryTagID)
	}
	r.s.pageTags[p.ID] = tags
	p.PrimaryTagID = page.PrimaryTagID
	p.FolderID = page.FolderID
	p.Hierarchy = slices.Clone(page.Hierarchy)
	return nil
}

func (r memPages) CountInTags(_ context.Context, _ string, tagIDs []string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, p := range r.s.pages {
		if !p.Archived && slices.Contains(tagIDs, p.PrimaryTagID) {
			n++
		}
	}
	return n, nil
}

func (r memPages) ArchiveOrphans(_ context.Context, _ string, tagIDs []string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for i := range r.s.pages {
		p := &r.s.pages[i]
		if p.Archived || !slices.Contains(tagIDs, p.PrimaryTagID) {
			continue
		}
		orphan := true
		for _, tagID := range r.s.pageTags[p.ID] {
			if !slices.Contains(tagIDs, tagID) {
				orphan = false
			}
		}
		if orphan {
			p.Archived = true
			n++
		}
	}
	return n, nil
}

func ptr(s string) *string { return &s }

// newTestService seeds:
//
//	root (3 pages)
//	└── child (2 pages, one also tagged "keep")
//	keep (folder shelf)
func newTestService(t *testing.T) (*workspaceService, *memStore) {
	t.Helper()
	store := &memStore{pageTags: map[string][]string{}}
	store.tags = []models.Tag{
		{ID: "root", Name: "root"},
		{ID: "child", Name: "child", ParentID: ptr("root")},
		{ID: "keep", Name: "keep"},
	}
	store.folders = []models.Folder{
		{ID: "shelf", TagID: "keep", Name: "untitled"},
	}
	add := func(id, tag string, extra ...string) {
		store.pages = append(store.pages, models.Page{ID: id, Title: id, Kind: models.PageKindPage, PrimaryTagID: tag})
		store.pageTags[id] = append([]string{tag}, extra...)
	}
	add("r1", "root")
	add("r2", "root")
	add("r3", "root")
	add("c1", "child")
	add("c2", "child", "keep")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewWorkspaceService(memTags{store}, memFolders{store}, memPages{store}, memTx{}, logger)
	return svc.(*workspaceService), store
}

func TestGetTree(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.GetTree(context.Background(), user)
	require.NoError(t, err)
	assert.Len(t, resp.Forest.Tags, 3)
	require.Len(t, resp.Tree, 2)
	assert.Equal(t, "root", resp.Tree[0].ID)
	assert.Len(t, resp.Tree[0].Pages, 3)
	require.Len(t, resp.Tree[0].Children, 1)
	assert.Len(t, resp.Tree[0].Children[0].Pages, 2)
}

func TestCreatePage(t *testing.T) {
	svc, store := newTestService(t)
	id := uuid.NewString()

	page, err := svc.CreatePage(context.Background(), user, &wsSvc.CreatePageRequest{
		ID:    id,
		TagID: "child",
	})
	require.NoError(t, err)
	assert.Equal(t, "untitled", page.Title)
	assert.Equal(t, models.PageKindPage, page.Kind)
	assert.Equal(t, []string{"root", "child"}, page.Hierarchy)

	// Retrying returns the stored page instead of duplicating it
	again, err := svc.CreatePage(context.Background(), user, &wsSvc.CreatePageRequest{
		ID:    id,
		Title: "different",
		TagID: "child",
	})
	require.NoError(t, err)
	assert.Equal(t, "untitled", again.Title)
	assert.Len(t, store.pages, 6)
}

func TestCreatePage_Errors(t *testing.T) {
	svc, store := newTestService(t)
	store.tags = append(store.tags, models.Tag{ID: "gone", Name: "gone", Archived: true})

	tests := []struct {
		name string
		req  *wsSvc.CreatePageRequest
		want error
	}{
		{"missing id", &wsSvc.CreatePageRequest{TagID: "root"}, domain.ErrValidation},
		{"non uuid id", &wsSvc.CreatePageRequest{ID: "abc", TagID: "root"}, domain.ErrValidation},
		{"bad kind", &wsSvc.CreatePageRequest{ID: uuid.NewString(), TagID: "root", Kind: "doc"}, domain.ErrValidation},
		{"unknown tag", &wsSvc.CreatePageRequest{ID: uuid.NewString(), TagID: "nope"}, domain.ErrContainerNotFound},
		{"archived tag", &wsSvc.CreatePageRequest{ID: uuid.NewString(), TagID: "gone"}, domain.ErrContainerNotFound},
		{"folder of another tag", &wsSvc.CreatePageRequest{ID: uuid.NewString(), TagID: "root", FolderID: ptr("shelf")}, domain.ErrContainerNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePage(context.Background(), user, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// foreignPages hides one stored page, as if another user owned it
type foreignPages struct {
	memPages
	hidden string
}

func (r foreignPages) GetByID(ctx context.Context, id, userID string) (*models.Page, error) {
	if id == r.hidden {
		return nil, fmt.Errorf("page %s: %w", id, domain.ErrNotFound)
	}
	return r.memPages.GetByID(ctx, id, userID)
}

func TestCreatePage_IDOwnedElsewhere(t *testing.T) {
	_, store := newTestService(t)
	id := uuid.NewString()
	store.pages = append(store.pages, models.Page{ID: id, Title: "theirs", PrimaryTagID: "keep"})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewWorkspaceService(memTags{store}, memFolders{store}, foreignPages{memPages{store}, id}, memTx{}, logger)

	_, err := svc.CreatePage(context.Background(), user, &wsSvc.CreatePageRequest{ID: id, TagID: "root"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)

	var conflictErr *domain.ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, "page", conflictErr.ResourceType)
	assert.Equal(t, id, conflictErr.ResourceID)
}

func TestCreateFolder(t *testing.T) {
	svc, _ := newTestService(t)

	folder, err := svc.CreateFolder(context.Background(), user, &wsSvc.CreateFolderRequest{
		ID:    uuid.NewString(),
		TagID: "keep",
	})
	require.NoError(t, err)
	assert.Equal(t, "untitled 1", folder.Name)

	_, err = svc.CreateFolder(context.Background(), user, &wsSvc.CreateFolderRequest{
		ID:             uuid.NewString(),
		TagID:          "root",
		ParentFolderID: ptr("shelf"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidParent)
}

func TestDeleteTag_ArchivesOrphansOnly(t *testing.T) {
	svc, store := newTestService(t)

	result, err := svc.DeleteTag(context.Background(), user, &wsSvc.DeleteTagRequest{TagID: "root"})
	require.NoError(t, err)
	assert.Equal(t, 4, result.ArchivedPages, "c2 is still tagged keep")

	archived := map[string]bool{}
	for _, p := range store.pages {
		archived[p.ID] = p.Archived
	}
	assert.Equal(t, map[string]bool{"r1": true, "r2": true, "r3": true, "c1": true, "c2": false}, archived)
	assert.True(t, store.tags[0].Archived)
	assert.False(t, store.tags[1].Archived, "descendant flag is not written")

	// Retried delete is a no-op
	result, err = svc.DeleteTag(context.Background(), user, &wsSvc.DeleteTagRequest{TagID: "root"})
	require.NoError(t, err)
	assert.Zero(t, result.ArchivedPages)
}

func TestMovePage(t *testing.T) {
	svc, store := newTestService(t)

	page, err := svc.MovePage(context.Background(), user, &wsSvc.MovePageRequest{
		PageID:              "c2",
		DestinationTagID:    "keep",
		DestinationFolderID: ptr("shelf"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, page.Hierarchy)
	assert.Equal(t, "shelf", *page.FolderID)
	assert.Equal(t, []string{"keep"}, store.pageTags["c2"], "primary association replaced, no duplicate")

	_, err = svc.MovePage(context.Background(), user, &wsSvc.MovePageRequest{
		PageID:              "r1",
		DestinationTagID:    "root",
		DestinationFolderID: ptr("shelf"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidDestination)

	_, err = svc.MovePage(context.Background(), user, &wsSvc.MovePageRequest{
		PageID:           "missing",
		DestinationTagID: "root",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetCollapsed(t *testing.T) {
	svc, store := newTestService(t)

	require.NoError(t, svc.SetCollapsed(context.Background(), user, &wsSvc.SetCollapsedRequest{
		Kind: models.NodeKindFolder, ID: "shelf", Collapsed: true,
	}))
	assert.True(t, store.folders[0].Collapsed)

	err := svc.SetCollapsed(context.Background(), user, &wsSvc.SetCollapsedRequest{
		Kind: models.NodeKindPage, ID: "r1", Collapsed: true,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = svc.SetCollapsed(context.Background(), user, &wsSvc.SetCollapsedRequest{
		Kind: models.NodeKindTag, ID: "missing", Collapsed: true,
	})
	assert.ErrorIs(t, err, domain.ErrContainerNotFound)
}
