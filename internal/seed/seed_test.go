package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idealite/internal/domain"
	models "idealite/internal/domain/models/workspace"
	"idealite/internal/domain/repositories"
	"idealite/internal/workspace/hierarchy"
)

var epoch = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func tagByName(t *testing.T, f *models.Forest, name string) *models.Tag {
	t.Helper()
	for _, tag := range f.Tags {
		if tag.Name == name {
			return tag
		}
	}
	t.Fatalf("tag %q not found", name)
	return nil
}

func pageByTitle(t *testing.T, f *models.Forest, title string) *models.Page {
	t.Helper()
	for _, p := range f.Pages {
		if p.Title == title {
			return p
		}
	}
	t.Fatalf("page %q not found", title)
	return nil
}

func TestLoadDefaultFixture(t *testing.T) {
	fx, err := Load(DefaultFixture)
	require.NoError(t, err)

	f, err := Build(fx, "user-1", epoch)
	require.NoError(t, err)

	require.Len(t, f.RootIDs, 4)
	assert.Equal(t, "research", f.Tags[f.RootIDs[0]].Name)

	indexing := tagByName(t, f, "indexing")
	assert.True(t, indexing.Collapsed)

	btrees := pageByTitle(t, f, "b-trees")
	assert.Equal(t, []string{
		tagByName(t, f, "research").ID,
		tagByName(t, f, "databases").ID,
		indexing.ID,
	}, btrees.Hierarchy)

	raft := pageByTitle(t, f, "raft")
	require.NotNil(t, raft.FolderID)
	assert.Equal(t, "to review", f.Folders[*raft.FolderID].Name)
	assert.Equal(t, []string{tagByName(t, f, "databases").ID}, raft.SecondaryTagIDs)

	assert.Equal(t, models.PageKindCanvas, pageByTitle(t, f, "query planning").Kind)
	assert.Equal(t, "2026", f.Folders[*pageByTitle(t, f, "october").FolderID].Name)

	old := tagByName(t, f, "old projects")
	assert.True(t, old.Archived)
	assert.True(t, hierarchy.IsArchived(f, tagByName(t, f, "prototypes").ID))
}

func TestBuild_StableIDs(t *testing.T) {
	fx, err := Load(DefaultFixture)
	require.NoError(t, err)

	a, err := Build(fx, "user-1", epoch)
	require.NoError(t, err)
	b, err := Build(fx, "user-1", epoch.Add(time.Hour))
	require.NoError(t, err)
	c, err := Build(fx, "user-2", epoch)
	require.NoError(t, err)

	assert.Equal(t, a.RootIDs, b.RootIDs)
	assert.NotEqual(t, a.RootIDs, c.RootIDs)
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown secondary tag",
			yaml: "tags:\n  - name: a\n    pages:\n      - title: p\n        tags: [missing]\n",
			want: `unknown tag "missing"`,
		},
		{
			name: "duplicate tag name",
			yaml: "tags:\n  - name: a\n  - name: a\n",
			want: `duplicate tag name "a"`,
		},
		{
			name: "unnamed folder",
			yaml: "tags:\n  - name: a\n    folders:\n      - pages: []\n",
			want: "has no name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)
			_, err = Build(fx, "u", epoch)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("tags: [\n"))
	require.Error(t, err)
}

// memRepos records writes and enforces parent-before-child ordering
type memRepos struct {
	tags    map[string]*models.Tag
	folders map[string]*models.Folder
	pages   map[string]*models.Page
	order   []string
}

func newMemRepos() *memRepos {
	return &memRepos{
		tags:    make(map[string]*models.Tag),
		folders: make(map[string]*models.Folder),
		pages:   make(map[string]*models.Page),
	}
}

type memTags struct{ *memRepos }
type memFolders struct{ *memRepos }
type memPages struct{ *memRepos }

func (m memTags) ListByUser(ctx context.Context, userID string) ([]models.Tag, error) {
	return nil, nil
}

func (m memTags) GetByID(ctx context.Context, id, userID string) (*models.Tag, error) {
	if t, ok := m.tags[id]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("tag %s: %w", id, domain.ErrNotFound)
}

func (m memTags) Create(ctx context.Context, userID string, tag *models.Tag) error {
	if tag.ParentID != nil {
		if _, ok := m.tags[*tag.ParentID]; !ok {
			return domain.ErrInvalidParent
		}
	}
	m.tags[tag.ID] = tag
	m.order = append(m.order, "tag:"+tag.Name)
	return nil
}

func (m memTags) AncestorChain(ctx context.Context, id, userID string) ([]string, error) {
	return nil, nil
}

func (m memTags) SubtreeIDs(ctx context.Context, id, userID string) ([]string, error) {
	return nil, nil
}

func (m memTags) IsArchived(ctx context.Context, id, userID string) (bool, error) {
	return false, nil
}

func (m memTags) Archive(ctx context.Context, id, userID string) error { return nil }

func (m memTags) SetCollapsed(ctx context.Context, id, userID string, collapsed bool) error {
	return nil
}

func (m memFolders) ListByUser(ctx context.Context, userID string) ([]models.Folder, error) {
	return nil, nil
}

func (m memFolders) GetByID(ctx context.Context, id, userID string) (*models.Folder, error) {
	return nil, domain.ErrNotFound
}

func (m memFolders) Create(ctx context.Context, userID string, folder *models.Folder) (bool, error) {
	if _, ok := m.tags[folder.TagID]; !ok {
		return false, domain.ErrContainerNotFound
	}
	if folder.ParentFolderID != nil {
		if _, ok := m.folders[*folder.ParentFolderID]; !ok {
			return false, domain.ErrInvalidParent
		}
	}
	if _, ok := m.folders[folder.ID]; ok {
		return false, nil
	}
	m.folders[folder.ID] = folder
	return true, nil
}

func (m memFolders) SetCollapsed(ctx context.Context, id, userID string, collapsed bool) error {
	return nil
}

func (m memPages) ListByUser(ctx context.Context, userID string) ([]models.Page, error) {
	return nil, nil
}

func (m memPages) GetByID(ctx context.Context, id, userID string) (*models.Page, error) {
	return nil, domain.ErrNotFound
}

func (m memPages) Create(ctx context.Context, userID string, page *models.Page) (bool, error) {
	if _, ok := m.tags[page.PrimaryTagID]; !ok {
		return false, domain.ErrContainerNotFound
	}
	if page.FolderID != nil {
		if _, ok := m.folders[*page.FolderID]; !ok {
			return false, domain.ErrContainerNotFound
		}
	}
	for _, id := range page.SecondaryTagIDs {
		if _, ok := m.tags[id]; !ok {
			return false, domain.ErrContainerNotFound
		}
	}
	if _, ok := m.pages[page.ID]; ok {
		return false, nil
	}
	m.pages[page.ID] = page
	return true, nil
}

func (m memPages) AddTag(ctx context.Context, pageID, tagID string) error { return nil }

func (m memPages) Move(ctx context.Context, userID string, page *models.Page) error { return nil }

func (m memPages) CountInTags(ctx context.Context, userID string, tagIDs []string) (int, error) {
	return 0, nil
}

func (m memPages) ArchiveOrphans(ctx context.Context, userID string, tagIDs []string) (int, error) {
	return 0, nil
}

type passTx struct{}

func (passTx) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

func TestSeeder_Seed(t *testing.T) {
	fx, err := Load(DefaultFixture)
	require.NoError(t, err)
	f, err := Build(fx, "user-1", epoch)
	require.NoError(t, err)

	repos := newMemRepos()
	s := NewSeeder(memTags{repos}, memFolders{repos}, memPages{repos}, passTx{},
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	stats, err := s.Seed(context.Background(), "user-1", f)
	require.NoError(t, err)
	assert.Equal(t, len(f.Tags), stats.Tags)
	assert.Equal(t, len(f.Folders), stats.Folders)
	assert.Equal(t, len(f.Pages), stats.Pages)
	assert.Equal(t, "tag:research", repos.order[0])

	// Seeding again writes nothing
	stats, err = s.Seed(context.Background(), "user-1", f)
	require.NoError(t, err)
	assert.Equal(t, &Stats{}, stats)
}
