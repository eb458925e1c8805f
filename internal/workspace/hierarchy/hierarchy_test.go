package hierarchy

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idealite/internal/domain"
	models "idealite/internal/domain/models/workspace"
)

func ptr(s string) *string { return &s }

// buildForest:
//
//	science
//	├── physics
//	│   └── quantum
//	└── biology
//	art
func buildForest() *models.Forest {
	return models.NewForestFrom(
		[]models.Tag{
			{ID: "science", Name: "science"},
			{ID: "physics", Name: "physics", ParentID: ptr("science")},
			{ID: "quantum", Name: "quantum", ParentID: ptr("physics")},
			{ID: "biology", Name: "biology", ParentID: ptr("science")},
			{ID: "art", Name: "art"},
		},
		[]models.Folder{
			{ID: "lab", TagID: "physics", Name: "lab"},
			{ID: "old", TagID: "physics", ParentFolderID: ptr("lab"), Name: "old"},
		},
		[]models.Page{
			{ID: "p1", PrimaryTagID: "science"},
			{ID: "p2", PrimaryTagID: "physics"},
			{ID: "p3", PrimaryTagID: "physics", FolderID: ptr("lab")},
			{ID: "p4", PrimaryTagID: "physics", FolderID: ptr("old")},
			{ID: "p5", PrimaryTagID: "quantum"},
			{ID: "p6", PrimaryTagID: "art"},
		},
	)
}

func TestFindNode(t *testing.T) {
	f := buildForest()

	tag, ok := FindNode(f, "quantum")
	require.True(t, ok)
	assert.Equal(t, "quantum", tag.Name)

	_, ok = FindNode(f, "missing")
	assert.False(t, ok)
}

func TestFindParent(t *testing.T) {
	f := buildForest()

	parent, ok := FindParent(f, "quantum")
	require.True(t, ok)
	assert.Equal(t, "physics", parent.ID)

	_, ok = FindParent(f, "science")
	assert.False(t, ok, "roots have no parent")
}

func TestAncestorChain(t *testing.T) {
	f := buildForest()

	chain, err := AncestorChain(f, "quantum")
	require.NoError(t, err)
	assert.Equal(t, []string{"science", "physics", "quantum"}, chain)

	chain, err = AncestorChain(f, "art")
	require.NoError(t, err)
	assert.Equal(t, []string{"art"}, chain)

	_, err = AncestorChain(f, "missing")
	assert.ErrorIs(t, err, domain.ErrContainerNotFound)
}

func TestAncestorChain_EveryTagHasLegalChain(t *testing.T) {
	f := buildForest()

	for id := range f.Tags {
		chain, err := AncestorChain(f, id)
		require.NoError(t, err)
		assert.Equal(t, id, chain[len(chain)-1])
		assert.Nil(t, f.Tags[chain[0]].ParentID, "chain must start at a root")
		for i := 0; i+1 < len(chain); i++ {
			parent, child := f.Tags[chain[i]], f.Tags[chain[i+1]]
			assert.True(t, slices.Contains(parent.ChildIDs, child.ID))
			require.NotNil(t, child.ParentID)
			assert.Equal(t, parent.ID, *child.ParentID)
		}
	}
}

func TestAncestorChain_CycleDetected(t *testing.T) {
	f := models.NewForestFrom(
		[]models.Tag{
			{ID: "a", ParentID: ptr("b")},
			{ID: "b", ParentID: ptr("a")},
		}, nil, nil,
	)

	_, err := AncestorChain(f, "a")
	assert.ErrorIs(t, err, domain.ErrCycleDetected)
	assert.True(t, IsArchived(f, "a"), "cyclic ancestry is kept out of traversal")
}

func TestCountDescendantPages(t *testing.T) {
	f := buildForest()

	assert.Equal(t, 5, CountDescendantPages(f, "science"))
	assert.Equal(t, 4, CountDescendantPages(f, "physics"))
	assert.Equal(t, 1, CountDescendantPages(f, "art"))
	assert.Equal(t, 0, CountDescendantPages(f, "missing"))
}

func TestCountDescendantPages_NoDoubleCount(t *testing.T) {
	f := buildForest()
	// Corrupt the lists so p3 is reachable from the tag and two folders
	f.Tags["physics"].PageIDs = append(f.Tags["physics"].PageIDs, "p3")
	f.Folders["old"].PageIDs = append(f.Folders["old"].PageIDs, "p3")

	assert.Equal(t, 4, CountDescendantPages(f, "physics"))
}

func TestCountDescendantPages_SkipsArchived(t *testing.T) {
	f := buildForest()
	f.Tags["quantum"].Archived = true
	f.Pages["p2"].Archived = true

	// p1, p3, p4 remain; p5 sits under the archived quantum tag
	assert.Equal(t, 3, CountDescendantPages(f, "science"))

	f.Tags["physics"].Archived = true
	assert.Equal(t, 1, CountDescendantPages(f, "science"))
	assert.Equal(t, 0, CountDescendantPages(f, "physics"))
}

func TestIsArchived_InheritedByAncestry(t *testing.T) {
	f := buildForest()
	f.Tags["physics"].Archived = true

	assert.True(t, IsArchived(f, "physics"))
	assert.True(t, IsArchived(f, "quantum"))
	assert.False(t, f.Tags["quantum"].Archived, "descendant flag is never written")
	assert.False(t, IsArchived(f, "biology"))
	assert.True(t, IsPageArchived(f, f.Pages["p5"]))
	assert.False(t, IsPageArchived(f, f.Pages["p1"]))
}

func TestActiveTree_ExcludesArchived(t *testing.T) {
	f := buildForest()
	f.Tags["physics"].Archived = true

	assert.Equal(t, []string{"science", "biology", "art"}, ActiveTags(f))

	tree := ActiveTree(f)
	require.Len(t, tree, 2)
	assert.Equal(t, "science", tree[0].ID)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "biology", tree[0].Children[0].ID)
	require.Len(t, tree[0].Pages, 1)
	assert.Equal(t, "p1", tree[0].Pages[0].ID)
}

func TestActiveTree_NestsFolders(t *testing.T) {
	tree := ActiveTree(buildForest())

	physics := tree[0].Children[0]
	require.Equal(t, "physics", physics.ID)
	require.Len(t, physics.Folders, 1)
	lab := physics.Folders[0]
	assert.Equal(t, "p3", lab.Pages[0].ID)
	require.Len(t, lab.Folders, 1)
	assert.Equal(t, "p4", lab.Folders[0].Pages[0].ID)
}
