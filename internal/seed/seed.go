// Package seed builds a workspace forest from embedded YAML fixtures and
// writes it through the repositories.
package seed

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"idealite/internal/domain"
	models "idealite/internal/domain/models/workspace"
	"idealite/internal/domain/repositories"
	wsRepo "idealite/internal/domain/repositories/workspace"
	"idealite/internal/workspace/hierarchy"
)

//go:embed fixtures/*.yaml
var fixtureFiles embed.FS

// DefaultFixture is the workspace given to a freshly seeded user
const DefaultFixture = "workspace"

type Fixture struct {
	Tags []TagFixture `yaml:"tags"`
}

type TagFixture struct {
	Name      string          `yaml:"name"`
	Collapsed bool            `yaml:"collapsed"`
	Archived  bool            `yaml:"archived"`
	Pages     []PageFixture   `yaml:"pages"`
	Folders   []FolderFixture `yaml:"folders"`
	Children  []TagFixture    `yaml:"children"`
}

type FolderFixture struct {
	Name      string          `yaml:"name"`
	Collapsed bool            `yaml:"collapsed"`
	Pages     []PageFixture   `yaml:"pages"`
	Folders   []FolderFixture `yaml:"folders"`
}

type PageFixture struct {
	Title string          `yaml:"title"`
	Kind  models.PageKind `yaml:"kind"`
	// Tags names secondary tags
	Tags []string `yaml:"tags"`
}

// Load reads an embedded fixture by name
func Load(name string) (*Fixture, error) {
	filename := fmt.Sprintf("fixtures/%s.yaml", name)
	data, err := fixtureFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fixture: %w", err)
	}
	return &fx, nil
}

// builder flattens a fixture into entity lists
type builder struct {
	userID  string
	now     time.Time
	seq     int
	tags    []models.Tag
	folders []models.Folder
	pages   []models.Page

	tagIDs    map[string]string // name -> id
	secondary map[string][]string
}

// id derives a stable identifier from the owner and the node's fixture path
// so seeding the same fixture twice writes nothing new.
func (b *builder) id(path string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("idealite:"+b.userID+":"+path)).String()
}

// stamp spaces creation times so listing by created_at keeps fixture order
func (b *builder) stamp() time.Time {
	b.seq++
	return b.now.Add(time.Duration(b.seq) * time.Millisecond)
}

// Build converts fx into a linked forest owned by userID. Page hierarchies
// are computed from the built tag forest.
func Build(fx *Fixture, userID string, now time.Time) (*models.Forest, error) {
	b := &builder{
		userID:    userID,
		now:       now,
		tagIDs:    make(map[string]string),
		secondary: make(map[string][]string),
	}

	for i := range fx.Tags {
		if err := b.addTag(&fx.Tags[i], nil, "/"); err != nil {
			return nil, err
		}
	}

	for i := range b.pages {
		p := &b.pages[i]
		for _, name := range b.secondary[p.ID] {
			tagID, ok := b.tagIDs[name]
			if !ok {
				return nil, fmt.Errorf("page %q references unknown tag %q", p.Title, name)
			}
			if tagID != p.PrimaryTagID {
				p.SecondaryTagIDs = append(p.SecondaryTagIDs, tagID)
			}
		}
	}

	f := models.NewForestFrom(b.tags, b.folders, b.pages)
	for _, p := range f.Pages {
		chain, err := hierarchy.AncestorChain(f, p.PrimaryTagID)
		if err != nil {
			return nil, fmt.Errorf("page %q: %w", p.Title, err)
		}
		p.Hierarchy = chain
	}
	return f, nil
}

func (b *builder) addTag(tf *TagFixture, parentID *string, path string) error {
	if tf.Name == "" {
		return fmt.Errorf("tag under %s has no name", path)
	}
	if _, dup := b.tagIDs[tf.Name]; dup {
		return fmt.Errorf("duplicate tag name %q", tf.Name)
	}

	path = path + "tag:" + tf.Name + "/"
	tag := models.Tag{
		ID:        b.id(path),
		Name:      tf.Name,
		ParentID:  parentID,
		Collapsed: tf.Collapsed,
		Archived:  tf.Archived,
		CreatedAt: b.stamp(),
	}
	b.tagIDs[tf.Name] = tag.ID
	b.tags = append(b.tags, tag)

	b.addPages(tf.Pages, tag.ID, nil, path)
	for i := range tf.Folders {
		if err := b.addFolder(&tf.Folders[i], tag.ID, nil, path); err != nil {
			return err
		}
	}
	for i := range tf.Children {
		if err := b.addTag(&tf.Children[i], &tag.ID, path); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) addFolder(ff *FolderFixture, tagID string, parentID *string, path string) error {
	if ff.Name == "" {
		return fmt.Errorf("folder under %s has no name", path)
	}

	path = path + "folder:" + ff.Name + "/"
	folder := models.Folder{
		ID:             b.id(path),
		TagID:          tagID,
		ParentFolderID: parentID,
		Name:           ff.Name,
		Collapsed:      ff.Collapsed,
		CreatedAt:      b.stamp(),
	}
	b.folders = append(b.folders, folder)

	b.addPages(ff.Pages, tagID, &folder.ID, path)
	for i := range ff.Folders {
		if err := b.addFolder(&ff.Folders[i], tagID, &folder.ID, path); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) addPages(pages []PageFixture, tagID string, folderID *string, path string) {
	for i, pf := range pages {
		kind := pf.Kind
		if kind == "" {
			kind = models.PageKindPage
		}
		page := models.Page{
			ID:              b.id(path + "page:" + strconv.Itoa(i)),
			Title:           pf.Title,
			Kind:            kind,
			PrimaryTagID:    tagID,
			FolderID:        folderID,
			SecondaryTagIDs: []string{},
			CreatedAt:       b.stamp(),
		}
		b.secondary[page.ID] = pf.Tags
		b.pages = append(b.pages, page)
	}
}

// Stats counts rows written by a seed run. Existing rows are not counted.
type Stats struct {
	Tags    int
	Folders int
	Pages   int
}

// Seeder writes a forest through the repositories in one transaction
type Seeder struct {
	tagRepo    wsRepo.TagRepository
	folderRepo wsRepo.FolderRepository
	pageRepo   wsRepo.PageRepository
	txManager  repositories.TransactionManager
	logger     *slog.Logger
}

func NewSeeder(
	tagRepo wsRepo.TagRepository,
	folderRepo wsRepo.FolderRepository,
	pageRepo wsRepo.PageRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) *Seeder {
	return &Seeder{
		tagRepo:    tagRepo,
		folderRepo: folderRepo,
		pageRepo:   pageRepo,
		txManager:  txManager,
		logger:     logger,
	}
}

// Seed writes f for userID. Parents are written before children so foreign
// keys hold at every insert.
func (s *Seeder) Seed(ctx context.Context, userID string, f *models.Forest) (*Stats, error) {
	stats := &Stats{}
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		var tagOrder []string
		var walk func(ids []string)
		walk = func(ids []string) {
			for _, id := range ids {
				if t, ok := f.Tag(id); ok {
					tagOrder = append(tagOrder, id)
					walk(t.ChildIDs)
				}
			}
		}
		walk(f.RootIDs)

		for _, id := range tagOrder {
			t, _ := f.Tag(id)
			if _, err := s.tagRepo.GetByID(ctx, id, userID); err == nil {
				continue
			} else if !errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("seed tag %q: %w", t.Name, err)
			}
			if err := s.tagRepo.Create(ctx, userID, t); err != nil {
				return fmt.Errorf("seed tag %q: %w", t.Name, err)
			}
			stats.Tags++
		}

		for _, id := range tagOrder {
			t, _ := f.Tag(id)
			if err := s.seedPages(ctx, userID, f, t.PageIDs, stats); err != nil {
				return err
			}
			if err := s.seedFolders(ctx, userID, f, t.FolderIDs, stats); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("workspace seeded",
		"user_id", userID,
		"tags", stats.Tags,
		"folders", stats.Folders,
		"pages", stats.Pages,
	)
	return stats, nil
}

func (s *Seeder) seedFolders(ctx context.Context, userID string, f *models.Forest, ids []string, stats *Stats) error {
	for _, id := range ids {
		fo, ok := f.Folder(id)
		if !ok {
			continue
		}
		created, err := s.folderRepo.Create(ctx, userID, fo)
		if err != nil {
			return fmt.Errorf("seed folder %q: %w", fo.Name, err)
		}
		if created {
			stats.Folders++
		}
		if err := s.seedPages(ctx, userID, f, fo.PageIDs, stats); err != nil {
			return err
		}
		if err := s.seedFolders(ctx, userID, f, fo.ChildFolderIDs, stats); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedPages(ctx context.Context, userID string, f *models.Forest, ids []string, stats *Stats) error {
	for _, id := range ids {
		p, ok := f.Page(id)
		if !ok {
			continue
		}
		created, err := s.pageRepo.Create(ctx, userID, p)
		if err != nil {
			return fmt.Errorf("seed page %q: %w", p.Title, err)
		}
		if created {
			stats.Pages++
		}
	}
	return nil
}
