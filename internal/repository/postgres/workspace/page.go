package workspace

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"idealite/internal/domain"
	models "idealite/internal/domain/models/workspace"
	wsRepo "idealite/internal/domain/repositories/workspace"
	"idealite/internal/repository/postgres"
)

// PostgresPageRepository implements the PageRepository interface. The primary
// placement lives on the page row; every tag association, primary included,
// is also a row in pages_tags.
type PostgresPageRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewPageRepository creates a new page repository
func NewPageRepository(cfg *postgres.RepositoryConfig) wsRepo.PageRepository {
	return &PostgresPageRepository{
		pool:   cfg.Pool,
		tables: cfg.Tables,
	}
}

func (r *PostgresPageRepository) selectColumns() string {
	return fmt.Sprintf(`
		p.id, p.title, p.kind, p.primary_tag_id, p.folder_id, p.hierarchy, p.archived, p.created_at,
		COALESCE(
			(SELECT array_agg(pt.tag_id ORDER BY pt.created_at)
			 FROM %s pt
			 WHERE pt.page_id = p.id AND pt.tag_id <> p.primary_tag_id),
			'{}'
		)`, r.tables.PagesTags)
}

func scanPage(row interface{ Scan(dest ...any) error }, p *models.Page) error {
	return row.Scan(
		&p.ID,
		&p.Title,
		&p.Kind,
		&p.PrimaryTagID,
		&p.FolderID,
		&p.Hierarchy,
		&p.Archived,
		&p.CreatedAt,
		&p.SecondaryTagIDs,
	)
}

func (r *PostgresPageRepository) ListByUser(ctx context.Context, userID string) ([]models.Page, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s p
		WHERE p.user_id = $1
		ORDER BY p.created_at, p.id
	`, r.selectColumns(), r.tables.Pages)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	pages := []models.Page{}
	for rows.Next() {
		var p models.Page
		if err := scanPage(rows, &p); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pages: %w", err)
	}
	return pages, nil
}

func (r *PostgresPageRepository) GetByID(ctx context.Context, id, userID string) (*models.Page, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s p
		WHERE p.id = $1 AND p.user_id = $2
	`, r.selectColumns(), r.tables.Pages)

	var p models.Page
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := scanPage(executor.QueryRow(ctx, query, id, userID), &p); err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("page %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get page: %w", err)
	}
	return &p, nil
}

func (r *PostgresPageRepository) Create(ctx context.Context, userID string, page *models.Page) (bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, title, kind, primary_tag_id, folder_id, hierarchy, archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false, $8, $8)
		ON CONFLICT (id) DO NOTHING
	`, r.tables.Pages)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		page.ID,
		userID,
		page.Title,
		page.Kind,
		page.PrimaryTagID,
		page.FolderID,
		page.Hierarchy,
		page.CreatedAt,
	)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return false, fmt.Errorf("page %s: %w", page.ID, domain.ErrContainerNotFound)
		}
		return false, fmt.Errorf("create page: %w", err)
	}
	if result.RowsAffected() == 0 {
		return false, nil
	}

	if err := r.AddTag(ctx, page.ID, page.PrimaryTagID); err != nil {
		return false, err
	}
	for _, tagID := range page.SecondaryTagIDs {
		if err := r.AddTag(ctx, page.ID, tagID); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (r *PostgresPageRepository) AddTag(ctx context.Context, pageID, tagID string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (page_id, tag_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (page_id, tag_id) DO NOTHING
	`, r.tables.PagesTags)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, pageID, tagID); err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("tag %s: %w", tagID, domain.ErrContainerNotFound)
		}
		return fmt.Errorf("add page tag: %w", err)
	}
	return nil
}

func (r *PostgresPageRepository) Move(ctx context.Context, userID string, page *models.Page) error {
	executor := postgres.GetExecutor(ctx, r.pool)

	// Swap the primary association before the page row so the old primary
	// tag is still known
	swap := fmt.Sprintf(`
		UPDATE %s pt
		SET tag_id = $2
		FROM %s p
		WHERE pt.page_id = p.id AND pt.tag_id = p.primary_tag_id
			AND p.id = $1 AND p.user_id = $3
			AND NOT EXISTS (SELECT 1 FROM %s x WHERE x.page_id = $1 AND x.tag_id = $2)
	`, r.tables.PagesTags, r.tables.Pages, r.tables.PagesTags)
	if _, err := executor.Exec(ctx, swap, page.ID, page.PrimaryTagID, userID); err != nil {
		return fmt.Errorf("move page tag: %w", err)
	}

	update := fmt.Sprintf(`
		UPDATE %s
		SET primary_tag_id = $2, folder_id = $3, hierarchy = $4, updated_at = NOW()
		WHERE id = $1 AND user_id = $5
	`, r.tables.Pages)
	result, err := executor.Exec(ctx, update, page.ID, page.PrimaryTagID, page.FolderID, page.Hierarchy, userID)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("page %s: %w", page.ID, domain.ErrInvalidDestination)
		}
		return fmt.Errorf("move page: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("page %s: %w", page.ID, domain.ErrNotFound)
	}

	// Covers the case where the swap was skipped because the destination was
	// already a secondary tag
	return r.AddTag(ctx, page.ID, page.PrimaryTagID)
}

func (r *PostgresPageRepository) CountInTags(ctx context.Context, userID string, tagIDs []string) (int, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(DISTINCT id)
		FROM %s
		WHERE user_id = $1 AND primary_tag_id = ANY($2) AND archived = false
	`, r.tables.Pages)

	var n int
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, userID, tagIDs).Scan(&n); err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	return n, nil
}

func (r *PostgresPageRepository) ArchiveOrphans(ctx context.Context, userID string, tagIDs []string) (int, error) {
	query := fmt.Sprintf(`
		UPDATE %s p
		SET archived = true, updated_at = NOW()
		WHERE p.user_id = $1
			AND p.archived = false
			AND p.primary_tag_id = ANY($2)
			AND NOT EXISTS (
				SELECT 1 FROM %s pt
				WHERE pt.page_id = p.id AND NOT (pt.tag_id = ANY($2))
			)
	`, r.tables.Pages, r.tables.PagesTags)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, userID, tagIDs)
	if err != nil {
		return 0, fmt.Errorf("archive orphan pages: %w", err)
	}
	return int(result.RowsAffected()), nil
}
