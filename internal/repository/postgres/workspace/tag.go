package workspace

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"idealite/internal/config"
	"idealite/internal/domain"
	models "idealite/internal/domain/models/workspace"
	wsRepo "idealite/internal/domain/repositories/workspace"
	"idealite/internal/repository/postgres"
)

// PostgresTagRepository implements the TagRepository interface
type PostgresTagRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewTagRepository creates a new tag repository
func NewTagRepository(cfg *postgres.RepositoryConfig) wsRepo.TagRepository {
	return &PostgresTagRepository{
		pool:   cfg.Pool,
		tables: cfg.Tables,
	}
}

func (r *PostgresTagRepository) ListByUser(ctx context.Context, userID string) ([]models.Tag, error) {
	query := fmt.Sprintf(`
		SELECT id, name, parent_id, is_collapsed, deleted, created_at
		FROM %s
		WHERE user_id = $1
		ORDER BY created_at, id
	`, r.tables.Tags)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	tags := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.ParentID, &t.Collapsed, &t.Archived, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return tags, nil
}

func (r *PostgresTagRepository) GetByID(ctx context.Context, id, userID string) (*models.Tag, error) {
	query := fmt.Sprintf(`
		SELECT id, name, parent_id, is_collapsed, deleted, created_at
		FROM %s
		WHERE id = $1 AND user_id = $2
	`, r.tables.Tags)

	var t models.Tag
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id, userID).Scan(
		&t.ID, &t.Name, &t.ParentID, &t.Collapsed, &t.Archived, &t.CreatedAt,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("tag %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return &t, nil
}

func (r *PostgresTagRepository) Create(ctx context.Context, userID string, tag *models.Tag) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, name, parent_id, is_collapsed, deleted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`, r.tables.Tags)

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		tag.ID,
		userID,
		tag.Name,
		tag.ParentID,
		tag.Collapsed,
		tag.Archived,
		tag.CreatedAt,
	)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("parent tag %v: %w", tag.ParentID, domain.ErrInvalidParent)
		}
		return fmt.Errorf("create tag: %w", err)
	}
	return nil
}

func (r *PostgresTagRepository) AncestorChain(ctx context.Context, id, userID string) ([]string, error) {
	query := fmt.Sprintf(`
		WITH RECURSIVE chain AS (
			SELECT id, parent_id, 0 AS depth
			FROM %s
			WHERE id = $1 AND user_id = $2
			UNION ALL
			SELECT t.id, t.parent_id, c.depth + 1
			FROM %s t
			JOIN chain c ON t.id = c.parent_id
			WHERE t.user_id = $2 AND c.depth < $3
		)
		SELECT id, parent_id IS NOT NULL, depth FROM chain ORDER BY depth DESC
	`, r.tables.Tags, r.tables.Tags)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, id, userID, config.MaxHierarchyDepth)
	if err != nil {
		return nil, fmt.Errorf("ancestor chain: %w", err)
	}
	defer rows.Close()

	var chain []string
	first := true
	for rows.Next() {
		var (
			tagID     string
			hasParent bool
			depth     int
		)
		if err := rows.Scan(&tagID, &hasParent, &depth); err != nil {
			return nil, fmt.Errorf("scan ancestor: %w", err)
		}
		// The deepest row is the root; if it still has a parent the walk hit
		// the depth bound
		if first && hasParent && depth >= config.MaxHierarchyDepth {
			return nil, fmt.Errorf("ancestor walk from tag %s: %w", id, domain.ErrCycleDetected)
		}
		first = false
		chain = append(chain, tagID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ancestors: %w", err)
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("tag %s: %w", id, domain.ErrContainerNotFound)
	}
	return chain, nil
}

func (r *PostgresTagRepository) SubtreeIDs(ctx context.Context, id, userID string) ([]string, error) {
	query := fmt.Sprintf(`
		WITH RECURSIVE subtree AS (
			SELECT id, 0 AS depth
			FROM %s
			WHERE id = $1 AND user_id = $2
			UNION ALL
			SELECT t.id, s.depth + 1
			FROM %s t
			JOIN subtree s ON t.parent_id = s.id
			WHERE t.user_id = $2 AND s.depth < $3
		)
		SELECT DISTINCT id FROM subtree
	`, r.tables.Tags, r.tables.Tags)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, id, userID, config.MaxHierarchyDepth)
	if err != nil {
		return nil, fmt.Errorf("tag subtree: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var tagID string
		if err := rows.Scan(&tagID); err != nil {
			return nil, fmt.Errorf("scan subtree tag: %w", err)
		}
		ids = append(ids, tagID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subtree: %w", err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("tag %s: %w", id, domain.ErrContainerNotFound)
	}
	return ids, nil
}

func (r *PostgresTagRepository) IsArchived(ctx context.Context, id, userID string) (bool, error) {
	query := fmt.Sprintf(`
		WITH RECURSIVE chain AS (
			SELECT id, parent_id, deleted, 0 AS depth
			FROM %s
			WHERE id = $1 AND user_id = $2
			UNION ALL
			SELECT t.id, t.parent_id, t.deleted, c.depth + 1
			FROM %s t
			JOIN chain c ON t.id = c.parent_id
			WHERE t.user_id = $2 AND c.depth < $3
		)
		SELECT COUNT(*), COALESCE(bool_or(deleted), false) FROM chain
	`, r.tables.Tags, r.tables.Tags)

	var (
		n        int
		archived bool
	)
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, id, userID, config.MaxHierarchyDepth).Scan(&n, &archived); err != nil {
		return false, fmt.Errorf("tag archival: %w", err)
	}
	if n == 0 {
		return false, fmt.Errorf("tag %s: %w", id, domain.ErrContainerNotFound)
	}
	return archived, nil
}

func (r *PostgresTagRepository) Archive(ctx context.Context, id, userID string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET deleted = true
		WHERE id = $1 AND user_id = $2
	`, r.tables.Tags)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("archive tag: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("tag %s: %w", id, domain.ErrContainerNotFound)
	}
	return nil
}

func (r *PostgresTagRepository) SetCollapsed(ctx context.Context, id, userID string, collapsed bool) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET is_collapsed = $3
		WHERE id = $1 AND user_id = $2
	`, r.tables.Tags)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, userID, collapsed)
	if err != nil {
		return fmt.Errorf("set tag collapsed: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("tag %s: %w", id, domain.ErrContainerNotFound)
	}
	return nil
}
