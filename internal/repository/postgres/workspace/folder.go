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

// PostgresFolderRepository implements the FolderRepository interface
type PostgresFolderRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewFolderRepository creates a new folder repository
func NewFolderRepository(cfg *postgres.RepositoryConfig) wsRepo.FolderRepository {
	return &PostgresFolderRepository{
		pool:   cfg.Pool,
		tables: cfg.Tables,
	}
}

func (r *PostgresFolderRepository) ListByUser(ctx context.Context, userID string) ([]models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT id, tag_id, parent_folder_id, name, is_collapsed, created_at
		FROM %s
		WHERE user_id = $1
		ORDER BY created_at, id
	`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	folders := []models.Folder{}
	for rows.Next() {
		var f models.Folder
		if err := rows.Scan(&f.ID, &f.TagID, &f.ParentFolderID, &f.Name, &f.Collapsed, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}
	return folders, nil
}

func (r *PostgresFolderRepository) GetByID(ctx context.Context, id, userID string) (*models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT id, tag_id, parent_folder_id, name, is_collapsed, created_at
		FROM %s
		WHERE id = $1 AND user_id = $2
	`, r.tables.Folders)

	var f models.Folder
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id, userID).Scan(
		&f.ID, &f.TagID, &f.ParentFolderID, &f.Name, &f.Collapsed, &f.CreatedAt,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get folder: %w", err)
	}
	return &f, nil
}

func (r *PostgresFolderRepository) Create(ctx context.Context, userID string, folder *models.Folder) (bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, tag_id, parent_folder_id, name, is_collapsed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		folder.ID,
		userID,
		folder.TagID,
		folder.ParentFolderID,
		folder.Name,
		folder.Collapsed,
		folder.CreatedAt,
	)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return false, fmt.Errorf("folder %s: %w", folder.ID, domain.ErrInvalidParent)
		}
		return false, fmt.Errorf("create folder: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func (r *PostgresFolderRepository) SetCollapsed(ctx context.Context, id, userID string, collapsed bool) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET is_collapsed = $3
		WHERE id = $1 AND user_id = $2
	`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, userID, collapsed)
	if err != nil {
		return fmt.Errorf("set folder collapsed: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", id, domain.ErrContainerNotFound)
	}
	return nil
}
