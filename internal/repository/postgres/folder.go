package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/domain/repositories"
)

// PostgresFolderRepository implements the FolderRepository interface.
type PostgresFolderRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewFolderRepository creates a new folder repository.
func NewFolderRepository(config *RepositoryConfig) repositories.FolderRepository {
	return &PostgresFolderRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

func (r *PostgresFolderRepository) Create(ctx context.Context, f *models.Folder) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, workspace_id, title, icon_id, data, in_trash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.tables.Folders)

	_, err := r.pool.Exec(ctx, query,
		f.ID,
		f.WorkspaceID,
		f.Title,
		f.IconID,
		f.Data,
		f.InTrash,
		f.CreatedAt,
	)
	if err != nil {
		if isPgDuplicateError(err) {
			return fmt.Errorf("folder %s: %w", f.ID, domain.ErrConflict)
		}
		if isPgForeignKeyError(err) {
			return fmt.Errorf("workspace %s: %w", f.WorkspaceID, domain.ErrNotFound)
		}
		return fmt.Errorf("create folder: %w", err)
	}

	return nil
}

func (r *PostgresFolderRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	if err := domain.ValidateID(id); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, workspace_id, title, icon_id, data, in_trash, created_at
		FROM %s
		WHERE id = $1
	`, r.tables.Folders)

	var f models.Folder
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&f.ID,
		&f.WorkspaceID,
		&f.Title,
		&f.IconID,
		&f.Data,
		&f.InTrash,
		&f.CreatedAt,
	)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get folder: %w", err)
	}

	return &f, nil
}

func (r *PostgresFolderRepository) Update(ctx context.Context, id string, patch *models.FolderUpdate) error {
	if err := domain.ValidateID(id); err != nil {
		return err
	}

	set, args := buildSet(map[string]*string{
		"title":    patch.Title,
		"icon_id":  patch.IconID,
		"data":     patch.Data,
		"in_trash": patch.InTrash,
	})
	if len(set) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d",
		r.tables.Folders, strings.Join(set, ", "), len(args))

	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update folder: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

func (r *PostgresFolderRepository) Delete(ctx context.Context, id string) error {
	if err := domain.ValidateID(id); err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", r.tables.Folders)

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

func (r *PostgresFolderRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]models.Folder, error) {
	if err := domain.ValidateID(workspaceID); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, workspace_id, title, icon_id, data, in_trash, created_at
		FROM %s
		WHERE workspace_id = $1
		ORDER BY created_at ASC
	`, r.tables.Folders)

	rows, err := r.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	var out []models.Folder
	for rows.Next() {
		var f models.Folder
		if err := rows.Scan(
			&f.ID,
			&f.WorkspaceID,
			&f.Title,
			&f.IconID,
			&f.Data,
			&f.InTrash,
			&f.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}

	return out, nil
}

var _ repositories.FolderRepository = (*PostgresFolderRepository)(nil)
