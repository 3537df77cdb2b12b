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

// PostgresFileRepository implements the FileRepository interface.
type PostgresFileRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewFileRepository creates a new file repository.
func NewFileRepository(config *RepositoryConfig) repositories.FileRepository {
	return &PostgresFileRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

func (r *PostgresFileRepository) Create(ctx context.Context, f *models.File) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, workspace_id, folder_id, title, icon_id, data, in_trash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.tables.Files)

	_, err := r.pool.Exec(ctx, query,
		f.ID,
		f.WorkspaceID,
		f.FolderID,
		f.Title,
		f.IconID,
		f.Data,
		f.InTrash,
		f.CreatedAt,
	)
	if err != nil {
		if isPgDuplicateError(err) {
			return fmt.Errorf("file %s: %w", f.ID, domain.ErrConflict)
		}
		if isPgForeignKeyError(err) {
			return fmt.Errorf("folder %s: %w", f.FolderID, domain.ErrNotFound)
		}
		return fmt.Errorf("create file: %w", err)
	}

	return nil
}

func (r *PostgresFileRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	if err := domain.ValidateID(id); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, workspace_id, folder_id, title, icon_id, data, in_trash, created_at
		FROM %s
		WHERE id = $1
	`, r.tables.Files)

	var f models.File
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&f.ID,
		&f.WorkspaceID,
		&f.FolderID,
		&f.Title,
		&f.IconID,
		&f.Data,
		&f.InTrash,
		&f.CreatedAt,
	)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get file: %w", err)
	}

	return &f, nil
}

func (r *PostgresFileRepository) Update(ctx context.Context, id string, patch *models.FileUpdate) error {
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
		r.tables.Files, strings.Join(set, ", "), len(args))

	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update file: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

func (r *PostgresFileRepository) Delete(ctx context.Context, id string) error {
	if err := domain.ValidateID(id); err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", r.tables.Files)

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

func (r *PostgresFileRepository) ListByFolder(ctx context.Context, folderID string) ([]models.File, error) {
	if err := domain.ValidateID(folderID); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, workspace_id, folder_id, title, icon_id, data, in_trash, created_at
		FROM %s
		WHERE folder_id = $1
		ORDER BY created_at ASC
	`, r.tables.Files)

	rows, err := r.pool.Query(ctx, query, folderID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var out []models.File
	for rows.Next() {
		var f models.File
		if err := rows.Scan(
			&f.ID,
			&f.WorkspaceID,
			&f.FolderID,
			&f.Title,
			&f.IconID,
			&f.Data,
			&f.InTrash,
			&f.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	return out, nil
}

var _ repositories.FileRepository = (*PostgresFileRepository)(nil)
