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

// PostgresWorkspaceRepository implements the WorkspaceRepository interface.
type PostgresWorkspaceRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewWorkspaceRepository creates a new workspace repository.
func NewWorkspaceRepository(config *RepositoryConfig) repositories.WorkspaceRepository {
	return &PostgresWorkspaceRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts a new workspace. A missing id is generated client-side
// so callers can navigate to the new row before the insert returns.
func (r *PostgresWorkspaceRepository) Create(ctx context.Context, w *models.Workspace) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, workspace_owner, title, icon_id, data, in_trash, logo, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.tables.Workspaces)

	_, err := r.pool.Exec(ctx, query,
		w.ID,
		w.WorkspaceOwner,
		w.Title,
		w.IconID,
		w.Data,
		w.InTrash,
		w.Logo,
		w.CreatedAt,
	)
	if err != nil {
		if isPgDuplicateError(err) {
			return fmt.Errorf("workspace %s: %w", w.ID, domain.ErrConflict)
		}
		return fmt.Errorf("create workspace: %w", err)
	}

	return nil
}

// GetByID retrieves a workspace by id. The id shape is validated before
// any query is issued.
func (r *PostgresWorkspaceRepository) GetByID(ctx context.Context, id string) (*models.Workspace, error) {
	if err := domain.ValidateID(id); err != nil {
		return nil, err
	}

	q := fmt.Sprintf(`
		SELECT id, workspace_owner, title, icon_id, data, in_trash, logo, created_at
		FROM %s
		WHERE id = $1
	`, r.tables.Workspaces)

	var w models.Workspace
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&w.ID,
		&w.WorkspaceOwner,
		&w.Title,
		&w.IconID,
		&w.Data,
		&w.InTrash,
		&w.Logo,
		&w.CreatedAt,
	)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("workspace %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get workspace: %w", err)
	}

	return &w, nil
}

// Update applies a partial patch. Nil patch fields are left untouched.
func (r *PostgresWorkspaceRepository) Update(ctx context.Context, id string, patch *models.WorkspaceUpdate) error {
	if err := domain.ValidateID(id); err != nil {
		return err
	}

	set, args := buildSet(map[string]*string{
		"title":    patch.Title,
		"icon_id":  patch.IconID,
		"data":     patch.Data,
		"in_trash": patch.InTrash,
		"logo":     patch.Logo,
	})
	if len(set) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d",
		r.tables.Workspaces, strings.Join(set, ", "), len(args))

	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update workspace: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("workspace %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a workspace and, through cascading constraints, its
// folders and files.
func (r *PostgresWorkspaceRepository) Delete(ctx context.Context, id string) error {
	if err := domain.ValidateID(id); err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", r.tables.Workspaces)

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete workspace: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("workspace %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ListPrivate returns workspaces the user owns and shares with nobody.
func (r *PostgresWorkspaceRepository) ListPrivate(ctx context.Context, userID string) ([]models.Workspace, error) {
	if err := domain.ValidateID(userID); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT w.id, w.workspace_owner, w.title, w.icon_id, w.data, w.in_trash, w.logo, w.created_at
		FROM %s w
		WHERE w.workspace_owner = $1
		  AND NOT EXISTS (SELECT 1 FROM %s c WHERE c.workspace_id = w.id)
		ORDER BY w.created_at ASC
	`, r.tables.Workspaces, r.tables.Collaborators)

	return r.list(ctx, query, userID)
}

// ListCollaborating returns workspaces the user was added to as a
// collaborator, owned or not.
func (r *PostgresWorkspaceRepository) ListCollaborating(ctx context.Context, userID string) ([]models.Workspace, error) {
	if err := domain.ValidateID(userID); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT w.id, w.workspace_owner, w.title, w.icon_id, w.data, w.in_trash, w.logo, w.created_at
		FROM %s w
		JOIN %s c ON c.workspace_id = w.id
		WHERE c.user_id = $1
		ORDER BY w.created_at ASC
	`, r.tables.Workspaces, r.tables.Collaborators)

	return r.list(ctx, query, userID)
}

func (r *PostgresWorkspaceRepository) list(ctx context.Context, query string, args ...any) ([]models.Workspace, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	defer rows.Close()

	var out []models.Workspace
	for rows.Next() {
		var w models.Workspace
		if err := rows.Scan(
			&w.ID,
			&w.WorkspaceOwner,
			&w.Title,
			&w.IconID,
			&w.Data,
			&w.InTrash,
			&w.Logo,
			&w.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan workspace: %w", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}

	return out, nil
}

// buildSet turns non-nil patch fields into a SET clause with positional
// arguments starting at $1.
func buildSet(fields map[string]*string) ([]string, []any) {
	// Stable column order keeps the statement text cacheable.
	cols := []string{"title", "icon_id", "data", "in_trash", "logo"}
	var set []string
	var args []any
	for _, col := range cols {
		v, ok := fields[col]
		if !ok || v == nil {
			continue
		}
		args = append(args, *v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	return set, args
}
