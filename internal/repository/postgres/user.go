package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/domain/repositories"
)

// PostgresUserRepository implements the UserRepository interface. User
// rows are written by the identity provider; this side only reads them.
type PostgresUserRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewUserRepository creates a new user repository.
func NewUserRepository(config *RepositoryConfig) repositories.UserRepository {
	return &PostgresUserRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	if err := domain.ValidateID(id); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, email, avatar_url, created_at
		FROM %s
		WHERE id = $1
	`, r.tables.Users)

	var u models.User
	err := r.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.Email, &u.AvatarURL, &u.CreatedAt)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &u, nil
}

// SearchByEmail returns users whose email starts with the prefix, for the
// collaborator picker. Capped so a one-letter prefix cannot dump the
// whole table.
func (r *PostgresUserRepository) SearchByEmail(ctx context.Context, prefix string) ([]models.User, error) {
	if prefix == "" {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT id, email, avatar_url, created_at
		FROM %s
		WHERE email ILIKE $1 || '%%'
		ORDER BY email ASC
		LIMIT 20
	`, r.tables.Users)

	rows, err := r.pool.Query(ctx, query, prefix)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.AvatarURL, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}

	return out, nil
}

// PostgresCollaboratorRepository implements the CollaboratorRepository
// interface.
type PostgresCollaboratorRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewCollaboratorRepository creates a new collaborator repository.
func NewCollaboratorRepository(config *RepositoryConfig) repositories.CollaboratorRepository {
	return &PostgresCollaboratorRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Add links a user to a workspace. Adding an existing collaborator is a
// no-op, not a conflict.
func (r *PostgresCollaboratorRepository) Add(ctx context.Context, workspaceID, userID string) error {
	if err := domain.ValidateID(workspaceID); err != nil {
		return err
	}
	if err := domain.ValidateID(userID); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (workspace_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (workspace_id, user_id) DO NOTHING
	`, r.tables.Collaborators)

	if _, err := r.pool.Exec(ctx, query, workspaceID, userID); err != nil {
		if isPgForeignKeyError(err) {
			return fmt.Errorf("workspace %s or user %s: %w", workspaceID, userID, domain.ErrNotFound)
		}
		return fmt.Errorf("add collaborator: %w", err)
	}

	return nil
}

func (r *PostgresCollaboratorRepository) Remove(ctx context.Context, workspaceID, userID string) error {
	if err := domain.ValidateID(workspaceID); err != nil {
		return err
	}
	if err := domain.ValidateID(userID); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE workspace_id = $1 AND user_id = $2
	`, r.tables.Collaborators)

	result, err := r.pool.Exec(ctx, query, workspaceID, userID)
	if err != nil {
		return fmt.Errorf("remove collaborator: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("collaborator %s on %s: %w", userID, workspaceID, domain.ErrNotFound)
	}

	return nil
}

// ListUsers returns the full user rows for a workspace's collaborators.
func (r *PostgresCollaboratorRepository) ListUsers(ctx context.Context, workspaceID string) ([]models.User, error) {
	if err := domain.ValidateID(workspaceID); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT u.id, u.email, u.avatar_url, u.created_at
		FROM %s c
		JOIN %s u ON u.id = c.user_id
		WHERE c.workspace_id = $1
		ORDER BY u.email ASC
	`, r.tables.Collaborators, r.tables.Users)

	rows, err := r.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list collaborators: %w", err)
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.AvatarURL, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan collaborator: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list collaborators: %w", err)
	}

	return out, nil
}
