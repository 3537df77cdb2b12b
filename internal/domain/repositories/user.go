package repositories

import (
	"context"

	"inkwell/internal/domain/models"
)

// UserRepository reads the identity provider's user mirror.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	// SearchByEmail matches users whose email starts with the given prefix.
	// An empty prefix yields an empty result, not an error.
	SearchByEmail(ctx context.Context, prefix string) ([]models.User, error)
}

// CollaboratorRepository manages workspace membership.
type CollaboratorRepository interface {
	// Add is idempotent: adding an existing collaborator is a no-op.
	Add(ctx context.Context, workspaceID, userID string) error
	Remove(ctx context.Context, workspaceID, userID string) error
	// ListUsers resolves the workspace's collaborators to user records.
	ListUsers(ctx context.Context, workspaceID string) ([]models.User, error)
}
