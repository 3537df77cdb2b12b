// Package repositories defines the record-access contracts consumed by the
// sync coordinator and the HTTP handlers. Implementations validate id shape
// before issuing any query and report missing rows with domain.ErrNotFound.
package repositories

import (
	"context"

	"inkwell/internal/domain/models"
)

// WorkspaceRepository provides keyed access to workspace rows.
type WorkspaceRepository interface {
	Create(ctx context.Context, w *models.Workspace) error
	// GetByID returns zero-or-one row; a missing row is domain.ErrNotFound,
	// not a blank error.
	GetByID(ctx context.Context, id string) (*models.Workspace, error)
	Update(ctx context.Context, id string, patch *models.WorkspaceUpdate) error
	Delete(ctx context.Context, id string) error
	// ListPrivate returns workspaces owned by the user with no collaborators.
	ListPrivate(ctx context.Context, userID string) ([]models.Workspace, error)
	// ListCollaborating returns workspaces the user collaborates on.
	ListCollaborating(ctx context.Context, userID string) ([]models.Workspace, error)
}

// FolderRepository provides keyed access to folder rows.
type FolderRepository interface {
	Create(ctx context.Context, f *models.Folder) error
	GetByID(ctx context.Context, id string) (*models.Folder, error)
	Update(ctx context.Context, id string, patch *models.FolderUpdate) error
	Delete(ctx context.Context, id string) error
	// ListByWorkspace returns folders ordered ascending by created_at.
	ListByWorkspace(ctx context.Context, workspaceID string) ([]models.Folder, error)
}

// FileRepository provides keyed access to file rows.
type FileRepository interface {
	Create(ctx context.Context, f *models.File) error
	GetByID(ctx context.Context, id string) (*models.File, error)
	Update(ctx context.Context, id string, patch *models.FileUpdate) error
	Delete(ctx context.Context, id string) error
	// ListByFolder returns files ordered ascending by created_at.
	ListByFolder(ctx context.Context, folderID string) ([]models.File, error)
}
