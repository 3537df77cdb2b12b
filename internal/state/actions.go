package state

import "inkwell/internal/domain/models"

// Action is the closed set of mutations the store accepts. The tree is
// never written by direct field assignment; every change flows through
// Dispatch with one of these payloads.
type Action interface {
	isAction()
}

type (
	AddWorkspace struct {
		Workspace WorkspaceNode
	}
	UpdateWorkspace struct {
		WorkspaceID string
		Patch       models.WorkspaceUpdate
	}
	DeleteWorkspace struct {
		WorkspaceID string
	}
	SetWorkspaces struct {
		Workspaces []WorkspaceNode
	}

	AddFolder struct {
		WorkspaceID string
		Folder      FolderNode
	}
	UpdateFolder struct {
		WorkspaceID string
		FolderID    string
		Patch       models.FolderUpdate
	}
	DeleteFolder struct {
		WorkspaceID string
		FolderID    string
	}
	SetFolders struct {
		WorkspaceID string
		Folders     []FolderNode
	}

	AddFile struct {
		WorkspaceID string
		FolderID    string
		File        models.File
	}
	UpdateFile struct {
		WorkspaceID string
		FolderID    string
		FileID      string
		Patch       models.FileUpdate
	}
	DeleteFile struct {
		WorkspaceID string
		FolderID    string
		FileID      string
	}
	SetFiles struct {
		WorkspaceID string
		FolderID    string
		Files       []models.File
	}
)

func (AddWorkspace) isAction()    {}
func (UpdateWorkspace) isAction() {}
func (DeleteWorkspace) isAction() {}
func (SetWorkspaces) isAction()   {}
func (AddFolder) isAction()       {}
func (UpdateFolder) isAction()    {}
func (DeleteFolder) isAction()    {}
func (SetFolders) isAction()      {}
func (AddFile) isAction()         {}
func (UpdateFile) isAction()      {}
func (DeleteFile) isAction()      {}
func (SetFiles) isAction()        {}
