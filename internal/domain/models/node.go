package models

import (
	"time"
)

// NodeKind distinguishes the three addressable document entities. Each of
// them carries editable rich-text content and can be opened in the editor.
type NodeKind string

const (
	KindWorkspace NodeKind = "workspace"
	KindFolder    NodeKind = "folder"
	KindFile      NodeKind = "file"
)

// Workspace is the top level container. Data holds the serialized delta of
// the workspace page itself; nil means the page has never been edited.
// InTrash is nil or a non-empty reason string (soft delete is a display
// filter, it does not cascade to children).
type Workspace struct {
	ID             string    `json:"id" db:"id"`
	WorkspaceOwner string    `json:"workspace_owner" db:"workspace_owner"`
	Title          string    `json:"title" db:"title"`
	IconID         string    `json:"icon_id" db:"icon_id"`
	Data           *string   `json:"data" db:"data"`
	InTrash        *string   `json:"in_trash" db:"in_trash"`
	Logo           *string   `json:"logo" db:"logo"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

type Folder struct {
	ID          string    `json:"id" db:"id"`
	WorkspaceID string    `json:"workspace_id" db:"workspace_id"`
	Title       string    `json:"title" db:"title"`
	IconID      string    `json:"icon_id" db:"icon_id"`
	Data        *string   `json:"data" db:"data"`
	InTrash     *string   `json:"in_trash" db:"in_trash"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type File struct {
	ID          string    `json:"id" db:"id"`
	WorkspaceID string    `json:"workspace_id" db:"workspace_id"`
	FolderID    string    `json:"folder_id" db:"folder_id"`
	Title       string    `json:"title" db:"title"`
	IconID      string    `json:"icon_id" db:"icon_id"`
	Data        *string   `json:"data" db:"data"`
	InTrash     *string   `json:"in_trash" db:"in_trash"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Partial updates. Pointer fields distinguish "not provided" (nil) from
// "set to a value"; restoring from trash sets InTrash to the empty string,
// matching the record layer's write shape.
type (
	WorkspaceUpdate struct {
		Title   *string `json:"title,omitempty"`
		IconID  *string `json:"icon_id,omitempty"`
		Data    *string `json:"data,omitempty"`
		InTrash *string `json:"in_trash,omitempty"`
		Logo    *string `json:"logo,omitempty"`
	}

	FolderUpdate struct {
		Title   *string `json:"title,omitempty"`
		IconID  *string `json:"icon_id,omitempty"`
		Data    *string `json:"data,omitempty"`
		InTrash *string `json:"in_trash,omitempty"`
	}

	FileUpdate struct {
		Title   *string `json:"title,omitempty"`
		IconID  *string `json:"icon_id,omitempty"`
		Data    *string `json:"data,omitempty"`
		InTrash *string `json:"in_trash,omitempty"`
	}
)

// Trashed reports whether a reason string marks the node soft-deleted.
func Trashed(inTrash *string) bool {
	return inTrash != nil && *inTrash != ""
}
