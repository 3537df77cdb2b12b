// Package state holds the process-wide normalized tree of
// workspace -> folder -> file. The store is the single source of truth for
// rendered documents: initialized empty, populated by bulk-set actions once
// the record layer answers initial queries, then kept live by the sync
// coordinator and the database change feed. Reducer semantics are pure:
// every dispatch produces a fresh snapshot and never mutates a previous
// one, so callers may hold on to snapshots safely.
package state

import (
	"sort"
	"sync"

	"inkwell/internal/domain/models"
)

// FolderNode is a folder plus its ordered files.
type FolderNode struct {
	models.Folder
	Files []models.File `json:"files"`
}

// WorkspaceNode is a workspace plus its ordered folders.
type WorkspaceNode struct {
	models.Workspace
	Folders []FolderNode `json:"folders"`
}

// AppState is one immutable snapshot of the whole tree.
type AppState struct {
	Workspaces []WorkspaceNode `json:"workspaces"`
}

// Store owns the current snapshot. Dispatch is synchronous and serialized,
// which makes the tree single-writer-at-a-time without further locking on
// the caller side.
type Store struct {
	mu    sync.Mutex
	state AppState
}

// NewStore returns a store with an empty tree. Inject the instance where
// it is needed; there is deliberately no package-level singleton.
func NewStore() *Store {
	return &Store{}
}

// State returns the current snapshot.
func (s *Store) State() AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies one action and returns the resulting snapshot. An
// action of an unknown concrete type leaves the state unchanged.
func (s *Store) Dispatch(a Action) AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = reduce(s.state, a)
	return s.state
}

// FindWorkspace returns the workspace node by id, nil when absent.
func (s *Store) FindWorkspace(id string) *WorkspaceNode {
	st := s.State()
	for i := range st.Workspaces {
		if st.Workspaces[i].ID == id {
			w := st.Workspaces[i]
			return &w
		}
	}
	return nil
}

// FindFile resolves a file by id, also reporting its workspace and folder.
func (s *Store) FindFile(fileID string) (workspaceID, folderID string, file *models.File) {
	st := s.State()
	for wi := range st.Workspaces {
		for fi := range st.Workspaces[wi].Folders {
			folder := &st.Workspaces[wi].Folders[fi]
			for k := range folder.Files {
				if folder.Files[k].ID == fileID {
					f := folder.Files[k]
					return st.Workspaces[wi].ID, folder.ID, &f
				}
			}
		}
	}
	return "", "", nil
}

func reduce(st AppState, a Action) AppState {
	switch a := a.(type) {
	case AddWorkspace:
		next := cloneWorkspaces(st.Workspaces)
		next = append(next, a.Workspace)
		sortWorkspaces(next)
		return AppState{Workspaces: next}

	case UpdateWorkspace:
		return mapWorkspaces(st, a.WorkspaceID, func(w *WorkspaceNode) {
			applyWorkspacePatch(&w.Workspace, a.Patch)
		})

	case DeleteWorkspace:
		next := make([]WorkspaceNode, 0, len(st.Workspaces))
		for _, w := range st.Workspaces {
			if w.ID != a.WorkspaceID {
				next = append(next, w)
			}
		}
		return AppState{Workspaces: next}

	case SetWorkspaces:
		next := cloneWorkspaces(a.Workspaces)
		sortWorkspaces(next)
		return AppState{Workspaces: next}

	case AddFolder:
		return mapWorkspaces(st, a.WorkspaceID, func(w *WorkspaceNode) {
			w.Folders = append(cloneFolders(w.Folders), a.Folder)
			sortFolders(w.Folders)
		})

	case UpdateFolder:
		return mapWorkspaces(st, a.WorkspaceID, func(w *WorkspaceNode) {
			w.Folders = cloneFolders(w.Folders)
			for i := range w.Folders {
				if w.Folders[i].ID == a.FolderID {
					applyFolderPatch(&w.Folders[i].Folder, a.Patch)
				}
			}
		})

	case DeleteFolder:
		return mapWorkspaces(st, a.WorkspaceID, func(w *WorkspaceNode) {
			next := make([]FolderNode, 0, len(w.Folders))
			for _, f := range w.Folders {
				if f.ID != a.FolderID {
					next = append(next, f)
				}
			}
			w.Folders = next
		})

	case SetFolders:
		return mapWorkspaces(st, a.WorkspaceID, func(w *WorkspaceNode) {
			w.Folders = cloneFolders(a.Folders)
			sortFolders(w.Folders)
		})

	case AddFile:
		return mapFolder(st, a.WorkspaceID, a.FolderID, func(f *FolderNode) {
			f.Files = append(cloneFiles(f.Files), a.File)
			sortFiles(f.Files)
		})

	case UpdateFile:
		return mapFolder(st, a.WorkspaceID, a.FolderID, func(f *FolderNode) {
			f.Files = cloneFiles(f.Files)
			for i := range f.Files {
				if f.Files[i].ID == a.FileID {
					applyFilePatch(&f.Files[i], a.Patch)
				}
			}
		})

	case DeleteFile:
		return mapFolder(st, a.WorkspaceID, a.FolderID, func(f *FolderNode) {
			next := make([]models.File, 0, len(f.Files))
			for _, file := range f.Files {
				if file.ID != a.FileID {
					next = append(next, file)
				}
			}
			f.Files = next
		})

	case SetFiles:
		return mapFolder(st, a.WorkspaceID, a.FolderID, func(f *FolderNode) {
			f.Files = cloneFiles(a.Files)
			sortFiles(f.Files)
		})

	default:
		// Unknown actions must not reset the tree; state stays as-is.
		return st
	}
}

// mapWorkspaces rebuilds the workspace list, letting fn rewrite the one
// matching workspace on its own copy.
func mapWorkspaces(st AppState, workspaceID string, fn func(*WorkspaceNode)) AppState {
	next := make([]WorkspaceNode, len(st.Workspaces))
	for i, w := range st.Workspaces {
		if w.ID == workspaceID {
			fn(&w)
		}
		next[i] = w
	}
	return AppState{Workspaces: next}
}

func mapFolder(st AppState, workspaceID, folderID string, fn func(*FolderNode)) AppState {
	return mapWorkspaces(st, workspaceID, func(w *WorkspaceNode) {
		folders := cloneFolders(w.Folders)
		for i := range folders {
			if folders[i].ID == folderID {
				fn(&folders[i])
			}
		}
		w.Folders = folders
	})
}

func cloneWorkspaces(in []WorkspaceNode) []WorkspaceNode {
	out := make([]WorkspaceNode, len(in))
	copy(out, in)
	return out
}

func cloneFolders(in []FolderNode) []FolderNode {
	out := make([]FolderNode, len(in))
	copy(out, in)
	return out
}

func cloneFiles(in []models.File) []models.File {
	out := make([]models.File, len(in))
	copy(out, in)
	return out
}

// Sibling collections stay sorted ascending by created_at; created_at is
// the sole sort key.
func sortWorkspaces(ws []WorkspaceNode) {
	sort.SliceStable(ws, func(i, j int) bool {
		return ws[i].CreatedAt.Before(ws[j].CreatedAt)
	})
}

func sortFolders(fs []FolderNode) {
	sort.SliceStable(fs, func(i, j int) bool {
		return fs[i].CreatedAt.Before(fs[j].CreatedAt)
	})
}

func sortFiles(fs []models.File) {
	sort.SliceStable(fs, func(i, j int) bool {
		return fs[i].CreatedAt.Before(fs[j].CreatedAt)
	})
}

func applyWorkspacePatch(w *models.Workspace, p models.WorkspaceUpdate) {
	if p.Title != nil {
		w.Title = *p.Title
	}
	if p.IconID != nil {
		w.IconID = *p.IconID
	}
	if p.Data != nil {
		w.Data = p.Data
	}
	if p.InTrash != nil {
		w.InTrash = p.InTrash
	}
	if p.Logo != nil {
		w.Logo = p.Logo
	}
}

func applyFolderPatch(f *models.Folder, p models.FolderUpdate) {
	if p.Title != nil {
		f.Title = *p.Title
	}
	if p.IconID != nil {
		f.IconID = *p.IconID
	}
	if p.Data != nil {
		f.Data = p.Data
	}
	if p.InTrash != nil {
		f.InTrash = p.InTrash
	}
}

func applyFilePatch(f *models.File, p models.FileUpdate) {
	if p.Title != nil {
		f.Title = *p.Title
	}
	if p.IconID != nil {
		f.IconID = *p.IconID
	}
	if p.Data != nil {
		f.Data = p.Data
	}
	if p.InTrash != nil {
		f.InTrash = p.InTrash
	}
}
