package state

import (
	"testing"
	"time"

	"inkwell/internal/domain/models"
)

func at(sec int) time.Time {
	return time.Date(2024, 3, 1, 12, 0, sec, 0, time.UTC)
}

func workspace(id string, sec int) WorkspaceNode {
	return WorkspaceNode{Workspace: models.Workspace{ID: id, Title: id, CreatedAt: at(sec)}}
}

func folder(id, workspaceID string, sec int) FolderNode {
	return FolderNode{Folder: models.Folder{ID: id, WorkspaceID: workspaceID, Title: id, CreatedAt: at(sec)}}
}

func file(id, workspaceID, folderID string, sec int) models.File {
	return models.File{ID: id, WorkspaceID: workspaceID, FolderID: folderID, Title: id, CreatedAt: at(sec)}
}

func TestStore_SiblingsSortedByCreatedAt(t *testing.T) {
	s := NewStore()
	s.Dispatch(SetWorkspaces{Workspaces: []WorkspaceNode{workspace("w1", 0)}})

	// Add folders out of creation order.
	s.Dispatch(AddFolder{WorkspaceID: "w1", Folder: folder("f-late", "w1", 30)})
	s.Dispatch(AddFolder{WorkspaceID: "w1", Folder: folder("f-early", "w1", 10)})
	s.Dispatch(AddFolder{WorkspaceID: "w1", Folder: folder("f-mid", "w1", 20)})

	got := s.FindWorkspace("w1")
	if got == nil {
		t.Fatal("workspace missing")
	}
	wantOrder := []string{"f-early", "f-mid", "f-late"}
	for i, want := range wantOrder {
		if got.Folders[i].ID != want {
			t.Errorf("folder[%d] = %s, want %s", i, got.Folders[i].ID, want)
		}
	}

	// Same invariant for files within a folder.
	s.Dispatch(AddFile{WorkspaceID: "w1", FolderID: "f-early", File: file("file-b", "w1", "f-early", 2)})
	s.Dispatch(AddFile{WorkspaceID: "w1", FolderID: "f-early", File: file("file-a", "w1", "f-early", 1)})

	got = s.FindWorkspace("w1")
	files := got.Folders[0].Files
	if len(files) != 2 || files[0].ID != "file-a" || files[1].ID != "file-b" {
		t.Errorf("files out of order: %+v", files)
	}
}

func TestStore_BulkSetSorts(t *testing.T) {
	s := NewStore()
	s.Dispatch(SetWorkspaces{Workspaces: []WorkspaceNode{workspace("w1", 0)}})
	s.Dispatch(SetFolders{WorkspaceID: "w1", Folders: []FolderNode{
		folder("f2", "w1", 2),
		folder("f1", "w1", 1),
	}})

	got := s.FindWorkspace("w1")
	if got.Folders[0].ID != "f1" || got.Folders[1].ID != "f2" {
		t.Errorf("SetFolders did not sort: %+v", got.Folders)
	}
}

type bogusAction struct{}

func (bogusAction) isAction() {}

func TestStore_UnknownActionLeavesStateUnchanged(t *testing.T) {
	s := NewStore()
	s.Dispatch(SetWorkspaces{Workspaces: []WorkspaceNode{workspace("w1", 0)}})

	before := s.State()
	after := s.Dispatch(bogusAction{})

	if len(after.Workspaces) != len(before.Workspaces) {
		t.Fatalf("unknown action changed state: before %d workspaces, after %d",
			len(before.Workspaces), len(after.Workspaces))
	}
	if len(after.Workspaces) == 0 {
		t.Fatal("unknown action reset state to empty")
	}
}

func TestStore_DispatchNeverMutatesEarlierSnapshots(t *testing.T) {
	s := NewStore()
	s.Dispatch(SetWorkspaces{Workspaces: []WorkspaceNode{workspace("w1", 0)}})
	s.Dispatch(AddFolder{WorkspaceID: "w1", Folder: folder("f1", "w1", 1)})

	before := s.State()
	beforeFolders := len(before.Workspaces[0].Folders)

	s.Dispatch(AddFolder{WorkspaceID: "w1", Folder: folder("f2", "w1", 2)})
	title := "renamed"
	s.Dispatch(UpdateFolder{WorkspaceID: "w1", FolderID: "f1", Patch: models.FolderUpdate{Title: &title}})

	// The earlier snapshot must be untouched by later dispatches.
	if got := len(before.Workspaces[0].Folders); got != beforeFolders {
		t.Errorf("earlier snapshot grew: %d folders, want %d", got, beforeFolders)
	}
	if got := before.Workspaces[0].Folders[0].Title; got != "f1" {
		t.Errorf("earlier snapshot folder title = %q, want %q", got, "f1")
	}
}

func TestStore_UpdateAndDelete(t *testing.T) {
	s := NewStore()
	s.Dispatch(SetWorkspaces{Workspaces: []WorkspaceNode{workspace("w1", 0)}})
	s.Dispatch(AddFolder{WorkspaceID: "w1", Folder: folder("f1", "w1", 1)})
	s.Dispatch(AddFile{WorkspaceID: "w1", FolderID: "f1", File: file("a", "w1", "f1", 2)})

	// Patch the file's trash flag.
	reason := "deleted by tester"
	s.Dispatch(UpdateFile{
		WorkspaceID: "w1", FolderID: "f1", FileID: "a",
		Patch: models.FileUpdate{InTrash: &reason},
	})
	_, _, got := s.FindFile("a")
	if got == nil || !models.Trashed(got.InTrash) {
		t.Fatalf("file not trashed: %+v", got)
	}

	// Trash on the folder must not touch the file's own flag.
	s.Dispatch(UpdateFolder{
		WorkspaceID: "w1", FolderID: "f1",
		Patch: models.FolderUpdate{InTrash: &reason},
	})
	_, _, got = s.FindFile("a")
	if got == nil {
		t.Fatal("file vanished after folder trash")
	}

	s.Dispatch(DeleteFile{WorkspaceID: "w1", FolderID: "f1", FileID: "a"})
	if _, _, got := s.FindFile("a"); got != nil {
		t.Errorf("file survived delete: %+v", got)
	}

	s.Dispatch(DeleteWorkspace{WorkspaceID: "w1"})
	if s.FindWorkspace("w1") != nil {
		t.Error("workspace survived delete")
	}
}

func TestStore_PatchSemantics(t *testing.T) {
	s := NewStore()
	s.Dispatch(SetWorkspaces{Workspaces: []WorkspaceNode{workspace("w1", 0)}})

	title := "renamed"
	s.Dispatch(UpdateWorkspace{WorkspaceID: "w1", Patch: models.WorkspaceUpdate{Title: &title}})

	got := s.FindWorkspace("w1")
	if got.Title != "renamed" {
		t.Errorf("Title = %q, want %q", got.Title, "renamed")
	}
	// Fields absent from the patch are untouched.
	if !got.CreatedAt.Equal(at(0)) {
		t.Errorf("CreatedAt changed by patch: %v", got.CreatedAt)
	}
}
