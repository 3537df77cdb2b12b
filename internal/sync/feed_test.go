package sync

import (
	"testing"

	"inkwell/internal/domain/models"
	"inkwell/internal/realtime"
	"inkwell/internal/state"
)

func fileChange(kind realtime.FileChangeKind, f models.File) realtime.Message {
	return realtime.Message{Event: realtime.EventFileChange, Change: &realtime.FileChange{Kind: kind, File: f}}
}

func seedWorkspace(store *state.Store) {
	store.Dispatch(state.SetWorkspaces{Workspaces: []state.WorkspaceNode{{
		Workspace: models.Workspace{ID: "w1"},
		Folders:   []state.FolderNode{{Folder: models.Folder{ID: "d1", WorkspaceID: "w1"}}},
	}}})
}

func TestFeed_InsertAddsRowOnce(t *testing.T) {
	r := newRelay()
	client := r.client()
	store := state.NewStore()
	seedWorkspace(store)

	fc := NewFeedConsumer(store, nil, nil, nil)
	fc.Start(client)
	defer fc.Stop()

	row := models.File{ID: "f1", WorkspaceID: "w1", FolderID: "d1", Title: "notes"}
	r.fanOut(fileChange(realtime.FileInserted, row), nil)
	// The same insert arriving again must not duplicate the row.
	r.fanOut(fileChange(realtime.FileInserted, row), nil)

	ws := store.FindWorkspace("w1")
	if got := len(ws.Folders[0].Files); got != 1 {
		t.Fatalf("files = %d, want 1", got)
	}
	if ws.Folders[0].Files[0].Title != "notes" {
		t.Errorf("title = %q, want notes", ws.Folders[0].Files[0].Title)
	}
}

func TestFeed_UpdateMirrorsTitleAndTrash(t *testing.T) {
	r := newRelay()
	client := r.client()
	store := state.NewStore()
	seedWorkspace(store)
	store.Dispatch(state.AddFile{WorkspaceID: "w1", FolderID: "d1", File: models.File{ID: "f1", WorkspaceID: "w1", FolderID: "d1", Title: "notes"}})

	fc := NewFeedConsumer(store, nil, nil, nil)
	fc.Start(client)
	defer fc.Stop()

	reason := "deleted by alice"
	r.fanOut(fileChange(realtime.FileUpdated, models.File{
		ID: "f1", WorkspaceID: "w1", FolderID: "d1", Title: "renamed", InTrash: &reason,
	}), nil)

	_, _, file := store.FindFile("f1")
	if file == nil {
		t.Fatal("file missing after update")
	}
	if file.Title != "renamed" || !models.Trashed(file.InTrash) {
		t.Errorf("file = %+v, want renamed and trashed", file)
	}
}

func TestFeed_DeleteEvictsOpenDocument(t *testing.T) {
	r := newRelay()
	client := r.client()
	store := state.NewStore()
	seedWorkspace(store)
	store.Dispatch(state.AddFile{WorkspaceID: "w1", FolderID: "d1", File: models.File{ID: "f1", WorkspaceID: "w1", FolderID: "d1"}})

	nav := &fakeNav{}
	fc := NewFeedConsumer(store, nav, nil, func() string { return "f1" })
	fc.Start(client)
	defer fc.Stop()

	r.fanOut(fileChange(realtime.FileDeleted, models.File{ID: "f1", WorkspaceID: "w1", FolderID: "d1"}), nil)

	if _, _, file := store.FindFile("f1"); file != nil {
		t.Error("file still in tree after delete")
	}
	if nav.last() != "/dashboard/w1" {
		t.Errorf("redirected to %q, want /dashboard/w1", nav.last())
	}
}

func TestFeed_DeleteOfOtherFileDoesNotNavigate(t *testing.T) {
	r := newRelay()
	client := r.client()
	store := state.NewStore()
	seedWorkspace(store)
	store.Dispatch(state.AddFile{WorkspaceID: "w1", FolderID: "d1", File: models.File{ID: "f2", WorkspaceID: "w1", FolderID: "d1"}})

	nav := &fakeNav{}
	fc := NewFeedConsumer(store, nav, nil, func() string { return "f1" })
	fc.Start(client)
	defer fc.Stop()

	r.fanOut(fileChange(realtime.FileDeleted, models.File{ID: "f2", WorkspaceID: "w1", FolderID: "d1"}), nil)

	if nav.last() != "" {
		t.Errorf("navigated to %q for a background delete", nav.last())
	}
}
