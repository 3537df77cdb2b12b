package sync

import (
	"log/slog"

	"inkwell/internal/domain/models"
	"inkwell/internal/realtime"
	"inkwell/internal/state"
)

// FeedConsumer mirrors server-pushed file table changes into the state
// tree, keeping the dashboard live for rows this client never touched.
// It also evicts the host from a document another collaborator deleted.
type FeedConsumer struct {
	store  *state.Store
	nav    Navigator
	logger *slog.Logger

	// currentNode reports the id of the node open in the host, empty when
	// none. Used to decide whether a delete must navigate away.
	currentNode func() string

	off func()
}

func NewFeedConsumer(store *state.Store, nav Navigator, logger *slog.Logger, currentNode func() string) *FeedConsumer {
	if nav == nil {
		nav = NopNavigator{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if currentNode == nil {
		currentNode = func() string { return "" }
	}
	return &FeedConsumer{store: store, nav: nav, logger: logger, currentNode: currentNode}
}

// Start subscribes to the change feed. Call Stop to detach.
func (fc *FeedConsumer) Start(client realtime.Client) {
	fc.off = client.On(realtime.EventFileChange, fc.onChange)
}

func (fc *FeedConsumer) Stop() {
	if fc.off != nil {
		fc.off()
		fc.off = nil
	}
}

func (fc *FeedConsumer) onChange(msg realtime.Message) {
	if msg.Change == nil {
		return
	}
	file := msg.Change.File

	switch msg.Change.Kind {
	case realtime.FileInserted:
		// The inserting client already dispatched its own add; skip the
		// echo so the row does not appear twice.
		if _, _, existing := fc.store.FindFile(file.ID); existing != nil {
			return
		}
		fc.store.Dispatch(state.AddFile{
			WorkspaceID: file.WorkspaceID,
			FolderID:    file.FolderID,
			File:        file,
		})
	case realtime.FileUpdated:
		fc.store.Dispatch(state.UpdateFile{
			WorkspaceID: file.WorkspaceID,
			FolderID:    file.FolderID,
			FileID:      file.ID,
			Patch: models.FileUpdate{
				Title:   &file.Title,
				IconID:  &file.IconID,
				InTrash: inTrashOrEmpty(file.InTrash),
			},
		})
	case realtime.FileDeleted:
		fc.store.Dispatch(state.DeleteFile{
			WorkspaceID: file.WorkspaceID,
			FolderID:    file.FolderID,
			FileID:      file.ID,
		})
		if fc.currentNode() == file.ID {
			fc.nav.Replace("/dashboard/" + file.WorkspaceID)
		}
	default:
		fc.logger.Debug("unknown file change kind", "kind", msg.Change.Kind)
	}
}

// inTrashOrEmpty normalizes a nil trash flag to an explicit clear so the
// patched row never keeps a stale flag.
func inTrashOrEmpty(v *string) *string {
	if v != nil {
		return v
	}
	empty := ""
	return &empty
}
