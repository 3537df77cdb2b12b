// Package sync wires the editor buffer, the record layer, the realtime
// room and the state tree together for one open node at a time. It owns
// the debounce between a keystroke and the database write and the rule
// that remote changes are never re-broadcast.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	stdsync "sync"
	"time"

	"inkwell/internal/delta"
	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/domain/repositories"
	"inkwell/internal/editor"
	"inkwell/internal/presence"
	"inkwell/internal/realtime"
	"inkwell/internal/state"
)

// SaveState is the save-indicator value for an open session.
type SaveState int

const (
	// SaveIdle means everything typed so far is persisted.
	SaveIdle SaveState = iota
	// SaveDirty means local edits are waiting out the debounce window.
	SaveDirty
	// SaveSaving means a persist is in flight.
	SaveSaving
	// SaveFailed means the last persist errored; unsaved edits remain
	// local until the next keystroke retriggers a save.
	SaveFailed
)

func (s SaveState) String() string {
	switch s {
	case SaveIdle:
		return "idle"
	case SaveDirty:
		return "dirty"
	case SaveSaving:
		return "saving"
	case SaveFailed:
		return "save failed"
	default:
		return fmt.Sprintf("SaveState(%d)", int(s))
	}
}

// DefaultDebounce matches the original editor's save delay.
const DefaultDebounce = 850 * time.Millisecond

// Coordinator opens collaborative editing sessions. One Coordinator per
// process; one Session per open node.
type Coordinator struct {
	store      *state.Store
	workspaces repositories.WorkspaceRepository
	folders    repositories.FolderRepository
	files      repositories.FileRepository
	rt         realtime.Client
	nav        Navigator
	logger     *slog.Logger
	debounce   time.Duration
}

type CoordinatorConfig struct {
	Store      *state.Store
	Workspaces repositories.WorkspaceRepository
	Folders    repositories.FolderRepository
	Files      repositories.FileRepository
	Realtime   realtime.Client
	Navigator  Navigator
	Logger     *slog.Logger
	Debounce   time.Duration
}

func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	if cfg.Navigator == nil {
		cfg.Navigator = NopNavigator{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	return &Coordinator{
		store:      cfg.Store,
		workspaces: cfg.Workspaces,
		folders:    cfg.Folders,
		files:      cfg.Files,
		rt:         cfg.Realtime,
		nav:        cfg.Navigator,
		logger:     cfg.Logger,
		debounce:   cfg.Debounce,
	}
}

// Session is one node open for collaborative editing.
type Session struct {
	co  *Coordinator
	buf *editor.Buffer

	kind        models.NodeKind
	id          string
	workspaceID string
	folderID    string
	selfKey     string

	tracker *presence.Tracker

	mu        stdsync.Mutex
	saveState SaveState
	timer     *time.Timer

	closeOnce stdsync.Once
	offs      []func()
}

// Open loads the node, seeds the buffer, joins its room and starts the
// save/broadcast listeners. A missing or malformed id redirects the host
// away from the dead route and returns the underlying error.
func (c *Coordinator) Open(ctx context.Context, kind models.NodeKind, id, workspaceID, folderID string, buf *editor.Buffer, self models.PresenceEntry) (*Session, error) {
	data, err := c.load(ctx, kind, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation) {
			c.redirectAway(kind, workspaceID)
		}
		return nil, err
	}

	doc, err := delta.DecodePtr(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s %s content: %w", kind, id, err)
	}
	if doc.Length() > 0 {
		buf.SetContents(doc)
	}

	s := &Session{
		co:          c,
		buf:         buf,
		kind:        kind,
		id:          id,
		workspaceID: workspaceID,
		folderID:    folderID,
		selfKey:     self.UserID,
		saveState:   SaveIdle,
	}

	cursors := buf.Cursors()
	if cursors == nil {
		cursors = editor.NewMapCursors()
		buf.SetCursorModule(cursors)
	}
	s.tracker = presence.NewTracker(c.rt, cursors, self)
	if err := s.tracker.Join(id); err != nil {
		return nil, fmt.Errorf("join room %s: %w", id, err)
	}

	s.offs = append(s.offs,
		c.rt.On(realtime.EventReceiveChanges, s.onRemoteChange),
		c.rt.On(realtime.EventReceiveCursorMove, s.onRemoteCursor),
		buf.OnContentChange(s.onLocalChange),
		buf.OnSelectionChange(s.onLocalSelection),
	)
	return s, nil
}

func (c *Coordinator) load(ctx context.Context, kind models.NodeKind, id string) (*string, error) {
	switch kind {
	case models.KindWorkspace:
		w, err := c.workspaces.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return w.Data, nil
	case models.KindFolder:
		f, err := c.folders.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return f.Data, nil
	case models.KindFile:
		f, err := c.files.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return f.Data, nil
	default:
		return nil, fmt.Errorf("open %q: %w", kind, domain.ErrValidation)
	}
}

func (c *Coordinator) redirectAway(kind models.NodeKind, workspaceID string) {
	if kind == models.KindWorkspace || workspaceID == "" {
		c.nav.Replace("/dashboard")
		return
	}
	c.nav.Replace("/dashboard/" + workspaceID)
}

// onRemoteChange applies a room delta from another collaborator. The
// buffer tags it SourceAPI, so the local-change listener will not save or
// re-broadcast it.
func (s *Session) onRemoteChange(msg realtime.Message) {
	if msg.RoomID != s.id || msg.Delta == nil {
		return
	}
	s.buf.UpdateContents(msg.Delta)
}

func (s *Session) onRemoteCursor(msg realtime.Message) {
	if msg.RoomID != s.id || msg.UserKey == "" || msg.UserKey == s.selfKey {
		return
	}
	cursors := s.buf.Cursors()
	if cursors == nil {
		return
	}
	// Moves for users whose cursor was never created are dropped.
	cursors.MoveCursor(msg.UserKey, msg.Range)
}

func (s *Session) onLocalChange(change *delta.Delta, source editor.Source) {
	if source != editor.SourceUser {
		return
	}

	if err := s.co.rt.Emit(realtime.Message{
		Event:  realtime.EventSendChanges,
		RoomID: s.id,
		Delta:  change,
	}); err != nil {
		s.co.logger.Warn("broadcast change", "node_id", s.id, "error", err)
	}

	s.mu.Lock()
	s.saveState = SaveDirty
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.co.debounce, s.persist)
	s.mu.Unlock()
}

func (s *Session) onLocalSelection(r, _ *editor.Range, source editor.Source) {
	if source != editor.SourceUser {
		return
	}
	if err := s.co.rt.Emit(realtime.Message{
		Event:   realtime.EventSendCursorMove,
		RoomID:  s.id,
		UserKey: s.selfKey,
		Range:   r,
	}); err != nil {
		s.co.logger.Warn("broadcast cursor", "node_id", s.id, "error", err)
	}
}

// persist writes the full current contents, not the accumulated deltas,
// so coalesced bursts land as one write.
func (s *Session) persist() {
	s.mu.Lock()
	s.saveState = SaveSaving
	s.mu.Unlock()

	encoded, err := delta.Encode(s.buf.GetContents())
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = s.updateData(ctx, encoded)
		cancel()
	}

	s.mu.Lock()
	if err != nil {
		s.saveState = SaveFailed
	} else if s.saveState == SaveSaving {
		// A keystroke during the write re-marks the session dirty; only a
		// quiet write returns to idle.
		s.saveState = SaveIdle
	}
	s.mu.Unlock()

	if err != nil {
		s.co.logger.Error("persist contents", "kind", s.kind, "node_id", s.id, "error", err)
		return
	}
	s.mirrorData(encoded)
}

func (s *Session) updateData(ctx context.Context, encoded string) error {
	switch s.kind {
	case models.KindWorkspace:
		return s.co.workspaces.Update(ctx, s.id, &models.WorkspaceUpdate{Data: &encoded})
	case models.KindFolder:
		return s.co.folders.Update(ctx, s.id, &models.FolderUpdate{Data: &encoded})
	default:
		return s.co.files.Update(ctx, s.id, &models.FileUpdate{Data: &encoded})
	}
}

func (s *Session) mirrorData(encoded string) {
	switch s.kind {
	case models.KindWorkspace:
		s.co.store.Dispatch(state.UpdateWorkspace{WorkspaceID: s.id, Patch: models.WorkspaceUpdate{Data: &encoded}})
	case models.KindFolder:
		s.co.store.Dispatch(state.UpdateFolder{WorkspaceID: s.workspaceID, FolderID: s.id, Patch: models.FolderUpdate{Data: &encoded}})
	default:
		s.co.store.Dispatch(state.UpdateFile{WorkspaceID: s.workspaceID, FolderID: s.folderID, FileID: s.id, Patch: models.FileUpdate{Data: &encoded}})
	}
}

// SaveState reports the current save-indicator value.
func (s *Session) SaveState() SaveState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveState
}

// Restore clears the open node's trash flag.
func (s *Session) Restore(ctx context.Context) error {
	empty := ""
	var err error
	switch s.kind {
	case models.KindWorkspace:
		err = s.co.workspaces.Update(ctx, s.id, &models.WorkspaceUpdate{InTrash: &empty})
		if err == nil {
			s.co.store.Dispatch(state.UpdateWorkspace{WorkspaceID: s.id, Patch: models.WorkspaceUpdate{InTrash: &empty}})
		}
	case models.KindFolder:
		err = s.co.folders.Update(ctx, s.id, &models.FolderUpdate{InTrash: &empty})
		if err == nil {
			s.co.store.Dispatch(state.UpdateFolder{WorkspaceID: s.workspaceID, FolderID: s.id, Patch: models.FolderUpdate{InTrash: &empty}})
		}
	default:
		err = s.co.files.Update(ctx, s.id, &models.FileUpdate{InTrash: &empty})
		if err == nil {
			s.co.store.Dispatch(state.UpdateFile{WorkspaceID: s.workspaceID, FolderID: s.folderID, FileID: s.id, Patch: models.FileUpdate{InTrash: &empty}})
		}
	}
	return err
}

// DeleteNode permanently deletes the open node and navigates the host to
// the nearest surviving ancestor.
func (s *Session) DeleteNode(ctx context.Context) error {
	var err error
	switch s.kind {
	case models.KindWorkspace:
		err = s.co.workspaces.Delete(ctx, s.id)
		if err == nil {
			s.co.store.Dispatch(state.DeleteWorkspace{WorkspaceID: s.id})
		}
	case models.KindFolder:
		err = s.co.folders.Delete(ctx, s.id)
		if err == nil {
			s.co.store.Dispatch(state.DeleteFolder{WorkspaceID: s.workspaceID, FolderID: s.id})
		}
	default:
		err = s.co.files.Delete(ctx, s.id)
		if err == nil {
			s.co.store.Dispatch(state.DeleteFile{WorkspaceID: s.workspaceID, FolderID: s.folderID, FileID: s.id})
		}
	}
	if err != nil {
		return err
	}
	s.co.redirectAway(s.kind, s.workspaceID)
	return nil
}

// Close stops the save timer, detaches every listener and leaves the
// room. Pending unsaved edits are not flushed; callers that want a final
// write call Flush first.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		if s.timer != nil {
			s.timer.Stop()
			s.timer = nil
		}
		s.mu.Unlock()

		for _, off := range s.offs {
			off()
		}
		s.tracker.Leave()
	})
}

// Flush persists immediately, skipping any remaining debounce window.
func (s *Session) Flush() {
	s.mu.Lock()
	dirty := s.saveState == SaveDirty
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	if dirty {
		s.persist()
	}
}
