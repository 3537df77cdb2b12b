package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"testing"
	"time"

	"inkwell/internal/delta"
	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/editor"
	"inkwell/internal/realtime"
	"inkwell/internal/state"
)

// fakeFiles is an in-memory FileRepository recording every Update call.
type fakeFiles struct {
	mu      stdsync.Mutex
	rows    map[string]*models.File
	updates []models.FileUpdate
	failing bool
}

func newFakeFiles(rows ...*models.File) *fakeFiles {
	f := &fakeFiles{rows: make(map[string]*models.File)}
	for _, r := range rows {
		f.rows[r.ID] = r
	}
	return f
}

func (f *fakeFiles) Create(_ context.Context, file *models.File) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[file.ID] = file
	return nil
}

func (f *fakeFiles) GetByID(_ context.Context, id string) (*models.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *row
	return &copied, nil
}

func (f *fakeFiles) Update(_ context.Context, id string, patch *models.FileUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("connection reset")
	}
	row, ok := f.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	if patch.Data != nil {
		row.Data = patch.Data
	}
	if patch.InTrash != nil {
		row.InTrash = patch.InTrash
	}
	f.updates = append(f.updates, *patch)
	return nil
}

func (f *fakeFiles) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

func (f *fakeFiles) ListByFolder(context.Context, string) ([]models.File, error) {
	return nil, nil
}

func (f *fakeFiles) dataUpdates() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, u := range f.updates {
		if u.Data != nil {
			out = append(out, *u.Data)
		}
	}
	return out
}

// fakeWorkspaces is an empty WorkspaceRepository; every lookup misses.
type fakeWorkspaces struct{}

func (fakeWorkspaces) Create(ctx context.Context, w *models.Workspace) error { return nil }
func (fakeWorkspaces) GetByID(ctx context.Context, id string) (*models.Workspace, error) {
	return nil, domain.ErrNotFound
}
func (fakeWorkspaces) Update(ctx context.Context, id string, patch *models.WorkspaceUpdate) error {
	return domain.ErrNotFound
}
func (fakeWorkspaces) Delete(ctx context.Context, id string) error { return domain.ErrNotFound }
func (fakeWorkspaces) ListPrivate(ctx context.Context, userID string) ([]models.Workspace, error) {
	return nil, nil
}
func (fakeWorkspaces) ListCollaborating(ctx context.Context, userID string) ([]models.Workspace, error) {
	return nil, nil
}

type fakeNav struct {
	mu    stdsync.Mutex
	paths []string
}

func (n *fakeNav) Replace(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func (n *fakeNav) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.paths) == 0 {
		return ""
	}
	return n.paths[len(n.paths)-1]
}

// relay is an in-process stand-in for the server hub. Every relayClient
// attached to it sees the relayed form of the others' emits.
type relay struct {
	mu      stdsync.Mutex
	clients []*relayClient
	members map[string]models.PresenceEntry
}

func newRelay() *relay {
	return &relay{members: make(map[string]models.PresenceEntry)}
}

func (r *relay) client() *relayClient {
	c := &relayClient{relay: r, handlers: make(map[realtime.Event][]realtime.Handler)}
	r.mu.Lock()
	r.clients = append(r.clients, c)
	r.mu.Unlock()
	return c
}

type relayClient struct {
	relay    *relay
	mu       stdsync.Mutex
	handlers map[realtime.Event][]realtime.Handler
	emitted  []realtime.Message
}

func (c *relayClient) JoinRoom(string) error { return nil }

func (c *relayClient) Emit(msg realtime.Message) error {
	c.mu.Lock()
	c.emitted = append(c.emitted, msg)
	c.mu.Unlock()

	switch msg.Event {
	case realtime.EventSendChanges:
		msg.Event = realtime.EventReceiveChanges
		c.relay.fanOut(msg, c)
	case realtime.EventSendCursorMove:
		msg.Event = realtime.EventReceiveCursorMove
		c.relay.fanOut(msg, c)
	case realtime.EventPresenceTrack:
		c.relay.mu.Lock()
		c.relay.members[msg.Identity.UserID] = *msg.Identity
		roster := realtime.Message{Event: realtime.EventPresenceSync, RoomID: msg.RoomID}
		for _, m := range c.relay.members {
			roster.Members = append(roster.Members, m)
		}
		c.relay.mu.Unlock()
		c.relay.fanOut(roster, nil)
	}
	return nil
}

func (c *relayClient) On(event realtime.Event, h realtime.Handler) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = append(c.handlers[event], h)
	i := len(c.handlers[event]) - 1
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if i < len(c.handlers[event]) && c.handlers[event][i] != nil {
			c.handlers[event][i] = func(realtime.Message) {}
		}
	}
}

func (c *relayClient) Close() error { return nil }

func (c *relayClient) sends(event realtime.Event) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range c.emitted {
		if m.Event == event {
			n++
		}
	}
	return n
}

func (r *relay) fanOut(msg realtime.Message, exclude *relayClient) {
	r.mu.Lock()
	clients := append([]*relayClient(nil), r.clients...)
	r.mu.Unlock()
	for _, c := range clients {
		if c == exclude {
			continue
		}
		c.mu.Lock()
		handlers := append([]realtime.Handler(nil), c.handlers[msg.Event]...)
		c.mu.Unlock()
		for _, h := range handlers {
			h(msg)
		}
	}
}

func testCoordinator(t *testing.T, files *fakeFiles, rt realtime.Client, nav Navigator) *Coordinator {
	t.Helper()
	return NewCoordinator(CoordinatorConfig{
		Store:    state.NewStore(),
		Files:    files,
		Realtime: rt,
		Navigator: nav,
		Debounce: 30 * time.Millisecond,
	})
}

func encoded(t *testing.T, d *delta.Delta) *string {
	t.Helper()
	s, err := delta.Encode(d)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return &s
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}

func TestOpen_SeedsBufferFromStoredContent(t *testing.T) {
	files := newFakeFiles(&models.File{
		ID:          "f1",
		WorkspaceID: "w1",
		FolderID:    "d1",
		Data:        encoded(t, delta.New().Insert("hello", nil)),
	})
	co := testCoordinator(t, files, newRelay().client(), nil)

	buf := editor.NewBuffer()
	s, err := co.Open(context.Background(), models.KindFile, "f1", "w1", "d1", buf, models.PresenceEntry{UserID: "me"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if got := buf.GetContents().PlainText(); got != "hello" {
		t.Errorf("buffer = %q, want hello", got)
	}
	if s.SaveState() != SaveIdle {
		t.Errorf("save state = %v, want idle", s.SaveState())
	}
}

func TestOpen_MissingNodeRedirectsToWorkspace(t *testing.T) {
	nav := &fakeNav{}
	co := testCoordinator(t, newFakeFiles(), newRelay().client(), nav)

	_, err := co.Open(context.Background(), models.KindFile, "gone", "w1", "d1", editor.NewBuffer(), models.PresenceEntry{UserID: "me"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if nav.last() != "/dashboard/w1" {
		t.Errorf("redirected to %q, want /dashboard/w1", nav.last())
	}
}

func TestOpen_MissingWorkspaceRedirectsToDashboard(t *testing.T) {
	nav := &fakeNav{}
	co := NewCoordinator(CoordinatorConfig{
		Store:      state.NewStore(),
		Workspaces: fakeWorkspaces{},
		Files:      newFakeFiles(),
		Realtime:   newRelay().client(),
		Navigator:  nav,
		Debounce:   30 * time.Millisecond,
	})

	_, err := co.Open(context.Background(), models.KindWorkspace, "gone", "gone", "", editor.NewBuffer(), models.PresenceEntry{UserID: "me"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if nav.last() != "/dashboard" {
		t.Errorf("redirected to %q, want /dashboard", nav.last())
	}
}

func TestSession_DebounceCoalescesBurstIntoOneWrite(t *testing.T) {
	files := newFakeFiles(&models.File{ID: "f1", WorkspaceID: "w1", FolderID: "d1"})
	co := testCoordinator(t, files, newRelay().client(), nil)

	buf := editor.NewBuffer()
	s, err := co.Open(context.Background(), models.KindFile, "f1", "w1", "d1", buf, models.PresenceEntry{UserID: "me"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	buf.ApplyUser(delta.New().Insert("h", nil))
	buf.ApplyUser(delta.New().Retain(1, nil).Insert("e", nil))
	buf.ApplyUser(delta.New().Retain(2, nil).Insert("y", nil))
	if s.SaveState() != SaveDirty {
		t.Errorf("save state during burst = %v, want dirty", s.SaveState())
	}

	waitUntil(t, func() bool { return len(files.dataUpdates()) > 0 })
	time.Sleep(100 * time.Millisecond)

	updates := files.dataUpdates()
	if len(updates) != 1 {
		t.Fatalf("persisted %d times, want 1", len(updates))
	}
	saved, err := delta.Decode(updates[0])
	if err != nil {
		t.Fatalf("Decode saved: %v", err)
	}
	if saved.PlainText() != "hey" {
		t.Errorf("saved %q, want hey", saved.PlainText())
	}
	if s.SaveState() != SaveIdle {
		t.Errorf("save state after persist = %v, want idle", s.SaveState())
	}
}

func TestSession_FailedPersistSetsSaveFailed(t *testing.T) {
	files := newFakeFiles(&models.File{ID: "f1", WorkspaceID: "w1", FolderID: "d1"})
	co := testCoordinator(t, files, newRelay().client(), nil)

	buf := editor.NewBuffer()
	s, err := co.Open(context.Background(), models.KindFile, "f1", "w1", "d1", buf, models.PresenceEntry{UserID: "me"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	files.mu.Lock()
	files.failing = true
	files.mu.Unlock()

	buf.ApplyUser(delta.New().Insert("x", nil))
	waitUntil(t, func() bool { return s.SaveState() == SaveFailed })

	// The next keystroke retries the whole contents.
	files.mu.Lock()
	files.failing = false
	files.mu.Unlock()

	buf.ApplyUser(delta.New().Retain(1, nil).Insert("y", nil))
	waitUntil(t, func() bool { return s.SaveState() == SaveIdle })

	updates := files.dataUpdates()
	saved, _ := delta.Decode(updates[len(updates)-1])
	if saved.PlainText() != "xy" {
		t.Errorf("saved %q after retry, want xy", saved.PlainText())
	}
}

func TestTwoCollaborators_RemoteEditNeverEchoesOrSaves(t *testing.T) {
	r := newRelay()
	fileA := &models.File{ID: "f1", WorkspaceID: "w1", FolderID: "d1"}
	fileB := *fileA
	filesA := newFakeFiles(fileA)
	filesB := newFakeFiles(&fileB)

	clientA := r.client()
	clientB := r.client()
	coA := testCoordinator(t, filesA, clientA, nil)
	coB := testCoordinator(t, filesB, clientB, nil)

	bufA := editor.NewBuffer()
	sessA, err := coA.Open(context.Background(), models.KindFile, "f1", "w1", "d1", bufA, models.PresenceEntry{UserID: "alice", DisplayName: "alice"})
	if err != nil {
		t.Fatalf("Open A: %v", err)
	}
	defer sessA.Close()

	bufB := editor.NewBuffer()
	sessB, err := coB.Open(context.Background(), models.KindFile, "f1", "w1", "d1", bufB, models.PresenceEntry{UserID: "bob", DisplayName: "bob"})
	if err != nil {
		t.Fatalf("Open B: %v", err)
	}
	defer sessB.Close()

	bufA.ApplyUser(delta.New().Insert("hi", nil))
	waitUntil(t, func() bool { return bufB.GetContents().PlainText() == "hi" })

	if n := clientB.sends(realtime.EventSendChanges); n != 0 {
		t.Errorf("b re-broadcast %d inbound changes, want 0", n)
	}
	if sessB.SaveState() != SaveIdle {
		t.Errorf("b save state = %v, want idle after remote-only edit", sessB.SaveState())
	}

	// A's cursor reaches B's cursor module once presence created it.
	waitUntil(t, func() bool { return bufB.Cursors().(*editor.MapCursors).Get("alice") != nil })
	bufA.Select(&editor.Range{Index: 2, Length: 0})
	waitUntil(t, func() bool {
		c := bufB.Cursors().(*editor.MapCursors).Get("alice")
		return c != nil && c.Range != nil && c.Range.Index == 2
	})
}

func TestSession_CursorMoveForUnknownUserIsDropped(t *testing.T) {
	r := newRelay()
	files := newFakeFiles(&models.File{ID: "f1", WorkspaceID: "w1", FolderID: "d1"})
	clientA := r.client()
	clientB := r.client()
	co := testCoordinator(t, files, clientB, nil)

	buf := editor.NewBuffer()
	s, err := co.Open(context.Background(), models.KindFile, "f1", "w1", "d1", buf, models.PresenceEntry{UserID: "bob"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	// A moved a cursor without ever tracking presence.
	clientA.Emit(realtime.Message{
		Event:   realtime.EventSendCursorMove,
		RoomID:  "f1",
		UserKey: "ghost",
		Range:   &editor.Range{Index: 1},
	})

	if buf.Cursors().(*editor.MapCursors).Get("ghost") != nil {
		t.Error("cursor created for a user presence never announced")
	}
}

func TestSession_RestoreAndDelete(t *testing.T) {
	reason := "deleted by alice"
	files := newFakeFiles(&models.File{ID: "f1", WorkspaceID: "w1", FolderID: "d1", InTrash: &reason})
	nav := &fakeNav{}
	co := testCoordinator(t, files, newRelay().client(), nav)

	buf := editor.NewBuffer()
	s, err := co.Open(context.Background(), models.KindFile, "f1", "w1", "d1", buf, models.PresenceEntry{UserID: "me"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if err := s.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	row, _ := files.GetByID(context.Background(), "f1")
	if models.Trashed(row.InTrash) {
		t.Error("row still trashed after restore")
	}

	if err := s.DeleteNode(context.Background()); err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}
	if _, err := files.GetByID(context.Background(), "f1"); !errors.Is(err, domain.ErrNotFound) {
		t.Error("row survived delete")
	}
	if nav.last() != "/dashboard/w1" {
		t.Errorf("redirected to %q after delete, want /dashboard/w1", nav.last())
	}
}

func TestSession_FlushSkipsDebounceWindow(t *testing.T) {
	files := newFakeFiles(&models.File{ID: "f1", WorkspaceID: "w1", FolderID: "d1"})
	co := NewCoordinator(CoordinatorConfig{
		Store:    state.NewStore(),
		Files:    files,
		Realtime: newRelay().client(),
		Debounce: time.Hour,
	})

	buf := editor.NewBuffer()
	s, err := co.Open(context.Background(), models.KindFile, "f1", "w1", "d1", buf, models.PresenceEntry{UserID: "me"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	buf.ApplyUser(delta.New().Insert("draft", nil))
	s.Flush()

	updates := files.dataUpdates()
	if len(updates) != 1 {
		t.Fatalf("persisted %d times after flush, want 1", len(updates))
	}
	saved, _ := delta.Decode(updates[0])
	if saved.PlainText() != "draft" {
		t.Errorf("saved %q, want draft", saved.PlainText())
	}
}
