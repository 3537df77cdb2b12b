package editor

import "sync"

// CursorModule renders labeled collaborator cursors keyed by a stable
// per-user key. A UI front end supplies its own implementation; the
// in-memory one below backs headless clients and tests.
type CursorModule interface {
	CreateCursor(key, label, color string)
	// MoveCursor repositions an existing cursor. Moving a key that was
	// never created reports false and does nothing; callers drop such
	// events silently.
	MoveCursor(key string, r *Range) bool
	RemoveCursor(key string)
}

// Cursor is one rendered collaborator cursor.
type Cursor struct {
	Key   string
	Label string
	Color string
	Range *Range
}

// MapCursors is the in-memory CursorModule.
type MapCursors struct {
	mu      sync.Mutex
	cursors map[string]*Cursor
}

func NewMapCursors() *MapCursors {
	return &MapCursors{cursors: make(map[string]*Cursor)}
}

func (m *MapCursors) CreateCursor(key, label, color string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cursors[key]; ok {
		return
	}
	m.cursors[key] = &Cursor{Key: key, Label: label, Color: color}
}

func (m *MapCursors) MoveCursor(key string, r *Range) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cursors[key]
	if !ok {
		return false
	}
	c.Range = r
	return true
}

func (m *MapCursors) RemoveCursor(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cursors, key)
}

// Get returns the cursor for a key, nil when absent.
func (m *MapCursors) Get(key string) *Cursor {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cursors[key]
	if !ok {
		return nil
	}
	copied := *c
	return &copied
}

// Keys lists the keys of all rendered cursors.
func (m *MapCursors) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.cursors))
	for k := range m.cursors {
		keys = append(keys, k)
	}
	return keys
}

var _ CursorModule = (*MapCursors)(nil)
