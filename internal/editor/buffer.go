// Package editor provides the in-process rich-text buffer that holds the
// live document for one open node. The buffer is the only component that
// interprets delta content; everything else treats it as opaque.
package editor

import (
	"sync"

	"inkwell/internal/delta"
)

// Source tags where a change originated. Remote deltas applied through
// UpdateContents are flagged SourceAPI so listeners can tell them apart
// from local human input and avoid echoing them back to the room.
type Source string

const (
	SourceUser Source = "user"
	SourceAPI  Source = "api"
)

// Range is a selection or cursor position in the document.
type Range struct {
	Index  int `json:"index"`
	Length int `json:"length"`
}

// ContentHandler receives the change delta and its source.
type ContentHandler func(change *delta.Delta, source Source)

// SelectionHandler receives the new and previous selection.
type SelectionHandler func(r, old *Range, source Source)

// Buffer holds the live editable document.
type Buffer struct {
	mu        sync.Mutex
	contents  *delta.Delta
	selection *Range
	cursors   CursorModule

	nextID      int
	onContent   map[int]ContentHandler
	onSelection map[int]SelectionHandler
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{
		contents:    delta.New(),
		onContent:   make(map[int]ContentHandler),
		onSelection: make(map[int]SelectionHandler),
	}
}

// SetContents replaces the whole document. Listeners see the new document
// as an API-sourced change.
func (b *Buffer) SetContents(doc *delta.Delta) {
	b.mu.Lock()
	b.contents = doc.Clone()
	change := b.contents.Clone()
	handlers := b.contentHandlers()
	b.mu.Unlock()

	for _, h := range handlers {
		h(change, SourceAPI)
	}
}

// GetContents returns a snapshot of the current document.
func (b *Buffer) GetContents() *delta.Delta {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.contents.Clone()
}

// Length returns the current document length in characters.
func (b *Buffer) Length() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.contents.Length()
}

// ApplyUser composes a change produced by local input and notifies
// listeners with SourceUser. This is the entry point local editing flows
// through; a UI front end calls it once per keystroke batch.
func (b *Buffer) ApplyUser(change *delta.Delta) {
	b.apply(change, SourceUser)
}

// UpdateContents composes a remote change without triggering a user
// change event. Listeners are notified with SourceAPI only, which is the
// mechanism that keeps inbound room deltas from being re-broadcast.
func (b *Buffer) UpdateContents(change *delta.Delta) {
	b.apply(change, SourceAPI)
}

func (b *Buffer) apply(change *delta.Delta, source Source) {
	b.mu.Lock()
	b.contents = b.contents.Compose(change)
	handlers := b.contentHandlers()
	b.mu.Unlock()

	for _, h := range handlers {
		h(change, source)
	}
}

// Select moves the local selection and notifies listeners with SourceUser.
func (b *Buffer) Select(r *Range) {
	b.mu.Lock()
	old := b.selection
	b.selection = r
	handlers := make([]SelectionHandler, 0, len(b.onSelection))
	for _, h := range b.onSelection {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(r, old, SourceUser)
	}
}

// Selection returns the current local selection, nil when none.
func (b *Buffer) Selection() *Range {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selection
}

// OnContentChange registers a change listener and returns its disposer.
// The disposer is idempotent and safe to call after the buffer is gone.
func (b *Buffer) OnContentChange(h ContentHandler) (off func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.onContent[id] = h
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.onContent, id)
		b.mu.Unlock()
	}
}

// OnSelectionChange registers a selection listener and returns its disposer.
func (b *Buffer) OnSelectionChange(h SelectionHandler) (off func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.onSelection[id] = h
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.onSelection, id)
		b.mu.Unlock()
	}
}

// SetCursorModule plugs in the cursor-rendering module.
func (b *Buffer) SetCursorModule(m CursorModule) {
	b.mu.Lock()
	b.cursors = m
	b.mu.Unlock()
}

// Cursors returns the plugged-in cursor module, nil when absent.
func (b *Buffer) Cursors() CursorModule {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cursors
}

// contentHandlers snapshots registered handlers; callers hold b.mu.
func (b *Buffer) contentHandlers() []ContentHandler {
	handlers := make([]ContentHandler, 0, len(b.onContent))
	for _, h := range b.onContent {
		handlers = append(handlers, h)
	}
	return handlers
}
