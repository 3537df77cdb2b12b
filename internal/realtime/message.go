// Package realtime carries document-room events between clients and the
// relay server. The server forwards deltas and cursor moves between room
// members verbatim; it does not interpret content.
package realtime

import (
	"inkwell/internal/delta"
	"inkwell/internal/domain/models"
	"inkwell/internal/editor"
)

// Event names on the wire.
type Event string

const (
	// Rooms and content.
	EventCreateRoom        Event = "create-room"
	EventSendChanges       Event = "send-changes"
	EventReceiveChanges    Event = "receive-changes"
	EventSendCursorMove    Event = "send-cursor-move"
	EventReceiveCursorMove Event = "receive-cursor-move"

	// Presence channel, keyed by the same document id.
	EventPresenceTrack Event = "presence-track"
	EventPresenceLeave Event = "presence-leave"
	EventPresenceSync  Event = "presence-sync"

	// Database change feed relay; not room scoped.
	EventFileChange Event = "file-change"
)

// Message is the single wire envelope. Fields beyond Event and RoomID are
// set per event kind; unused fields are omitted.
type Message struct {
	Event    Event                  `json:"event"`
	RoomID   string                 `json:"room_id,omitempty"`
	Delta    *delta.Delta           `json:"delta,omitempty"`
	Range    *editor.Range          `json:"range,omitempty"`
	UserKey  string                 `json:"user_key,omitempty"`
	Identity *models.PresenceEntry  `json:"identity,omitempty"`
	Members  []models.PresenceEntry `json:"members,omitempty"`
	Change   *FileChange            `json:"change,omitempty"`
}

// FileChangeKind mirrors the row-level operation reported by the database
// change feed.
type FileChangeKind string

const (
	FileInserted FileChangeKind = "insert"
	FileUpdated  FileChangeKind = "update"
	FileDeleted  FileChangeKind = "delete"
)

// FileChange is one row-level notification on the files table. The full
// row rides along for all kinds; for deletes it is the old row.
type FileChange struct {
	Kind FileChangeKind `json:"kind"`
	File models.File    `json:"file"`
}
