// Package presence mirrors who else has a document open and keeps a
// remote cursor alive in the editor for each of them.
package presence

import (
	"fmt"
	"math/rand"
	"sync"

	"inkwell/internal/domain/models"
	"inkwell/internal/editor"
	"inkwell/internal/realtime"
)

// Tracker joins a document room's presence channel, maintains the peer
// list from full-state sync events and drives the editor cursor module.
// One Tracker per open document.
type Tracker struct {
	client  realtime.Client
	cursors editor.CursorModule
	self    models.PresenceEntry

	mu     sync.Mutex
	roomID string
	peers  map[string]models.PresenceEntry
	colors map[string]string
	off    func()
}

func NewTracker(client realtime.Client, cursors editor.CursorModule, self models.PresenceEntry) *Tracker {
	return &Tracker{
		client:  client,
		cursors: cursors,
		self:    self,
		peers:   make(map[string]models.PresenceEntry),
		colors:  make(map[string]string),
	}
}

// Join announces this user into the room and starts consuming sync
// events. Joining while already joined leaves the first room.
func (t *Tracker) Join(roomID string) error {
	t.Leave()

	t.mu.Lock()
	t.roomID = roomID
	t.off = t.client.On(realtime.EventPresenceSync, t.onSync)
	t.mu.Unlock()

	if err := t.client.JoinRoom(roomID); err != nil {
		return err
	}
	return t.client.Emit(realtime.Message{
		Event:    realtime.EventPresenceTrack,
		RoomID:   roomID,
		Identity: &t.self,
	})
}

func (t *Tracker) onSync(msg realtime.Message) {
	t.mu.Lock()
	if msg.RoomID != t.roomID {
		t.mu.Unlock()
		return
	}

	seen := make(map[string]bool, len(msg.Members))
	var created, departed []models.PresenceEntry
	for _, m := range msg.Members {
		if m.UserID == t.self.UserID {
			continue
		}
		seen[m.UserID] = true
		if _, known := t.peers[m.UserID]; !known {
			m.CursorColor = t.colorFor(m.UserID)
			created = append(created, m)
		}
		t.peers[m.UserID] = m
	}
	for id, p := range t.peers {
		if !seen[id] {
			departed = append(departed, p)
			delete(t.peers, id)
		}
	}
	t.mu.Unlock()

	for _, p := range created {
		t.cursors.CreateCursor(p.UserID, p.DisplayName, p.CursorColor)
	}
	for _, p := range departed {
		t.cursors.RemoveCursor(p.UserID)
	}
}

// colorFor picks a random color the first time a peer is seen and sticks
// to it for the rest of the session. Callers hold t.mu.
func (t *Tracker) colorFor(userID string) string {
	if c, ok := t.colors[userID]; ok {
		return c
	}
	c := fmt.Sprintf("#%06x", rand.Intn(0x1000000))
	t.colors[userID] = c
	return c
}

// Peers returns everyone else currently in the room.
func (t *Tracker) Peers() []models.PresenceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.PresenceEntry, 0, len(t.peers))
	for _, p := range t.peers {
		out = append(out, p)
	}
	return out
}

// Leave untracks this user, removes every remote cursor and stops
// consuming sync events. Safe to call repeatedly.
func (t *Tracker) Leave() {
	t.mu.Lock()
	roomID := t.roomID
	off := t.off
	peers := t.peers
	t.roomID = ""
	t.off = nil
	t.peers = make(map[string]models.PresenceEntry)
	t.mu.Unlock()

	if off != nil {
		off()
	}
	for id := range peers {
		t.cursors.RemoveCursor(id)
	}
	if roomID != "" {
		t.client.Emit(realtime.Message{Event: realtime.EventPresenceLeave, RoomID: roomID})
	}
}
