package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"inkwell/internal/domain/models"
)

// HubOptions tunes the per-session websocket pumps.
type HubOptions struct {
	SendBuffer     int
	MaxMessageSize int64
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	PongTimeout    time.Duration
}

func (o HubOptions) withDefaults() HubOptions {
	if o.SendBuffer <= 0 {
		o.SendBuffer = 256
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = 1 << 20
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.PongTimeout <= 0 {
		o.PongTimeout = 60 * time.Second
	}
	if o.PingInterval <= 0 {
		o.PingInterval = o.PongTimeout * 9 / 10
	}
	return o
}

// Hub relays document edits, cursor moves and presence between sessions.
// It never inspects delta payloads; persistence is the sender's job.
type Hub struct {
	logger *slog.Logger
	opts   HubOptions

	mu       sync.Mutex
	sessions map[*session]bool
	rooms    map[string]map[*session]bool
	// presence identity per room, keyed by user id. A user tracked from
	// two sessions appears once.
	presence map[string]map[string]models.PresenceEntry
}

func NewHub(logger *slog.Logger, opts HubOptions) *Hub {
	return &Hub{
		logger:   logger,
		opts:     opts.withDefaults(),
		sessions: make(map[*session]bool),
		rooms:    make(map[string]map[*session]bool),
		presence: make(map[string]map[string]models.PresenceEntry),
	}
}

type session struct {
	hub    *Hub
	userID string
	conn   *websocket.Conn
	send   chan []byte
	rooms  map[string]bool
}

// Serve runs the read and write pumps for an upgraded connection. It
// blocks until the connection ends and cleans the session out of every
// room it joined.
func (h *Hub) Serve(conn *websocket.Conn, userID string) {
	s := &session{
		hub:    h,
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, h.opts.SendBuffer),
		rooms:  make(map[string]bool),
	}

	h.mu.Lock()
	h.sessions[s] = true
	h.mu.Unlock()

	go s.writePump()
	s.readPump()
}

func (s *session) readPump() {
	defer s.hub.unregister(s)

	opts := s.hub.opts
	s.conn.SetReadLimit(opts.MaxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(opts.PongTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(opts.PongTimeout))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.hub.logger.Debug("session read error", "user_id", s.userID, "error", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.hub.logger.Warn("dropping malformed message", "user_id", s.userID, "error", err)
			continue
		}
		s.hub.route(s, msg)
	}
}

func (s *session) writePump() {
	ticker := time.NewTicker(s.hub.opts.PingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case raw, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(s.hub.opts.WriteTimeout))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(s.hub.opts.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) route(s *session, msg Message) {
	switch msg.Event {
	case EventCreateRoom:
		h.join(s, msg.RoomID)
	case EventSendChanges:
		msg.Event = EventReceiveChanges
		h.broadcastRoom(msg.RoomID, msg, s)
	case EventSendCursorMove:
		msg.Event = EventReceiveCursorMove
		h.broadcastRoom(msg.RoomID, msg, s)
	case EventPresenceTrack:
		h.trackPresence(s, msg)
	case EventPresenceLeave:
		h.leavePresence(s, msg.RoomID)
	default:
		h.logger.Debug("unroutable event", "event", msg.Event, "user_id", s.userID)
	}
}

func (h *Hub) join(s *session, roomID string) {
	if roomID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*session]bool)
	}
	h.rooms[roomID][s] = true
	s.rooms[roomID] = true
}

func (h *Hub) trackPresence(s *session, msg Message) {
	if msg.RoomID == "" || msg.Identity == nil {
		return
	}
	h.join(s, msg.RoomID)

	h.mu.Lock()
	if h.presence[msg.RoomID] == nil {
		h.presence[msg.RoomID] = make(map[string]models.PresenceEntry)
	}
	h.presence[msg.RoomID][s.userID] = *msg.Identity
	h.mu.Unlock()

	h.syncPresence(msg.RoomID)
}

func (h *Hub) leavePresence(s *session, roomID string) {
	h.mu.Lock()
	if members, ok := h.presence[roomID]; ok {
		delete(members, s.userID)
		if len(members) == 0 {
			delete(h.presence, roomID)
		}
	}
	h.mu.Unlock()

	h.syncPresence(roomID)
}

// syncPresence sends the full member list to everyone in the room,
// including the session that caused the change.
func (h *Hub) syncPresence(roomID string) {
	h.mu.Lock()
	members := make([]models.PresenceEntry, 0, len(h.presence[roomID]))
	for _, e := range h.presence[roomID] {
		members = append(members, e)
	}
	h.mu.Unlock()

	h.broadcastRoom(roomID, Message{
		Event:   EventPresenceSync,
		RoomID:  roomID,
		Members: members,
	}, nil)
}

// broadcastRoom fans a message out to the room. exclude skips the
// originating session so senders never hear their own edits echoed.
func (h *Hub) broadcastRoom(roomID string, msg Message, exclude *session) {
	raw, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "event", msg.Event, "error", err)
		return
	}

	h.mu.Lock()
	targets := make([]*session, 0, len(h.rooms[roomID]))
	for s := range h.rooms[roomID] {
		if s != exclude {
			targets = append(targets, s)
		}
	}
	h.mu.Unlock()

	for _, s := range targets {
		h.deliver(s, raw)
	}
}

// BroadcastFileChange pushes a change-feed event to every connected
// session regardless of room membership. The dashboard tree listens on
// the whole table, not a single document.
func (h *Hub) BroadcastFileChange(change FileChange) {
	raw, err := json.Marshal(Message{Event: EventFileChange, Change: &change})
	if err != nil {
		h.logger.Error("marshal file change", "error", err)
		return
	}

	h.mu.Lock()
	targets := make([]*session, 0, len(h.sessions))
	for s := range h.sessions {
		targets = append(targets, s)
	}
	h.mu.Unlock()

	for _, s := range targets {
		h.deliver(s, raw)
	}
}

// deliver enqueues without blocking. A session that cannot drain its
// buffer is dropped rather than stalling the room. Membership is checked
// under the lock so a concurrently closed send channel is never written.
func (h *Hub) deliver(s *session, raw []byte) {
	h.mu.Lock()
	if !h.sessions[s] {
		h.mu.Unlock()
		return
	}
	select {
	case s.send <- raw:
		h.mu.Unlock()
	default:
		h.mu.Unlock()
		h.logger.Warn("dropping slow session", "user_id", s.userID)
		h.unregister(s)
	}
}

func (h *Hub) unregister(s *session) {
	h.mu.Lock()
	if !h.sessions[s] {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, s)

	var resync []string
	for roomID := range s.rooms {
		delete(h.rooms[roomID], s)
		if len(h.rooms[roomID]) == 0 {
			delete(h.rooms, roomID)
		}
		if members, ok := h.presence[roomID]; ok {
			if _, tracked := members[s.userID]; tracked {
				delete(members, s.userID)
				if len(members) == 0 {
					delete(h.presence, roomID)
				}
				resync = append(resync, roomID)
			}
		}
	}
	h.mu.Unlock()

	close(s.send)
	s.conn.Close()

	for _, roomID := range resync {
		h.syncPresence(roomID)
	}
}
