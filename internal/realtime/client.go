package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Handler consumes one inbound server-relayed event. Handlers filter on
// RoomID themselves; the connection is shared by every open document.
type Handler func(Message)

// Client is the capability set the sync coordinator needs from the
// transport. Emits are fire-and-forget: no acknowledgment, FIFO per
// connection, no cross-client ordering guarantee.
type Client interface {
	// JoinRoom announces intent to send and receive events scoped to the
	// document id. Joining the same room twice is a no-op.
	JoinRoom(roomID string) error
	Emit(msg Message) error
	// On registers a handler for an event and returns its disposer. The
	// disposer is idempotent and safe to call after Close.
	On(event Event, h Handler) (off func())
	Close() error
}

// Conn is the websocket-backed Client. One Conn serves all open documents
// in the process; use SharedDialer to create it lazily and reuse it.
type Conn struct {
	ws     *websocket.Conn
	logger *slog.Logger

	writeMu sync.Mutex

	mu       sync.Mutex
	handlers map[Event]map[int]Handler
	nextID   int
	joined   map[string]bool

	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects to the relay server. The bearer token authenticates the
// connection with the external identity provider's JWT.
func Dial(ctx context.Context, url, token string, logger *slog.Logger) (*Conn, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("dial realtime server: %w", err)
	}

	c := &Conn{
		ws:       ws,
		logger:   logger,
		handlers: make(map[Event]map[int]Handler),
		joined:   make(map[string]bool),
		done:     make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *Conn) readLoop() {
	defer c.Close()
	for {
		var msg Message
		if err := c.ws.ReadJSON(&msg); err != nil {
			select {
			case <-c.done:
			default:
				c.logger.Debug("realtime read loop ended", "error", err)
			}
			return
		}
		for _, h := range c.handlersFor(msg.Event) {
			h(msg)
		}
	}
}

func (c *Conn) handlersFor(event Event) []Handler {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Handler, 0, len(c.handlers[event]))
	for _, h := range c.handlers[event] {
		out = append(out, h)
	}
	return out
}

func (c *Conn) JoinRoom(roomID string) error {
	c.mu.Lock()
	if c.joined[roomID] {
		c.mu.Unlock()
		return nil
	}
	c.joined[roomID] = true
	c.mu.Unlock()

	return c.Emit(Message{Event: EventCreateRoom, RoomID: roomID})
}

func (c *Conn) Emit(msg Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteJSON(msg); err != nil {
		return fmt.Errorf("emit %s: %w", msg.Event, err)
	}
	return nil
}

func (c *Conn) On(event Event, h Handler) (off func()) {
	c.mu.Lock()
	if c.handlers[event] == nil {
		c.handlers[event] = make(map[int]Handler)
	}
	id := c.nextID
	c.nextID++
	c.handlers[event][id] = h
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.handlers[event], id)
		c.mu.Unlock()
	}
}

func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.ws.Close()
	})
	return err
}

var _ Client = (*Conn)(nil)

// SharedDialer hands out one lazily-created connection for the whole
// process. Every open document shares it; room-scoped filtering by
// document id substitutes for per-document connections.
type SharedDialer struct {
	URL    string
	Token  string
	Logger *slog.Logger

	once sync.Once
	conn *Conn
	err  error
}

// Connect dials on first use and returns the same connection afterwards.
func (d *SharedDialer) Connect(ctx context.Context) (*Conn, error) {
	d.once.Do(func() {
		logger := d.Logger
		if logger == nil {
			logger = slog.Default()
		}
		d.conn, d.err = Dial(ctx, d.URL, d.Token, logger)
	})
	return d.conn, d.err
}
