package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"inkwell/internal/httputil"
	"inkwell/internal/realtime"
)

// WSHandler upgrades authenticated requests into realtime sessions.
type WSHandler struct {
	hub            *realtime.Hub
	logger         *slog.Logger
	allowedOrigins []string
	upgrader       websocket.Upgrader
}

// NewWSHandler creates the websocket entry point. allowedOrigins uses the
// same comma-separated form as the CORS configuration; "*" allows all.
func NewWSHandler(hub *realtime.Hub, allowedOrigins string, logger *slog.Logger) *WSHandler {
	h := &WSHandler{
		hub:            hub,
		logger:         logger,
		allowedOrigins: strings.Split(allowedOrigins, ","),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *WSHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Non-browser clients send no Origin header.
		return true
	}
	for _, allowed := range h.allowedOrigins {
		allowed = strings.TrimSpace(allowed)
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// Connect upgrades the request and hands the connection to the hub. It
// blocks for the life of the connection.
// GET /ws
func (h *WSHandler) Connect(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.logger.Debug("websocket upgrade failed", "error", err, "user_id", userID)
		return
	}

	h.logger.Info("realtime session started", "user_id", userID)
	h.hub.Serve(conn, userID)
	h.logger.Info("realtime session ended", "user_id", userID)
}
