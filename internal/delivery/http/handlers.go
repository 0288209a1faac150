// Package http exposes the service's HTTP surface: the WebSocket upgrade
// endpoint and the read-only room info/history queries.
package http

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/roomcast/roomcast/internal/config"
	"github.com/roomcast/roomcast/internal/delivery/ws"
	"github.com/roomcast/roomcast/internal/domain"
	"github.com/roomcast/roomcast/internal/room"
	"github.com/roomcast/roomcast/internal/sanitize"
)

// Handler serves the WebSocket upgrade and room query endpoints.
type Handler struct {
	cfg      *config.Config
	rooms    *room.Manager
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewHandler wires the handler to the room dispatcher.
func NewHandler(cfg *config.Config, rooms *room.Manager, log zerolog.Logger) *Handler {
	return &Handler{
		cfg:   cfg,
		rooms: rooms,
		log:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return cfg.OriginAllowed(r.Header.Get("Origin"))
			},
		},
	}
}

// identityFromRequest resolves the already-authenticated identity attached
// by the upstream dispatcher. Missing values fall back to an anonymous
// identity; the username crosses the sanitize boundary before it reaches
// the room.
func identityFromRequest(r *http.Request) domain.Identity {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = "anonymous"
	}

	username := sanitize.Sanitize(r.URL.Query().Get("username"))
	if username == "" {
		username = fmt.Sprintf("User%03d", rand.Intn(1000))
	}

	return domain.Identity{UserID: userID, Username: username}
}

// HandleWebSocket upgrades the request and attaches the connection to its
// room.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("room")
	if name == "" {
		http.Error(w, "room name required", http.StatusBadRequest)
		return
	}

	identity := identityFromRequest(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug().Err(err).Msg("upgrade failed")
		return
	}

	rm := h.rooms.GetOrCreate(name)
	client := ws.NewClient(rm, conn, h.log, h.cfg.MaxMessageSize, h.cfg.SendBufferSize)

	if err := rm.Connect(client, identity); err != nil {
		h.log.Error().Err(err).Str("room", name).Msg("connect rejected")
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

// HandleRoomInfo returns a read-only snapshot of a room's connections.
func (h *Handler) HandleRoomInfo(w http.ResponseWriter, r *http.Request) {
	rm, ok := h.lookupRoom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rm.Info())
}

// HandleRoomHistory returns the room's retained transcript.
func (h *Handler) HandleRoomHistory(w http.ResponseWriter, r *http.Request) {
	rm, ok := h.lookupRoom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rm.History())
}

// HandleHealth is the liveness endpoint.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) lookupRoom(w http.ResponseWriter, r *http.Request) (*room.Room, bool) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}

	name := r.URL.Query().Get("room")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "room name required"})
		return nil, false
	}

	rm := h.rooms.Get(name)
	if rm == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "room not found"})
		return nil, false
	}
	return rm, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
