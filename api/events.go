package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// MissionEvent is pushed to every connected websocket client when a mission
// is created or changes status.
type MissionEvent struct {
	Type      string    `json:"type"`
	MissionID string    `json:"missionID"`
	Status    string    `json:"status,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventHub fans mission lifecycle events out to websocket subscribers.
type EventHub struct {
	mu       sync.Mutex
	conns    map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader
}

// NewEventHub creates an empty hub
func NewEventHub() *EventHub {
	return &EventHub{
		conns: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// clients are mobile/desktop apps, not browsers on our origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleWS upgrades the request and registers the connection until it closes
func (h *EventHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("failed to upgrade websocket", "error", err)
		return
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	zap.S().Debugw("websocket client connected", "remote", conn.RemoteAddr().String())

	// reads are discarded, the socket exists only to push events; the read
	// loop notices the peer going away
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast pushes an event to all connected clients, dropping any that fail
func (h *EventHub) Broadcast(event MissionEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteJSON(event); err != nil {
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

func (h *EventHub) drop(conn *websocket.Conn) {
	conn.Close()
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
}
