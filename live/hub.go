// Package live pushes prayer events to open pages over WebSocket so they
// can refresh the map and stats without polling.
// File: live/hub.go
package live

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"prayreps/logger"
)

const writeWait = 10 * time.Second

// Event is one queue-state change pushed to subscribers.
type Event struct {
	Action      string `json:"action"` // "prayed" or "putback"
	CountryCode string `json:"country_code"`
	PersonName  string `json:"person_name"`
	Remaining   int    `json:"remaining"`
	MapVersion  string `json:"map_version,omitempty"`
}

// Hub tracks the active subscriber connections.
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[*websocket.Conn]bool)}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// same-origin pages only talk to their own server; nothing
		// sensitive travels on this channel
		return true
	},
}

// ServeWs upgrades the request and keeps the connection registered until
// the client goes away. Subscribers never send anything meaningful; the
// read loop only exists to notice the close.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error.Printf("live: upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.conns[conn] = true
	count := len(h.conns)
	h.mu.Unlock()
	logger.Info.Printf("live: subscriber connected (%d active)", count)

	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends an event to every subscriber. Slow or broken
// connections are dropped; mutations never wait on them.
func (h *Hub) Broadcast(ev Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		logger.Error.Printf("live: marshal event: %v", err)
		return
	}

	// the hub lock also serializes writes; gorilla connections do not
	// support concurrent writers
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		_ = c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			logger.Warn.Printf("live: dropping subscriber %v: %v", c.RemoteAddr(), err)
			delete(h.conns, c)
			_ = c.Close()
		}
	}
}

// SubscriberCount reports how many connections are active.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
	}
	h.mu.Unlock()
	_ = conn.Close()
}
