// Package web exposes a read-only push feed of simulation state to
// external observers over websockets. Observers never get write access
// to a Document or Engine; the only inbound traffic a connection
// produces is discarded.
package web

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/relaylogic/relaysim/internal/sim"
)

// envelope is the wire shape of every pushed message.
type envelope struct {
	MessageType string      `json:"messageType"`
	Data        interface{} `json:"data,omitempty"`
	Timestamp   int64       `json:"timestamp"`
}

// Hub fans out engine lifecycle events to connected observers.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]struct{}

	latestMu sync.RWMutex
	latest   *sim.Snapshot
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: map[*websocket.Conn]struct{}{}}
}

// HandleWS upgrades the request and registers the connection as an
// observer, immediately sending the most recent stable snapshot if one
// exists.
func (h *Hub) HandleWS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			http.Error(w, "websocket_accept_failed", http.StatusInternalServerError)
			return
		}
		h.mu.Lock()
		h.clients[c] = struct{}{}
		count := len(h.clients)
		h.mu.Unlock()
		log.Printf("[web] observer connected (total=%d)", count)

		go func() {
			defer func() {
				h.mu.Lock()
				delete(h.clients, c)
				h.mu.Unlock()
				c.Close(websocket.StatusNormalClosure, "")
			}()
			for { // observers have nothing to send; discard and detect close
				if _, _, err := c.Read(context.Background()); err != nil {
					return
				}
			}
		}()

		h.latestMu.RLock()
		snap := h.latest
		h.latestMu.RUnlock()
		if snap != nil {
			h.send(c, "snapshot", *snap)
		}
	}
}

// BroadcastStable fans a newly-stable snapshot out to every observer and
// remembers it as the snapshot handed to observers who connect later.
func (h *Hub) BroadcastStable(snap sim.Snapshot) {
	h.latestMu.Lock()
	h.latest = &snap
	h.latestMu.Unlock()
	h.broadcast("snapshot", snap)
}

// BroadcastUnstable notifies observers that the engine left the stable
// state and a new convergence run has begun.
func (h *Hub) BroadcastUnstable() {
	h.broadcast("unstable", nil)
}

// BroadcastRunComplete reports the statistics of a finished run (stable,
// oscillating, timed out, or stopped).
func (h *Hub) BroadcastRunComplete(stats sim.Statistics) {
	h.broadcast("run_complete", stats)
}

func (h *Hub) broadcast(messageType string, data interface{}) {
	env := envelope{MessageType: messageType, Data: data, Timestamp: time.Now().UnixMilli()}
	payload, err := json.Marshal(env)
	if err != nil {
		log.Printf("[web] marshal %s failed: %v", messageType, err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		go func(conn *websocket.Conn) {
			if err := conn.Write(context.Background(), websocket.MessageText, payload); err != nil {
				log.Printf("[web] write %s failed: %v", messageType, err)
			}
		}(c)
	}
}

func (h *Hub) send(c *websocket.Conn, messageType string, data interface{}) {
	env := envelope{MessageType: messageType, Data: data, Timestamp: time.Now().UnixMilli()}
	payload, err := json.Marshal(env)
	if err != nil {
		log.Printf("[web] marshal %s failed: %v", messageType, err)
		return
	}
	if err := c.Write(context.Background(), websocket.MessageText, payload); err != nil {
		log.Printf("[web] write %s failed: %v", messageType, err)
	}
}

// Close closes every connected observer and clears the client set.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.Close(websocket.StatusNormalClosure, "server shutting down")
		delete(h.clients, c)
	}
}
