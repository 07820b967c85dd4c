package hmr

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// ServerMessage is the envelope for every server -> client frame.
type ServerMessage struct {
	Type    string   `json:"type"`
	Updates []Update `json:"updates,omitempty"`
	Message string   `json:"message,omitempty"`
	Event   string   `json:"event,omitempty"`
	Data    any      `json:"data,omitempty"`
}

// ClientMessage is the envelope for every client -> server frame.
type ClientMessage struct {
	Type  string `json:"type"`
	Path  string `json:"path,omitempty"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub upgrades /__hmr connections and fans broadcasts out to every
// connected browser client: each connection gets its own read loop, with
// writes serialized behind a per-connection mutex.
type Hub struct {
	graph *Graph

	mu      sync.Mutex
	clients map[*websocket.Conn]*sync.Mutex
}

func NewHub(graph *Graph) *Hub {
	return &Hub{graph: graph, clients: make(map[*websocket.Conn]*sync.Mutex)}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	writeMu := &sync.Mutex{}
	h.mu.Lock()
	h.clients[conn] = writeMu
	h.mu.Unlock()

	h.send(conn, writeMu, ServerMessage{Type: "connected"})

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		h.handleClientMessage(conn, msg)
	}
}

func (h *Hub) handleClientMessage(conn *websocket.Conn, msg ClientMessage) {
	switch msg.Type {
	case "hotAccept":
		h.graph.MarkSelfAccepting(msg.Path)
	case "invalidate":
		h.graph.Forget(msg.Path)
	case "custom":
		h.Broadcast(ServerMessage{Type: "custom", Event: msg.Event, Data: msg.Data})
	}
}

func (h *Hub) send(conn *websocket.Conn, mu *sync.Mutex, msg ServerMessage) {
	body, err := json.Marshal(msg)
	if err != nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, body); err != nil {
		log.Printf("hmr: write to client: %v", err)
	}
}

// Broadcast pushes msg to every connected client.
func (h *Hub) Broadcast(msg ServerMessage) {
	h.mu.Lock()
	conns := make(map[*websocket.Conn]*sync.Mutex, len(h.clients))
	for c, mu := range h.clients {
		conns[c] = mu
	}
	h.mu.Unlock()

	for conn, mu := range conns {
		h.send(conn, mu, msg)
	}
}

// NotifyChange runs boundary detection for changedURL and broadcasts the
// resulting update or reload message.
func (h *Hub) NotifyChange(changedURL string, timestamp int64) {
	result := h.graph.Boundary(changedURL, timestamp)
	if result.FullReload {
		h.Broadcast(ServerMessage{Type: "reload"})
		return
	}
	h.Broadcast(ServerMessage{Type: "update", Updates: result.Updates})
}

// NotifyError pushes a compiler/runtime error to the overlay on every client.
func (h *Hub) NotifyError(message string) {
	h.Broadcast(ServerMessage{Type: "error", Message: message})
}
