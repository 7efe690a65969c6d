package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"telemon/internal/alert"
	"telemon/internal/logger"
	"telemon/internal/sink"
	"telemon/internal/telemetry"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub maintains the set of connected dashboard clients and broadcasts
// snapshots and alert events to all of them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	stopped chan struct{}
	once    sync.Once
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stopped:    make(chan struct{}),
	}
}

// Run processes register/unregister/broadcast events until Close.
func (h *Hub) Run() {
	log := logger.WithComponent("stream_hub")

	for {
		select {
		case <-h.stopped:
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			log.Debug().Str("remote", client.conn.RemoteAddr().String()).Msg("client registered")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Debug().Str("remote", client.conn.RemoteAddr().String()).Msg("client unregistered")
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client stalled; drop it rather than block the hub.
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// ServeHTTP upgrades the connection and attaches a client to the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log := logger.WithComponent("stream_hub")
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{hub: h, conn: conn, send: make(chan []byte, 16)}
	select {
	case h.register <- client:
	case <-h.stopped:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// BroadcastSnapshot pushes the latest snapshot to all clients.
func (h *Hub) BroadcastSnapshot(snap telemetry.Snapshot) {
	h.send("snapshot", snap)
}

// Dispatch broadcasts alert events, satisfying sink.Sink.
func (h *Hub) Dispatch(ctx context.Context, alerts []alert.Alert) error {
	for _, a := range alerts {
		h.send("alert", sink.NewEvent(a))
	}
	return nil
}

// Close shuts the hub down and disconnects every client.
func (h *Hub) Close() error {
	h.once.Do(func() { close(h.stopped) })
	return nil
}

func (h *Hub) send(kind string, payload interface{}) {
	message, err := json.Marshal(map[string]interface{}{"type": kind, "payload": payload})
	if err != nil {
		log := logger.WithComponent("stream_hub")
		log.Error().Err(err).Msg("failed to marshal broadcast")
		return
	}

	select {
	case h.broadcast <- message:
	case <-h.stopped:
	}
}
