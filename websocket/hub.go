package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"telemetry-hub/metrics"
)

// Hub maintains the set of connected dashboard sessions and broadcasts
// events to them. Slow or disconnected subscribers never block producers:
// a client whose send buffer is full is dropped.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	logger     *slog.Logger
	mu         sync.RWMutex
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With("component", "fanout"),
	}
}

// Run processes registration and broadcast traffic until the process
// shuts down. Start it once in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			metrics.WebsocketClients.Inc()
			h.logger.Info("Websocket client registered", "remoteAddr", client.conn.RemoteAddr().String())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.WebsocketClients.Dec()
				h.logger.Info("Websocket client unregistered", "remoteAddr", client.conn.RemoteAddr().String())
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client is blocked or gone; drop it rather than
					// stalling the broadcast.
					delete(h.clients, client)
					close(client.send)
					metrics.WebsocketClients.Dec()
					h.logger.Warn("Websocket client send buffer full, removing",
						"remoteAddr", client.conn.RemoteAddr().String())
				}
			}
			h.mu.Unlock()
		}
	}
}

// RegisterClient adds a new client to the hub.
func (h *Hub) RegisterClient(client *Client) {
	h.register <- client
}

// Publish implements the services.Publisher interface: events are wrapped
// in a {"type": name, "payload": ...} envelope and broadcast to every
// connected session. Fire-and-forget.
func (h *Hub) Publish(event string, payload interface{}) {
	message, err := json.Marshal(map[string]interface{}{"type": event, "payload": payload})
	if err != nil {
		h.logger.Error("Failed to marshal fan-out event", "event", event, slog.Any("error", err))
		return
	}
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("Fan-out broadcast queue full, event dropped", "event", event)
	}
}
