// Package notify pushes monitor events (trades, strategy runs, discovered
// tokens) to websocket subscribers through a broadcast hub.
package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"pumpwatch/internal/observability"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512

	// Buffered per client; a client that falls this far behind is dropped.
	clientSendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The REST layer handles origin policy via its CORS middleware.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Hub fans events out to connected websocket clients.
type Hub struct {
	log zerolog.Logger

	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
}

// NewHub creates a hub. Call Run before publishing.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		log:        log,
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 256),
	}
}

// Run processes registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			observability.UpdateWebsocketClients(0)
			return
		case c := <-h.register:
			h.clients[c] = true
			observability.UpdateWebsocketClients(len(h.clients))
			h.log.Debug().Int("clients", len(h.clients)).Msg("websocket client connected")
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				observability.UpdateWebsocketClients(len(h.clients))
				h.log.Debug().Int("clients", len(h.clients)).Msg("websocket client disconnected")
			}
		case message := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					// Slow consumer, drop it
					delete(h.clients, c)
					close(c.send)
					h.log.Warn().Msg("dropping slow websocket client")
				}
			}
			observability.UpdateWebsocketClients(len(h.clients))
		}
	}
}

// Publish broadcasts an event to all clients. Events that fail to marshal
// are logged and dropped; Publish never blocks the caller beyond the hub
// buffer.
func (h *Hub) Publish(eventType EventType, payload interface{}) {
	event := Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	message, err := json.Marshal(event)
	if err != nil {
		h.log.Error().Err(err).Str("event", string(eventType)).Msg("marshal event failed")
		return
	}
	select {
	case h.broadcast <- message:
	default:
		h.log.Warn().Str("event", string(eventType)).Msg("broadcast buffer full, dropping event")
	}
}

// ServeWS upgrades an HTTP request to a websocket subscription.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, clientSendBuffer),
	}
	h.register <- c

	go c.writePump()
	go c.readPump()
}
