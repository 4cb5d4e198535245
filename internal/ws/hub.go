package ws

import (
	"context"

	"github.com/rs/zerolog"
)

const (
	MessageTypeRender       = "render"
	MessageTypeConnectivity = "connectivity"
)

type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub fans dashboard updates out to connected clients. Slow clients are
// dropped rather than allowed to block the dashboard's publish path.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	log        zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log.With().Str("component", "ws-hub").Logger(),
	}
}

// Broadcast queues a message for every connected client. Never blocks: when
// the queue is full the update is dropped, the next one supersedes it.
func (h *Hub) Broadcast(messageType string, data interface{}) {
	select {
	case h.broadcast <- Message{Type: messageType, Data: data}:
	default:
	}
}

// Run processes registration and broadcasts until ctx is canceled, then
// closes every client.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.log.Info().Msg("hub stopped")
			return ctx.Err()

		case client := <-h.register:
			h.clients[client] = true
			h.log.Debug().Int("clients", len(h.clients)).Msg("client connected")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.log.Debug().Int("clients", len(h.clients)).Msg("client disconnected")

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					delete(h.clients, client)
					close(client.send)
					h.log.Warn().Msg("dropped slow client")
				}
			}
		}
	}
}
