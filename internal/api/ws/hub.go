package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/wonny/dlmm-orders/internal/events"
	"github.com/wonny/dlmm-orders/pkg/logger"
)

// Hub fans order events out to connected websocket clients
// ⭐ SSOT: 실시간 이벤트 브로드캐스트는 여기서만
type Hub struct {
	logger *logger.Logger

	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu   sync.RWMutex
	done chan struct{}
	once sync.Once
}

// NewHub creates a hub; call Run in its own goroutine
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		logger:     log.WithComponent("ws.hub"),
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until Close
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.WithField("clients", count).Debug("Client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.WithField("clients", count).Debug("Client disconnected")

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			var slow []*Client
			for _, client := range clients {
				select {
				case client.send <- message:
				default:
					slow = append(slow, client)
				}
			}

			// 느린 클라이언트 제거
			if len(slow) > 0 {
				h.mu.Lock()
				for _, client := range slow {
					if _, ok := h.clients[client]; ok {
						delete(h.clients, client)
						close(client.send)
					}
				}
				h.mu.Unlock()
				h.logger.WithField("removed", len(slow)).Warn("Dropped slow websocket clients")
			}
		}
	}
}

// Publish implements events.Sink; drops the event when the buffer is full
func (h *Hub) Publish(ctx context.Context, event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode event")
		return
	}

	select {
	case h.broadcast <- data:
	case <-h.done:
	default:
		h.logger.WithField("type", event.Type).Warn("Websocket broadcast buffer full, event dropped")
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close stops Run and disconnects all clients
func (h *Hub) Close() {
	h.once.Do(func() { close(h.done) })
}
