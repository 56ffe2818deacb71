package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Event is the wire envelope pushed to dashboard clients.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
	At   time.Time   `json:"at"`
}

// Hub fans domain events out to connected staff dashboards. It is a
// single-process hub; the dealership has no clustering requirement.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	done chan struct{}
	once sync.Once
}

// NewHub creates a hub. Call Run in a goroutine and Close on shutdown.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		broadcast:  make(chan []byte, 128),
		done:       make(chan struct{}),
	}
}

// Run processes registration and broadcast events until Close is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			log.Printf("[WSHub] client %s connected (user %d), total=%d", client.ID, client.UserID, h.clientCount())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				client.closeSend()
			}
			h.mu.Unlock()
			log.Printf("[WSHub] client %s disconnected, total=%d", client.ID, h.clientCount())

		case message := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer: drop the message rather than block
					// the hub loop.
					log.Printf("[WSHub] dropping message for slow client %s", client.ID)
				}
			}
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			for id, client := range h.clients {
				client.closeSend()
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Broadcast implements service.Notifier: it serializes the event and
// queues it for every connected client.
func (h *Hub) Broadcast(event string, data interface{}) {
	payload, err := json.Marshal(Event{Type: event, Data: data, At: time.Now()})
	if err != nil {
		log.Printf("[WSHub] failed to marshal event %s: %v", event, err)
		return
	}
	select {
	case h.broadcast <- payload:
	case <-h.done:
	}
}

// Close shuts the hub down and disconnects all clients.
func (h *Hub) Close() {
	h.once.Do(func() { close(h.done) })
}

func (h *Hub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
