package realtime

import "context"

type message struct {
	userID string
	data   []byte
}

// Hub owns the set of connected clients and routes every message to the
// clients of the user it belongs to.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan message),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Dispatch queues data for every client of userID. It blocks until the hub
// loop picks it up or ctx is done.
func (h *Hub) Dispatch(ctx context.Context, userID string, data []byte) {
	select {
	case h.broadcast <- message{userID: userID, data: data}:
	case <-ctx.Done():
	case <-h.done:
	}
}

func (h *Hub) add(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Run is the single goroutine that touches clients. It returns when ctx is
// done, closing every remaining connection.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for client := range h.clients {
				h.drop(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
			}

		case msg := <-h.broadcast:
			if msg.userID == "" {
				continue
			}
			for client := range h.clients {
				if client.userID != msg.userID {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					// Slow consumer.
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	_ = client.conn.Close()
}
