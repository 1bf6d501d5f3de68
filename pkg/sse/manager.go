package sse

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Event is one push update delivered to a user's connected clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type client struct {
	userID string
	ch     chan Event
}

// Manager fans push updates out to every connected listener of a user.
// The core calls SendToUser; connection lifecycle lives here.
type Manager struct {
	register   chan *client
	unregister chan *client
	broadcast  chan userEvent
	clients    map[string]map[*client]struct{}
}

type userEvent struct {
	userID string
	event  Event
}

// NewManager creates an SSE manager. Call Run in a goroutine before use.
func NewManager() *Manager {
	return &Manager{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan userEvent, 256),
		clients:    make(map[string]map[*client]struct{}),
	}
}

// Run owns the client registry; all map access happens on this goroutine.
func (m *Manager) Run() {
	for {
		select {
		case c := <-m.register:
			if m.clients[c.userID] == nil {
				m.clients[c.userID] = make(map[*client]struct{})
			}
			m.clients[c.userID][c] = struct{}{}
		case c := <-m.unregister:
			if set, ok := m.clients[c.userID]; ok {
				if _, ok := set[c]; ok {
					delete(set, c)
					close(c.ch)
					if len(set) == 0 {
						delete(m.clients, c.userID)
					}
				}
			}
		case ue := <-m.broadcast:
			for c := range m.clients[ue.userID] {
				select {
				case c.ch <- ue.event:
				default:
					// Slow consumer, drop the event rather than block the hub.
				}
			}
		}
	}
}

// SendToUser queues an event for every connected client of userID.
func (m *Manager) SendToUser(userID string, eventType string, payload interface{}) {
	select {
	case m.broadcast <- userEvent{userID: userID, event: Event{Type: eventType, Payload: payload}}:
	default:
		log.Printf("[SSE] broadcast queue full, dropping %s for user %s", eventType, userID)
	}
}

// ServeHTTP streams events to one client until it disconnects.
func (m *Manager) ServeHTTP(c *gin.Context, userID string) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	cl := &client{userID: userID, ch: make(chan Event, 16)}
	m.register <- cl
	defer func() { m.unregister <- cl }()

	fmt.Fprintf(c.Writer, "event: connected\ndata: {}\n\n")
	flusher.Flush()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case ev, ok := <-cl.ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev.Payload)
			if err != nil {
				continue
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", ev.Type, data)
			flusher.Flush()
		}
	}
}
