package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// MessageType identifies a live stream message.
type MessageType string

const (
	PredictionMessage MessageType = "prediction"
	HeartbeatMessage  MessageType = "heartbeat"
)

// Message is the envelope pushed to live dashboard clients.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// PredictionEvent is broadcast after every successful predict call.
type PredictionEvent struct {
	Value float64 `json:"value"`
	Level string  `json:"level"`
	Color string  `json:"color"`
}

const (
	writeWait         = 10 * time.Second
	heartbeatInterval = 30 * time.Second
	clientBuffer      = 16
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// LiveHub fans prediction events out to connected websocket clients.
type LiveHub struct {
	mu         sync.RWMutex
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	done       chan struct{}
	upgrader   websocket.Upgrader
}

func NewLiveHub() *LiveHub {
	return &LiveHub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Run owns the client set; call it once in its own goroutine.
func (h *LiveHub) Run() {
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			zap.S().Debugw("live client connected", "clients", h.ClientCount())
		case c := <-h.unregister:
			h.dropClient(c)
		case payload := <-h.broadcast:
			h.mu.RLock()
			targets := make([]*client, 0, len(h.clients))
			for c := range h.clients {
				targets = append(targets, c)
			}
			h.mu.RUnlock()
			for _, c := range targets {
				select {
				case c.send <- payload:
				default:
					// slow consumer, drop it
					h.dropClient(c)
				}
			}
		case <-heartbeat.C:
			h.Broadcast(HeartbeatMessage, nil)
		case <-h.done:
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop disconnects every client and ends the Run loop.
func (h *LiveHub) Stop() {
	close(h.done)
}

func (h *LiveHub) dropClient(c *client) {
	h.mu.Lock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// ClientCount returns the number of connected clients.
func (h *LiveHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues a message for every connected client.
func (h *LiveHub) Broadcast(messageType MessageType, data interface{}) {
	var raw json.RawMessage
	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			zap.S().Warnw("broadcast payload marshal failed", "error", err)
			return
		}
		raw = payload
	}
	message, err := json.Marshal(Message{
		Type:      messageType,
		Timestamp: time.Now().UTC(),
		Data:      raw,
	})
	if err != nil {
		return
	}
	select {
	case h.broadcast <- message:
	default:
		// broadcast queue full, drop rather than block a predict call
	}
}

// BroadcastPrediction pushes a prediction event to live clients.
func (h *LiveHub) BroadcastPrediction(event PredictionEvent) {
	h.Broadcast(PredictionMessage, event)
}

// ServeWS upgrades an HTTP request to a live stream connection.
func (h *LiveHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Warnw("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	h.register <- c

	go c.writePump()
	go c.readPump(h)
}

func (c *client) writePump() {
	defer c.conn.Close()
	for payload := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump discards inbound frames; the stream is one-way.
func (c *client) readPump(h *LiveHub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
