package ws

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/playmatatu/billiards/internal/game"
)

// Origins are checked by middleware.WebSocketCORSCheck before the upgrade.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	pongWait   = 2 * pingPeriod
	maxMessage = 4096
	sendBuffer = 32
)

// Client represents a connected WebSocket viewer or operator
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	id         string
	format     Format
	authorized bool
	send       chan []byte

	mu     sync.Mutex // guards closed and sends from reply
	closed bool
}

// Hub fans frames out to every connected client.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	frames     chan game.Frame
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		frames:     make(chan game.Frame, 1),
		done:       make(chan struct{}),
	}
}

// OnFrame hands the newest frame to the hub. If the hub has not taken the
// previous one yet, that one is replaced; viewers only need the latest.
func (h *Hub) OnFrame(f game.Frame) {
	for {
		select {
		case h.frames <- f:
			return
		default:
		}
		select {
		case <-h.frames:
		default:
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Run processes registrations and frames until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for c := range h.clients {
				c.close()
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			log.Printf("[WS] Client %s connected (format=%s, operator=%v)", c.id, c.format, c.authorized)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				c.close()
				log.Printf("[WS] Client %s disconnected", c.id)
			}
			h.mu.Unlock()

		case f := <-h.frames:
			h.broadcast(f)
		}
	}
}

func (h *Hub) broadcast(f game.Frame) {
	encoded := make(map[Format][]byte, 2)

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		data, ok := encoded[c.format]
		if !ok {
			var err error
			data, err = EncodeFrame(f, c.format)
			if err != nil {
				log.Printf("[WS] Error encoding frame %d as %s: %v", f.Tick, c.format, err)
				continue
			}
			encoded[c.format] = data
		}
		select {
		case c.send <- data:
		default:
			// Slow client; it will catch up on a later frame.
		}
	}
}

// close ends the client's send queue. Only the hub calls it.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	msgType := websocket.TextMessage
	if c.format == FormatMsgpack {
		msgType = websocket.BinaryMessage
	}

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel; best-effort close frame.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(msgType, message); err != nil {
				log.Printf("[WS] Write error for client %s: %v", c.id, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] Ping error for client %s: %v", c.id, err)
				return
			}
		}
	}
}

// reply queues a non-frame message for this client only.
func (c *Client) reply(msgType string, data interface{}) {
	payload, err := encode(Envelope{Type: msgType, Data: data}, c.format)
	if err != nil {
		log.Printf("[WS] Error encoding %s for client %s: %v", msgType, c.id, err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- payload:
	default:
		log.Printf("[WS] Dropped %s for client %s (buffer full)", msgType, c.id)
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(message string) {
	c.reply(MsgError, map[string]string{"message": message})
}
