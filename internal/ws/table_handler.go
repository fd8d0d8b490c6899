package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/playmatatu/billiards/internal/auth"
	"github.com/playmatatu/billiards/internal/game"
)

// Server-to-client message types.
const (
	MsgFrame       = "frame"
	MsgError       = "error"
	MsgAimRejected = "aim_rejected"
	MsgShot        = "shot"
)

// Client-to-server message types.
const (
	MsgAimStart   = "aim_start"
	MsgAimMove    = "aim_move"
	MsgAimRelease = "aim_release"
	MsgAimCancel  = "aim_cancel"
	MsgShoot      = "shoot"
	MsgRerack     = "rerack"
)

// WSMessage is an inbound message. Clients always send JSON text frames.
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// PointData is a pointer position in table coordinates.
type PointData struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// ShootData is a direct cue velocity.
type ShootData struct {
	VX float64 `json:"vx" msgpack:"vx"`
	VY float64 `json:"vy" msgpack:"vy"`
}

// Table is the subset of *game.Runner the socket drives.
type Table interface {
	Latest() game.Frame
	BeginAim(ctx context.Context, p game.Vec2) (bool, error)
	MoveAim(ctx context.Context, p game.Vec2) error
	ReleaseAim(ctx context.Context, p game.Vec2) (game.Vec2, bool, error)
	CancelAim(ctx context.Context) error
	Shoot(ctx context.Context, v game.Vec2) error
	Rerack(ctx context.Context) error
}

// TokenVerifier checks operator tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Handler upgrades /table/ws requests and routes client input to the table.
type Handler struct {
	hub         *Hub
	table       Table
	verifier    TokenVerifier
	requireAuth bool
	nextID      atomic.Uint64
}

func NewHandler(hub *Hub, table Table, verifier TokenVerifier, requireAuth bool) *Handler {
	return &Handler{
		hub:         hub,
		table:       table,
		verifier:    verifier,
		requireAuth: requireAuth,
	}
}

// HandleWebSocket handles GET /table/ws. Anyone may watch; control
// messages need an operator token (?token= or Authorization) when auth is
// required. A token that is present but invalid is refused outright.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = auth.BearerToken(c.GetHeader("Authorization"))
	}

	authorized := !h.requireAuth
	if token != "" && h.verifier != nil {
		if _, err := h.verifier.Verify(token); err != nil {
			log.Printf("[AUTH] Rejected websocket token: %v", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		authorized = true
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}

	client := &Client{
		hub:        h.hub,
		conn:       conn,
		id:         fmt.Sprintf("c%d", h.nextID.Add(1)),
		format:     ParseFormat(c.Query("format")),
		authorized: authorized,
		send:       make(chan []byte, sendBuffer),
	}

	// First frame goes out before the hub starts feeding this client so a
	// viewer never waits for motion to see the table.
	if data, err := EncodeFrame(h.table.Latest(), client.format); err == nil {
		client.send <- data
	}

	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h)
}

// readPump reads client input until the connection closes.
func (c *Client) readPump(h *Handler) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessage)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] Unexpected close for client %s: %v", c.id, err)
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError("Invalid message")
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		c.handleMessage(ctx, h.table, msg)
		cancel()
	}
}

// handleMessage applies one control message to the table.
func (c *Client) handleMessage(ctx context.Context, table Table, msg WSMessage) {
	switch msg.Type {
	case MsgAimStart, MsgAimMove, MsgAimRelease, MsgAimCancel, MsgShoot, MsgRerack:
	default:
		c.sendError("Unknown message type")
		return
	}
	if !c.authorized {
		c.sendError("Operator token required")
		return
	}

	var err error
	switch msg.Type {
	case MsgAimStart:
		var p PointData
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			c.sendError("Invalid point data")
			return
		}
		var ok bool
		ok, err = table.BeginAim(ctx, game.NewVec2(p.X, p.Y))
		if err == nil && !ok {
			c.reply(MsgAimRejected, p)
		}

	case MsgAimMove:
		var p PointData
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			c.sendError("Invalid point data")
			return
		}
		err = table.MoveAim(ctx, game.NewVec2(p.X, p.Y))

	case MsgAimRelease:
		var p PointData
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			c.sendError("Invalid point data")
			return
		}
		var (
			shot game.Vec2
			ok   bool
		)
		shot, ok, err = table.ReleaseAim(ctx, game.NewVec2(p.X, p.Y))
		if err == nil && ok {
			c.reply(MsgShot, ShootData{VX: shot.X, VY: shot.Y})
		}

	case MsgAimCancel:
		err = table.CancelAim(ctx)

	case MsgShoot:
		var s ShootData
		if err := json.Unmarshal(msg.Data, &s); err != nil {
			c.sendError("Invalid shot data")
			return
		}
		err = table.Shoot(ctx, game.NewVec2(s.VX, s.VY))

	case MsgRerack:
		err = table.Rerack(ctx)
	}

	if err != nil {
		log.Printf("[WS] %s from client %s failed: %v", msg.Type, c.id, err)
		c.sendError(err.Error())
	}
}
