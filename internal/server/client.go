package server

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/palemoky/trivia-rush/internal/logger"
	"github.com/palemoky/trivia-rush/internal/protocol"
	"github.com/palemoky/trivia-rush/internal/protocol/codec"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256
)

// Client is one websocket connection. It speaks for at most one player.
type Client struct {
	ID string
	IP string

	server *Server
	conn   *websocket.Conn
	send   chan []byte
	format codec.Format

	mu       sync.RWMutex
	playerID uuid.UUID
	closed   bool
}

// NewClient wraps an upgraded connection
func NewClient(s *Server, conn *websocket.Conn) *Client {
	return &Client{
		ID:     uuid.NewString(),
		server: s,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		format: s.format,
	}
}

func (c *Client) GetID() string { return c.ID }

func (c *Client) GetPlayerID() uuid.UUID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

func (c *Client) SetPlayerID(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = id
}

// ReadPump reads frames until the connection fails, then releases the player.
func (c *Client) ReadPump() {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		c.handleDisconnect()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("⚠️ Read error on %s: %v", c.ID, err)
			}
			return
		}

		allowed, warning := c.server.messageLimiter.AllowMessage(c.ID)
		if !allowed {
			c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeRateLimit))
			if c.server.messageLimiter.GetWarningCount(c.ID) > maxMessageWarnings {
				log.Printf("🚫 Connection %s (IP %s) dropped for flooding", c.ID, c.IP)
				return
			}
			continue
		}
		if warning {
			c.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeRateLimit, "Slow down"))
		}

		msg, err := codec.Decode(c.format, data)
		if err != nil {
			c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
			continue
		}
		c.server.handler.Handle(c.server.ctx, c, msg)
		codec.PutMessage(msg)
	}
}

// WritePump writes queued frames and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	frameType := websocket.TextMessage
	if c.format.Binary() {
		frameType = websocket.BinaryMessage
	}

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(frameType, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage queues msg. A client whose buffer is full is closed.
func (c *Client) SendMessage(msg *protocol.Message) {
	data, err := codec.Encode(c.format, msg)
	if err != nil {
		log.Printf("❌ Encode %s for %s: %v", msg.Type, c.ID, err)
		return
	}

	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return
	}
	select {
	case c.send <- data:
		c.mu.RUnlock()
	default:
		c.mu.RUnlock()
		log.Printf("⚠️ Send buffer of %s is full, closing", c.ID)
		c.Close()
	}
}

func (c *Client) handleDisconnect() {
	c.server.messageLimiter.RemoveClient(c.ID)
	c.server.hub.Unregister(c.ID)
	c.server.handler.Disconnect(c.server.ctx, c)
	c.Close()
	log.Printf("❌ Connection %s closed", c.ID)
}

// Close stops the write pump
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
