// Package client is the websocket client used by the terminal UI.
package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/palemoky/trivia-rush/internal/protocol"
	"github.com/palemoky/trivia-rush/internal/protocol/codec"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	heartbeatInterval = 5 * time.Second
	handshakeTimeout  = 10 * time.Second
	bufferSize        = 256
)

var (
	ErrClosed     = errors.New("connection closed")
	ErrBufferFull = errors.New("send buffer full")
	ErrNoSession  = errors.New("not in a session")
)

// Client websocket client
type Client struct {
	ServerURL string
	Format    codec.Format

	conn    *websocket.Conn
	send    chan []byte
	receive chan *protocol.Message
	done    chan struct{}

	// latency in milliseconds, from the last pong
	latency atomic.Int64

	OnMessage       func(*protocol.Message)
	OnError         func(error)
	OnClose         func()
	OnLatencyUpdate func(int64)

	mu             sync.RWMutex
	closed         bool
	playerID       string
	invitationCode int
}

// NewClient creates an unconnected client
func NewClient(serverURL string, format codec.Format) *Client {
	return &Client{
		ServerURL: serverURL,
		Format:    format,
		send:      make(chan []byte, bufferSize),
		receive:   make(chan *protocol.Message, bufferSize),
		done:      make(chan struct{}),
	}
}

// Connect dials the server and starts the pumps
func (c *Client) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, c.ServerURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.readPump()
	go c.writePump()
	return nil
}

// SendMessage queues msg for the server
func (c *Client) SendMessage(msg *protocol.Message) error {
	data, err := codec.Encode(c.Format, msg)
	if err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrBufferFull
	}
}

// Receive blocks for the next message
func (c *Client) Receive() (*protocol.Message, error) {
	select {
	case msg := <-c.receive:
		return msg, nil
	case <-c.done:
		return nil, ErrClosed
	}
}

// ReceiveWithTimeout like Receive with a deadline
func (c *Client) ReceiveWithTimeout(timeout time.Duration) (*protocol.Message, error) {
	select {
	case msg := <-c.receive:
		return msg, nil
	case <-time.After(timeout):
		return nil, errors.New("receive timeout")
	case <-c.done:
		return nil, ErrClosed
	}
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	}
}

// IsConnected reports whether the connection is open
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed && c.conn != nil
}

// PlayerID the player this connection speaks for, empty before create/join
func (c *Client) PlayerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// InvitationCode of the current session, 0 if none
func (c *Client) InvitationCode() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.invitationCode
}

// Latency round trip of the last heartbeat in milliseconds
func (c *Client) Latency() int64 {
	return c.latency.Load()
}

// track remembers identity fields carried by server messages.
func (c *Client) track(msg *protocol.Message) {
	switch msg.Type {
	case protocol.MsgPlayerID:
		if p, err := codec.ParsePayload[protocol.PlayerIDPayload](msg); err == nil {
			c.mu.Lock()
			c.playerID = p.PlayerID
			c.mu.Unlock()
		}
	case protocol.MsgSessionInfo:
		if p, err := codec.ParsePayload[protocol.SessionInfo](msg); err == nil {
			c.mu.Lock()
			c.invitationCode = p.InvitationCode
			c.mu.Unlock()
		}
	case protocol.MsgLobbyReset:
		if p, err := codec.ParsePayload[protocol.LobbyResetPayload](msg); err == nil {
			c.mu.Lock()
			c.invitationCode = p.InvitationCode
			c.mu.Unlock()
		}
	case protocol.MsgPong:
		if p, err := codec.ParsePayload[protocol.PongPayload](msg); err == nil {
			latency := time.Now().UnixMilli() - p.ClientTimestamp
			c.latency.Store(latency)
			if c.OnLatencyUpdate != nil {
				c.OnLatencyUpdate(latency)
			}
		}
	}
}
