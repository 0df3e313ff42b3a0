//go:build !production

package testutil

import (
	"sync"

	"github.com/google/uuid"

	"github.com/palemoky/trivia-rush/internal/protocol"
)

// MockClient is an in-memory connection that records what it was sent.
type MockClient struct {
	ID string

	mu       sync.Mutex
	playerID uuid.UUID
	messages []*protocol.Message
	closed   bool
}

// NewMockClient creates a client with the given connection id
func NewMockClient(id string) *MockClient {
	return &MockClient{ID: id}
}

func (c *MockClient) GetID() string { return c.ID }

func (c *MockClient) GetPlayerID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playerID
}

func (c *MockClient) SetPlayerID(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = id
}

func (c *MockClient) SendMessage(msg *protocol.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
}

func (c *MockClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Messages everything sent so far
func (c *MockClient) Messages() []*protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*protocol.Message(nil), c.messages...)
}

// Last the most recent message of type t, nil if none
func (c *MockClient) Last(t protocol.MessageType) *protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Type == t {
			return c.messages[i]
		}
	}
	return nil
}

// IsClosed reports whether Close was called
func (c *MockClient) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
