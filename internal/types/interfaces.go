package types

import (
	"github.com/google/uuid"

	"github.com/palemoky/trivia-rush/internal/protocol"
)

// ServerInterface is what message handlers need from the server
type ServerInterface interface {
	IsMaintenanceMode() bool
	GetOnlineCount() int
}

// ClientInterface one websocket connection. A connection speaks for at most
// one player at a time.
type ClientInterface interface {
	GetID() string
	GetPlayerID() uuid.UUID
	SetPlayerID(id uuid.UUID)
	SendMessage(msg *protocol.Message)
	Close()
}
