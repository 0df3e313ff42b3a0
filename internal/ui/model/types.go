// Package model contains the bubbletea model of the online client.
package model

import (
	"context"

	"github.com/palemoky/trivia-rush/internal/protocol"
)

// Phase is the screen the client is on.
type Phase int

const (
	PhaseConnecting Phase = iota
	PhaseMenu
	PhaseLobby
	PhaseGame
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseConnecting:
		return "connecting"
	case PhaseMenu:
		return "menu"
	case PhaseLobby:
		return "lobby"
	case PhaseGame:
		return "game"
	case PhaseGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

type menuStep int

const (
	stepChoose menuStep = iota
	stepCode
	stepName
)

// Conn is the part of the network client the model drives.
type Conn interface {
	Connect(ctx context.Context) error
	Receive() (*protocol.Message, error)
	Close()
	StartHeartbeat()
	Latency() int64

	CreateSession(name string, code int) error
	JoinSession(code int, name string) error
	SetReady(ready bool) error
	SubmitAnswer(answerID string) error
	LeaveSession() error
	Restart() error
}

// --- Tea Messages ---

// ServerMessage wraps a protocol message for tea.Msg.
type ServerMessage struct {
	Msg *protocol.Message
}

// ConnectedMsg indicates successful connection.
type ConnectedMsg struct{}

// ConnectionErrorMsg indicates a connection error.
type ConnectionErrorMsg struct {
	Err error
}
