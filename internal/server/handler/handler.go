// Package handler dispatches decoded client frames to the game engine.
package handler

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/palemoky/trivia-rush/internal/apperrors"
	"github.com/palemoky/trivia-rush/internal/game/engine"
	"github.com/palemoky/trivia-rush/internal/protocol"
	"github.com/palemoky/trivia-rush/internal/protocol/codec"
	"github.com/palemoky/trivia-rush/internal/types"
)

// Engine is the slice of the game engine the handlers drive
type Engine interface {
	CreateSession(ctx context.Context, connID, playerName string, requestedCode int) (engine.Admission, error)
	JoinSession(ctx context.Context, connID string, code int, playerName string) (engine.Admission, error)
	LeaveSession(ctx context.Context, code int, playerID string) error
	SetReady(ctx context.Context, playerID string, code int, ready bool) error
	SubmitAnswer(ctx context.Context, playerID, answerID string, code int) error
	RestartWithSameLobby(ctx context.Context, playerID string, code int) (engine.Admission, error)
	Disconnect(ctx context.Context, playerID uuid.UUID)
	Touch(playerID uuid.UUID)
}

// HandlerDeps handler dependencies
type HandlerDeps struct {
	Server types.ServerInterface
	Engine Engine
}

// Handler routes messages by type
type Handler struct {
	server   types.ServerInterface
	engine   Engine
	handlers map[protocol.MessageType]handlerFunc
}

type handlerFunc func(ctx context.Context, client types.ClientInterface, msg *protocol.Message)

// NewHandler creates a handler
func NewHandler(deps HandlerDeps) *Handler {
	h := &Handler{
		server: deps.Server,
		engine: deps.Engine,
	}
	h.initHandlers()
	return h
}

func (h *Handler) initHandlers() {
	h.handlers = map[protocol.MessageType]handlerFunc{
		protocol.MsgPing: h.handlePing,

		protocol.MsgCreateSession:    h.handleCreateSession,
		protocol.MsgJoinSession:      h.handleJoinSession,
		protocol.MsgLeaveSession:     h.handleLeaveSession,
		protocol.MsgRestartSameLobby: h.handleRestart,

		protocol.MsgSetReady:     h.handleSetReady,
		protocol.MsgSubmitAnswer: h.handleSubmitAnswer,
	}
}

// Handle dispatches msg. Unknown types get an invalid-message error.
func (h *Handler) Handle(ctx context.Context, client types.ClientInterface, msg *protocol.Message) {
	if handler, ok := h.handlers[msg.Type]; ok {
		handler(ctx, client, msg)
		return
	}

	log.Printf("⚠️ Unknown message type %q from connection %s (%d bytes)", msg.Type, client.GetID(), len(msg.Payload))
	client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
}

// Disconnect releases the player a closed connection was speaking for.
func (h *Handler) Disconnect(ctx context.Context, client types.ClientInterface) {
	if id := client.GetPlayerID(); id != uuid.Nil {
		h.engine.Disconnect(ctx, id)
		client.SetPlayerID(uuid.Nil)
	}
}

// sendError reports err to the originating connection only.
func sendError(client types.ClientInterface, err error) {
	gameErr := apperrors.As(err)
	if gameErr.Kind == apperrors.KindInternal {
		log.Printf("❌ Connection %s: %v", client.GetID(), err)
	}
	client.SendMessage(codec.NewErrorMessage(gameErr.Code))
}

// parse decodes the payload or answers with an invalid-message error.
func parse[T any](client types.ClientInterface, msg *protocol.Message) (*T, bool) {
	payload, err := codec.ParsePayload[T](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return nil, false
	}
	return payload, true
}

// checkOwner rejects requests naming a player the connection does not speak
// for. A connection may only act for the player it created or joined as.
func checkOwner(client types.ClientInterface, playerID string) error {
	id, err := uuid.Parse(playerID)
	if err != nil || id == uuid.Nil {
		return apperrors.ErrInvalidID
	}
	if id != client.GetPlayerID() {
		return apperrors.ErrPlayerNotFound
	}
	return nil
}
