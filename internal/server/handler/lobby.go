package handler

import (
	"context"

	"github.com/google/uuid"

	"github.com/palemoky/trivia-rush/internal/protocol"
	"github.com/palemoky/trivia-rush/internal/protocol/codec"
	"github.com/palemoky/trivia-rush/internal/types"
)

func (h *Handler) rejectInMaintenance(client types.ClientInterface) bool {
	if !h.server.IsMaintenanceMode() {
		return false
	}
	client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeServerShutdown,
		"Server is under maintenance, no new games"))
	return true
}

// rebind drops whatever player the connection spoke for before and binds it
// to the admitted one.
func (h *Handler) rebind(ctx context.Context, client types.ClientInterface) {
	if old := client.GetPlayerID(); old != uuid.Nil {
		h.engine.Disconnect(ctx, old)
		client.SetPlayerID(uuid.Nil)
	}
}

func (h *Handler) handleCreateSession(ctx context.Context, client types.ClientInterface, msg *protocol.Message) {
	if h.rejectInMaintenance(client) {
		return
	}
	payload, ok := parse[protocol.CreateSessionPayload](client, msg)
	if !ok {
		return
	}

	h.rebind(ctx, client)
	adm, err := h.engine.CreateSession(ctx, client.GetID(), payload.PlayerName, payload.InvitationCode)
	if err != nil {
		sendError(client, err)
		return
	}
	client.SetPlayerID(adm.PlayerID)
}

func (h *Handler) handleJoinSession(ctx context.Context, client types.ClientInterface, msg *protocol.Message) {
	if h.rejectInMaintenance(client) {
		return
	}
	payload, ok := parse[protocol.JoinSessionPayload](client, msg)
	if !ok {
		return
	}

	h.rebind(ctx, client)
	adm, err := h.engine.JoinSession(ctx, client.GetID(), payload.InvitationCode, payload.PlayerName)
	if err != nil {
		sendError(client, err)
		return
	}
	client.SetPlayerID(adm.PlayerID)
}

func (h *Handler) handleLeaveSession(ctx context.Context, client types.ClientInterface, msg *protocol.Message) {
	payload, ok := parse[protocol.LeaveSessionPayload](client, msg)
	if !ok {
		return
	}
	if err := checkOwner(client, payload.PlayerID); err != nil {
		sendError(client, err)
		return
	}
	if err := h.engine.LeaveSession(ctx, payload.InvitationCode, payload.PlayerID); err != nil {
		sendError(client, err)
	}
}

func (h *Handler) handleRestart(ctx context.Context, client types.ClientInterface, msg *protocol.Message) {
	if h.rejectInMaintenance(client) {
		return
	}
	payload, ok := parse[protocol.RestartSameLobbyPayload](client, msg)
	if !ok {
		return
	}
	if err := checkOwner(client, payload.PlayerID); err != nil {
		sendError(client, err)
		return
	}

	adm, err := h.engine.RestartWithSameLobby(ctx, payload.PlayerID, payload.InvitationCode)
	if err != nil {
		sendError(client, err)
		return
	}
	client.SetPlayerID(adm.PlayerID)
}
