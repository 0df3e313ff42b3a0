package handler

import (
	"context"

	"github.com/palemoky/trivia-rush/internal/protocol"
	"github.com/palemoky/trivia-rush/internal/types"
)

func (h *Handler) handleSetReady(ctx context.Context, client types.ClientInterface, msg *protocol.Message) {
	payload, ok := parse[protocol.SetReadyPayload](client, msg)
	if !ok {
		return
	}
	if err := checkOwner(client, payload.PlayerID); err != nil {
		sendError(client, err)
		return
	}
	if err := h.engine.SetReady(ctx, payload.PlayerID, payload.InvitationCode, payload.Ready); err != nil {
		sendError(client, err)
	}
}

func (h *Handler) handleSubmitAnswer(ctx context.Context, client types.ClientInterface, msg *protocol.Message) {
	payload, ok := parse[protocol.SubmitAnswerPayload](client, msg)
	if !ok {
		return
	}
	if err := checkOwner(client, payload.PlayerID); err != nil {
		sendError(client, err)
		return
	}
	if err := h.engine.SubmitAnswer(ctx, payload.PlayerID, payload.AnswerID, payload.InvitationCode); err != nil {
		sendError(client, err)
	}
}
