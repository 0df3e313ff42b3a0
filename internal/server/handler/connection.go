package handler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/palemoky/trivia-rush/internal/protocol"
	"github.com/palemoky/trivia-rush/internal/protocol/codec"
	"github.com/palemoky/trivia-rush/internal/types"
)

// handlePing answers a heartbeat and refreshes the bound player's activity.
func (h *Handler) handlePing(_ context.Context, client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.PingPayload](msg)
	if err != nil {
		return
	}

	if id := client.GetPlayerID(); id != uuid.Nil {
		h.engine.Touch(id)
	}
	client.SendMessage(codec.MustNewMessage(protocol.MsgPong, protocol.PongPayload{
		ClientTimestamp: payload.Timestamp,
		ServerTimestamp: time.Now().UnixMilli(),
	}))
}
