package protocol

import "encoding/json"

// Message is the envelope for every frame on the wire.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType identifies the payload carried by a Message.
type MessageType string

// Client -> server
const (
	MsgPing MessageType = "ping"

	MsgCreateSession    MessageType = "create_session"
	MsgJoinSession      MessageType = "join_session"
	MsgLeaveSession     MessageType = "leave_session"
	MsgSetReady         MessageType = "set_ready"
	MsgSubmitAnswer     MessageType = "submit_answer"
	MsgRestartSameLobby MessageType = "restart_same_lobby"
)

// Server -> client
const (
	MsgPong     MessageType = "pong"
	MsgPlayerID MessageType = "player_id" // unicast after create/join

	MsgSessionInfo  MessageType = "session_info"
	MsgRoundInfo    MessageType = "round_info"
	MsgTimer        MessageType = "timer"
	MsgRoundExpired MessageType = "round_expired"
	MsgStatus       MessageType = "status"
	MsgLobbyReset   MessageType = "lobby_reset"

	MsgError MessageType = "error"
)
