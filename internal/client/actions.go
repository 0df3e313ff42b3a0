package client

import (
	"time"

	"github.com/palemoky/trivia-rush/internal/protocol"
	"github.com/palemoky/trivia-rush/internal/protocol/codec"
)

// CreateSession opens a lobby. code 0 asks for a fresh invitation code.
func (c *Client) CreateSession(name string, code int) error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgCreateSession, protocol.CreateSessionPayload{
		PlayerName:     name,
		InvitationCode: code,
	}))
}

// JoinSession joins the lobby holding code
func (c *Client) JoinSession(code int, name string) error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgJoinSession, protocol.JoinSessionPayload{
		InvitationCode: code,
		PlayerName:     name,
	}))
}

// SetReady toggles ready in the current session
func (c *Client) SetReady(ready bool) error {
	pid, code, err := c.seat()
	if err != nil {
		return err
	}
	return c.SendMessage(codec.MustNewMessage(protocol.MsgSetReady, protocol.SetReadyPayload{
		PlayerID:       pid,
		InvitationCode: code,
		Ready:          ready,
	}))
}

// SubmitAnswer selects an answer for the open question
func (c *Client) SubmitAnswer(answerID string) error {
	pid, code, err := c.seat()
	if err != nil {
		return err
	}
	return c.SendMessage(codec.MustNewMessage(protocol.MsgSubmitAnswer, protocol.SubmitAnswerPayload{
		PlayerID:       pid,
		AnswerID:       answerID,
		InvitationCode: code,
	}))
}

// LeaveSession leaves the current session
func (c *Client) LeaveSession() error {
	pid, code, err := c.seat()
	if err != nil {
		return err
	}
	err = c.SendMessage(codec.MustNewMessage(protocol.MsgLeaveSession, protocol.LeaveSessionPayload{
		InvitationCode: code,
		PlayerID:       pid,
	}))
	if err == nil {
		c.mu.Lock()
		c.invitationCode = 0
		c.mu.Unlock()
	}
	return err
}

// Restart asks for a new game with the same lobby
func (c *Client) Restart() error {
	pid, code, err := c.seat()
	if err != nil {
		return err
	}
	return c.SendMessage(codec.MustNewMessage(protocol.MsgRestartSameLobby, protocol.RestartSameLobbyPayload{
		PlayerID:       pid,
		InvitationCode: code,
	}))
}

// Ping sends a heartbeat
func (c *Client) Ping() error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgPing, protocol.PingPayload{
		Timestamp: time.Now().UnixMilli(),
	}))
}

// StartHeartbeat pings until the connection closes
func (c *Client) StartHeartbeat() {
	go func() {
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if c.IsConnected() {
					_ = c.Ping()
				}
			case <-c.done:
				return
			}
		}
	}()
}

func (c *Client) seat() (string, int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.playerID == "" || c.invitationCode == 0 {
		return "", 0, ErrNoSession
	}
	return c.playerID, c.invitationCode, nil
}
