package client

import (
	"github.com/palemoky/trivia-rush/internal/protocol"
	"github.com/palemoky/trivia-rush/internal/protocol/codec"
)

const maxStatusLines = 5

// GameState is the client-side view assembled from server messages.
type GameState struct {
	PlayerID string
	Session  *protocol.SessionInfo
	Round    *protocol.RoundInfo
	TimeLeft int

	// Selected answer id for the open question
	Selected string

	LastResult *protocol.RoundExpiredPayload
	Status     []string
	Error      *protocol.ErrorPayload
}

// NewGameState creates an empty state
func NewGameState() *GameState {
	return &GameState{}
}

// Apply folds msg into the state and reports whether anything visible changed.
func (gs *GameState) Apply(msg *protocol.Message) bool {
	switch msg.Type {
	case protocol.MsgPlayerID:
		p, err := codec.ParsePayload[protocol.PlayerIDPayload](msg)
		if err != nil {
			return false
		}
		gs.PlayerID = p.PlayerID

	case protocol.MsgSessionInfo:
		p, err := codec.ParsePayload[protocol.SessionInfo](msg)
		if err != nil {
			return false
		}
		if gs.Session != nil && gs.Session.ID != p.ID {
			gs.resetRound()
		}
		gs.Session = p
		gs.Error = nil

	case protocol.MsgRoundInfo:
		p, err := codec.ParsePayload[protocol.RoundInfo](msg)
		if err != nil {
			return false
		}
		gs.Round = p
		gs.Selected = ""
		gs.LastResult = nil

	case protocol.MsgTimer:
		p, err := codec.ParsePayload[protocol.TimerPayload](msg)
		if err != nil {
			return false
		}
		gs.TimeLeft = p.Seconds

	case protocol.MsgRoundExpired:
		p, err := codec.ParsePayload[protocol.RoundExpiredPayload](msg)
		if err != nil {
			return false
		}
		gs.LastResult = p
		gs.TimeLeft = 0

	case protocol.MsgStatus:
		p, err := codec.ParsePayload[protocol.StatusPayload](msg)
		if err != nil {
			return false
		}
		gs.Status = append(gs.Status, p.Text)
		if len(gs.Status) > maxStatusLines {
			gs.Status = gs.Status[len(gs.Status)-maxStatusLines:]
		}

	case protocol.MsgLobbyReset:
		gs.resetRound()
		gs.Status = nil

	case protocol.MsgError:
		p, err := codec.ParsePayload[protocol.ErrorPayload](msg)
		if err != nil {
			return false
		}
		gs.Error = p

	default:
		return false
	}
	return true
}

func (gs *GameState) resetRound() {
	gs.Round = nil
	gs.Selected = ""
	gs.LastResult = nil
	gs.TimeLeft = 0
}

// Reset forgets the session entirely
func (gs *GameState) Reset() {
	gs.resetRound()
	gs.Session = nil
	gs.Status = nil
	gs.Error = nil
}

// Me this client's player in the current snapshot
func (gs *GameState) Me() (protocol.PlayerInfo, bool) {
	if gs.Session == nil {
		return protocol.PlayerInfo{}, false
	}
	for _, p := range gs.Session.Players {
		if p.ID == gs.PlayerID {
			return p, true
		}
	}
	return protocol.PlayerInfo{}, false
}

// AnswerAt the id of the n-th (1-based) answer of the open question
func (gs *GameState) AnswerAt(n int) (string, bool) {
	if gs.Round == nil || n < 1 || n > len(gs.Round.Answers) {
		return "", false
	}
	return gs.Round.Answers[n-1].ID, true
}

// Answering reports whether the current question still takes answers
func (gs *GameState) Answering() bool {
	return gs.Round != nil && gs.LastResult == nil &&
		gs.Session != nil && gs.Session.Round != nil && gs.Session.Round.Ongoing
}
