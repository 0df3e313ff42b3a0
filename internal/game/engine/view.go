package engine

import (
	"github.com/palemoky/trivia-rush/internal/content"
	"github.com/palemoky/trivia-rush/internal/protocol"
)

// sessionInfo projects a session into its wire snapshot. The caller holds s.mu.
func sessionInfo(s *Session) protocol.SessionInfo {
	info := protocol.SessionInfo{
		ID:              s.ID.String(),
		InvitationCode:  s.Code,
		Players:         make([]protocol.PlayerInfo, 0, len(s.players)),
		ArePlayersReady: s.playersReady,
		IsGameOver:      s.gameOver,
	}
	for _, p := range s.players {
		info.Players = append(info.Players, playerInfo(p.ID.String(), p.Name, p.state()))
	}
	if s.round.Counter > 0 || s.playersReady {
		summary := roundSummary(s.round)
		info.Round = &summary
	}
	return info
}

func playerInfo(id, name string, st playerState) protocol.PlayerInfo {
	return protocol.PlayerInfo{
		ID:          id,
		Name:        name,
		Score:       st.Score,
		Streak:      st.Streak,
		Ready:       st.Ready,
		Winner:      st.Winner,
		HasAnswered: st.Selected != nil,
	}
}

func roundSummary(r Round) protocol.RoundSummary {
	sum := protocol.RoundSummary{
		RoundCounter: r.Counter,
		TimeLeft:     max(r.AnswerTimer, 0),
		Ongoing:      r.Ongoing,
		Ending:       r.Ending,
	}
	if r.Category != nil {
		sum.CategoryName = r.Category.Name
	}
	if r.Question != nil {
		sum.QuestionContent = r.Question.Content
		sum.Answers = answerInfos(r.Question.Answers)
	}
	return sum
}

// roundInfo is broadcast on question reveal; it never carries the correct answer.
func roundInfo(r Round) protocol.RoundInfo {
	info := protocol.RoundInfo{RoundCounter: r.Counter}
	if r.Category != nil {
		info.CategoryName = r.Category.Name
	}
	if r.Question != nil {
		info.QuestionID = r.Question.ID.String()
		info.QuestionContent = r.Question.Content
		info.Answers = answerInfos(r.Question.Answers)
	}
	return info
}

func answerInfos(answers []content.Answer) []protocol.AnswerInfo {
	out := make([]protocol.AnswerInfo, 0, len(answers))
	for _, a := range answers {
		out = append(out, protocol.AnswerInfo{ID: a.ID.String(), Content: a.Content})
	}
	return out
}
