package engine

import (
	"context"
	"log"

	"github.com/palemoky/trivia-rush/internal/content"
	"github.com/palemoky/trivia-rush/internal/protocol"
)

// Outcome of a finished game
type Outcome string

const (
	OutcomeWinner   Outcome = "winner"
	OutcomeDraw     Outcome = "draw"
	OutcomeNoWinner Outcome = "no_winner"
)

// checkAnswersLocked scores the round once. Members whose selection matches
// the correct answer by content gain the round number in points.
func (e *Engine) checkAnswersLocked(s *Session, out *outbox) {
	if s.scoredRound == s.round.Counter {
		return
	}
	s.scoredRound = s.round.Counter

	expired := protocol.RoundExpiredPayload{RoundCounter: s.round.Counter}
	var correct *content.Answer
	if q := s.round.Question; q != nil {
		if a, ok := q.CorrectAnswer(); ok {
			correct = &a
			expired.CorrectAnswerID = a.ID.String()
			expired.CorrectAnswer = a.Content
		}
	}
	if correct == nil {
		// Everybody counts as unanswered for this round.
		log.Printf("⚠️ Session %d round %d: question has no correct answer", s.Code, s.round.Counter)
		e.metrics.SessionFault(context.Background())
	}

	out.toGroup(s, protocol.MsgRoundExpired, expired)
	for _, p := range s.players {
		p.applyScore(correct, s.round.Counter)
	}
	out.snapshot(s)
}

// evaluateGameOverLocked ends the game once the round limit is reached,
// otherwise re-arms the break before the next round.
func (e *Engine) evaluateGameOverLocked(s *Session, out *outbox) {
	if s.round.Counter < e.rules.RoundLimit {
		s.round.Ending = false
		s.round.BreakTimer = e.rules.BreakTicks
		return
	}

	scores := make([]int, len(s.players))
	for i, p := range s.players {
		scores[i] = p.state().Score
	}
	winners, outcome := resolveWinners(scores, e.rules.MinWinningScore)
	for _, i := range winners {
		s.players[i].markWinner()
	}

	s.gameOver = true
	s.gameOverAt = e.now()
	s.timerArmed = false
	s.round.Ongoing = false
	s.round.Ending = false

	out.snapshot(s)
	out.finished(s)

	e.metrics.GameFinished(context.Background(), string(outcome))
	log.Printf("🏁 Session %d finished: %s", s.Code, outcome)
}

// resolveWinners returns the indexes of the top scorers among players with at
// least minScore points. Nobody qualifying means no winner; a shared top score
// makes every tied player a winner.
func resolveWinners(scores []int, minScore int) ([]int, Outcome) {
	best, found := 0, false
	for _, sc := range scores {
		if sc >= minScore && (!found || sc > best) {
			best, found = sc, true
		}
	}
	if !found {
		return nil, OutcomeNoWinner
	}

	var winners []int
	for i, sc := range scores {
		if sc == best {
			winners = append(winners, i)
		}
	}
	if len(winners) == 1 {
		return winners, OutcomeWinner
	}
	return winners, OutcomeDraw
}
