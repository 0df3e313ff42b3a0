package engine

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/palemoky/trivia-rush/internal/content"
)

// Player is owned by the registry and referenced by the session it joined.
// Progress fields are guarded by mu; lock order is session, then player.
type Player struct {
	ID     uuid.UUID
	Name   string
	ConnID string

	lastActivity atomic.Int64 // unix nanos

	mu        sync.Mutex
	sessionID uuid.UUID
	score     int
	streak    int
	selected  *content.Answer
	ready     bool
	winner    bool
}

func newPlayer(name, connID string, now time.Time) *Player {
	p := &Player{ID: uuid.New(), Name: name, ConnID: connID}
	p.touch(now)
	return p
}

func (p *Player) touch(now time.Time) {
	p.lastActivity.Store(now.UnixNano())
}

// LastActivity time of the player's last accepted action
func (p *Player) LastActivity() time.Time {
	return time.Unix(0, p.lastActivity.Load())
}

// SessionID the session the player currently belongs to, uuid.Nil if none
func (p *Player) SessionID() uuid.UUID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessionID
}

func (p *Player) setSession(id uuid.UUID) {
	p.mu.Lock()
	p.sessionID = id
	p.mu.Unlock()
}

// clearSession unsets membership only if it still points at id.
func (p *Player) clearSession(id uuid.UUID) {
	p.mu.Lock()
	if p.sessionID == id {
		p.sessionID = uuid.Nil
	}
	p.mu.Unlock()
}

func (p *Player) isReady() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ready
}

func (p *Player) setReady(ready bool) {
	p.mu.Lock()
	p.ready = ready
	p.mu.Unlock()
}

func (p *Player) resetProgress() {
	p.mu.Lock()
	p.ready = false
	p.winner = false
	p.streak = 0
	p.score = 0
	p.selected = nil
	p.mu.Unlock()
}

func (p *Player) clearSelection() {
	p.mu.Lock()
	p.selected = nil
	p.mu.Unlock()
}

// selectAnswer replaces the selection and reports whether it changed.
func (p *Player) selectAnswer(a content.Answer) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.selected != nil && p.selected.ID == a.ID {
		return false
	}
	p.selected = &a
	return true
}

// applyScore awards points when the selection matches correct by content and
// resets the streak otherwise. A nil correct answer scores nobody.
func (p *Player) applyScore(correct *content.Answer, points int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if correct != nil && p.selected != nil && p.selected.Content == correct.Content {
		p.score += points
		p.streak++
		return true
	}
	p.streak = 0
	return false
}

func (p *Player) markWinner() {
	p.mu.Lock()
	p.winner = true
	p.mu.Unlock()
}

// playerState is a consistent copy of a player's progress.
type playerState struct {
	Score    int
	Streak   int
	Selected *content.Answer
	Ready    bool
	Winner   bool
}

func (p *Player) state() playerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := playerState{Score: p.score, Streak: p.streak, Ready: p.ready, Winner: p.winner}
	if p.selected != nil {
		sel := *p.selected
		st.Selected = &sel
	}
	return st
}

// Round is the per-session round state. Guarded by the owning session's mu.
type Round struct {
	Counter     int
	Category    *content.Category
	Question    *content.Question
	AnswerTimer int
	BreakTimer  int
	Ongoing     bool
	Ending      bool
}

// Phase names the state a session's round machine is in.
type Phase string

const (
	PhaseForming   Phase = "forming"
	PhaseBreak     Phase = "break"
	PhaseAnswering Phase = "answering"
	PhaseEnding    Phase = "ending"
	PhaseGameOver  Phase = "game_over"
)

// Session is one live game. ID and Code never change once registered; all
// other state is guarded by mu.
type Session struct {
	ID        uuid.UUID
	Code      int
	CreatedAt time.Time

	mu sync.Mutex
	// deliver is taken before mu is released and held until that operation's
	// outbox is flushed, so notifications leave in lock order.
	deliver sync.Mutex

	players           []*Player // join order
	expiredCategories map[uuid.UUID]struct{}
	expiredQuestions  map[uuid.UUID]struct{}
	round             Round
	timerArmed        bool
	playersReady      bool
	gameOver          bool
	gameOverAt        time.Time
	scoredRound       int
	startFailedAt     time.Time // first failed round start since the last success
	deleted           bool
}

func newSession(code int, now time.Time) *Session {
	return &Session{
		ID:                uuid.New(),
		Code:              code,
		CreatedAt:         now,
		expiredCategories: make(map[uuid.UUID]struct{}),
		expiredQuestions:  make(map[uuid.UUID]struct{}),
	}
}

func (s *Session) member(id uuid.UUID) (*Player, bool) {
	for _, p := range s.players {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

func (s *Session) addPlayer(p *Player) {
	if _, ok := s.member(p.ID); ok {
		return
	}
	s.players = append(s.players, p)
}

func (s *Session) removePlayer(id uuid.UUID) (*Player, bool) {
	for i, p := range s.players {
		if p.ID == id {
			s.players = slices.Delete(s.players, i, i+1)
			return p, true
		}
	}
	return nil, false
}

func (s *Session) phase() Phase {
	switch {
	case s.gameOver:
		return PhaseGameOver
	case !s.playersReady:
		return PhaseForming
	case s.round.Ending:
		return PhaseEnding
	case s.round.Ongoing:
		return PhaseAnswering
	default:
		return PhaseBreak
	}
}
