// Package engine runs trivia sessions: lobby lifecycle, the per-session round
// state machine, scoring and expiry cleanup.
//
// Every session carries its own mutex, held for one logical operation only.
// Notifications are queued in an outbox while the lock is held and delivered
// after it is released. Content queries never run under a session lock.
package engine

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/palemoky/trivia-rush/internal/content"
	"github.com/palemoky/trivia-rush/internal/metrics"
	"github.com/palemoky/trivia-rush/internal/protocol"
)

const maxCodeAttempts = 1000

// Notifier delivers messages to connections. Calls must not block on the
// network; delivery failures are the notifier's concern.
type Notifier interface {
	SendToConn(connID string, msg *protocol.Message)
	SendToGroup(group string, msg *protocol.Message)
	JoinGroup(group, connID string)
	LeaveGroup(group, connID string)
	DropGroup(group string)
}

// Observer receives session snapshots for read-only mirrors such as a
// directory or leaderboard. Calls happen outside session locks.
type Observer interface {
	SessionChanged(info protocol.SessionInfo)
	SessionRemoved(id uuid.UUID, code int)
	GameFinished(info protocol.SessionInfo)
}

type nopObserver struct{}

func (nopObserver) SessionChanged(protocol.SessionInfo) {}
func (nopObserver) SessionRemoved(uuid.UUID, int)       {}
func (nopObserver) GameFinished(protocol.SessionInfo)   {}

// Engine is the single authoritative game engine of the process.
type Engine struct {
	rules    Rules
	registry *Registry
	content  content.Provider
	notifier Notifier
	observer Observer
	metrics  *metrics.Recorder
	now      func() time.Time
	newCode  func() int
	intn     func(n int) int
}

// Option configures an Engine
type Option func(*Engine)

// WithRules overrides DefaultRules
func WithRules(r Rules) Option {
	return func(e *Engine) { e.rules = r }
}

// WithObserver mirrors snapshots to o
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithMetrics records engine events on m
func WithMetrics(m *metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithCodeGenerator replaces the random invitation code source
func WithCodeGenerator(gen func() int) Option {
	return func(e *Engine) { e.newCode = gen }
}

// WithRandom replaces rand.IntN for category and question draws
func WithRandom(intn func(n int) int) Option {
	return func(e *Engine) { e.intn = intn }
}

// New creates an engine over registry
func New(registry *Registry, provider content.Provider, notifier Notifier, opts ...Option) *Engine {
	e := &Engine{
		rules:    DefaultRules(),
		registry: registry,
		content:  provider,
		notifier: notifier,
		observer: nopObserver{},
		now:      time.Now,
		newCode:  randomCode,
		intn:     rand.IntN,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = metrics.Noop()
	}
	return e
}

// randomCode six digit invitation code
func randomCode() int {
	return 100000 + rand.IntN(900000)
}

// Registry exposes the engine's registry
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Rules in effect
func (e *Engine) Rules() Rules {
	return e.rules
}

// SessionIDs lists the ids of every live session
func (e *Engine) SessionIDs() []uuid.UUID {
	sessions := e.registry.Sessions()
	ids := make([]uuid.UUID, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}
	return ids
}

// Snapshots projects every live session
func (e *Engine) Snapshots() []protocol.SessionInfo {
	sessions := e.registry.Sessions()
	out := make([]protocol.SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		s.mu.Lock()
		if !s.deleted {
			out = append(out, sessionInfo(s))
		}
		s.mu.Unlock()
	}
	return out
}

// Snapshot projects one session by invitation code
func (e *Engine) Snapshot(code int) (protocol.SessionInfo, bool) {
	s, ok := e.registry.SessionByCode(code)
	if !ok {
		return protocol.SessionInfo{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleted {
		return protocol.SessionInfo{}, false
	}
	return sessionInfo(s), true
}

// Phase reports the round phase of a session by invitation code
func (e *Engine) Phase(code int) (Phase, bool) {
	s, ok := e.registry.SessionByCode(code)
	if !ok {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase(), !s.deleted
}

// Touch records activity for a player, used by transport heartbeats.
func (e *Engine) Touch(playerID uuid.UUID) {
	if p, ok := e.registry.Player(playerID); ok {
		p.touch(e.now())
	}
}

func parseID(raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
