package engine

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrCodeTaken is returned when another live session holds the code.
	ErrCodeTaken = errors.New("invitation code already in use")
	// ErrSessionExists is returned when a session id is registered twice.
	ErrSessionExists = errors.New("session already registered")
)

// Registry indexes players by id and sessions by id and invitation code.
// It holds no game logic and never blocks on I/O.
type Registry struct {
	mu       sync.RWMutex
	players  map[uuid.UUID]*Player
	sessions map[uuid.UUID]*Session
	byCode   map[int]*Session
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		players:  make(map[uuid.UUID]*Player),
		sessions: make(map[uuid.UUID]*Session),
		byCode:   make(map[int]*Session),
	}
}

// PutPlayer stores or replaces a player
func (r *Registry) PutPlayer(p *Player) {
	r.mu.Lock()
	r.players[p.ID] = p
	r.mu.Unlock()
}

// Player looks up a player by id
func (r *Registry) Player(id uuid.UUID) (*Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[id]
	return p, ok
}

// RemovePlayer drops a player; absent ids are ignored
func (r *Registry) RemovePlayer(id uuid.UUID) {
	r.mu.Lock()
	delete(r.players, id)
	r.mu.Unlock()
}

// Players returns a snapshot of all players
func (r *Registry) Players() []*Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	return out
}

// PlayerCount number of registered players
func (r *Registry) PlayerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// AddSession registers s under its id and code. It fails with ErrCodeTaken
// when a live session already holds the code.
func (r *Registry) AddSession(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byCode[s.Code]; ok {
		return ErrCodeTaken
	}
	if _, ok := r.sessions[s.ID]; ok {
		return ErrSessionExists
	}
	r.sessions[s.ID] = s
	r.byCode[s.Code] = s
	return nil
}

// ReplaceSession atomically swaps old for s. Both must carry the same code.
// It fails with ErrCodeTaken if old no longer owns the code.
func (r *Registry) ReplaceSession(old, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.byCode[s.Code]; !ok || cur != old {
		return ErrCodeTaken
	}
	if _, ok := r.sessions[s.ID]; ok {
		return ErrSessionExists
	}
	delete(r.sessions, old.ID)
	r.sessions[s.ID] = s
	r.byCode[s.Code] = s
	return nil
}

// Session looks up a session by id
func (r *Registry) Session(id uuid.UUID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// SessionByCode looks up a live session by invitation code
func (r *Registry) SessionByCode(code int) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byCode[code]
	return s, ok
}

// RemoveSession unregisters s. Index entries that already point at another
// session are left alone, so removing a replaced session is harmless.
func (r *Registry) RemoveSession(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.sessions[s.ID]; ok && cur == s {
		delete(r.sessions, s.ID)
	}
	if cur, ok := r.byCode[s.Code]; ok && cur == s {
		delete(r.byCode, s.Code)
	}
}

// Sessions returns a snapshot of all live sessions
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// SessionCount number of live sessions
func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
