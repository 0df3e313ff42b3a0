package engine

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/palemoky/trivia-rush/internal/apperrors"
	"github.com/palemoky/trivia-rush/internal/protocol"
	"github.com/palemoky/trivia-rush/internal/protocol/codec"
)

const restartAttempts = 3

// Admission identifies where a player ended up after create, join or restart.
type Admission struct {
	PlayerID       uuid.UUID
	SessionID      uuid.UUID
	InvitationCode int
}

// CreateSession creates a player and a new lobby around it. A non-zero
// requestedCode held by a live session deletes that session and reuses its
// code; otherwise a fresh random code is drawn.
func (e *Engine) CreateSession(ctx context.Context, connID, playerName string, requestedCode int) (Admission, error) {
	name, err := e.rules.ValidateNickname(playerName)
	if err != nil {
		return Admission{}, err
	}

	p := newPlayer(name, connID, e.now())
	e.registry.PutPlayer(p)

	var old *Session
	if requestedCode != 0 {
		old, _ = e.registry.SessionByCode(requestedCode)
	}
	adm, err := e.createSessionFor(ctx, p, old)
	if errors.Is(err, ErrCodeTaken) {
		adm, err = e.createSessionFor(ctx, p, nil)
	}
	if err != nil {
		e.registry.RemovePlayer(p.ID)
		return Admission{}, err
	}
	return adm, nil
}

// createSessionFor builds a session holding p. With replace set the new
// session takes over replace's code, failing with ErrCodeTaken if replace
// no longer owns it.
func (e *Engine) createSessionFor(ctx context.Context, p *Player, replace *Session) (Admission, error) {
	e.detach(p)

	s := newSession(0, e.now())
	s.players = []*Player{p}
	s.timerArmed = true

	if replace != nil {
		s.Code = replace.Code
		if err := e.registry.ReplaceSession(replace, s); err != nil {
			return Admission{}, err
		}
	} else if err := e.register(s); err != nil {
		return Admission{}, err
	}

	var out outbox
	if replace != nil {
		replace.mu.Lock()
		if !replace.deleted {
			e.deleteLocked(replace, &out)
		}
		replace.release()
		e.flushSession(replace, &out)
		e.metrics.SessionClosed(ctx, "replaced")
	}

	s.mu.Lock()
	p.setSession(s.ID)
	out.join(s, p.ConnID)
	out.toConn(p.ConnID, protocol.MsgPlayerID, protocol.PlayerIDPayload{PlayerID: p.ID.String()})
	out.snapshot(s)
	adm := Admission{PlayerID: p.ID, SessionID: s.ID, InvitationCode: s.Code}
	s.release()

	e.flushSession(s, &out)
	e.metrics.SessionCreated(ctx)
	log.Printf("🎲 Session %d created by %s", adm.InvitationCode, p.Name)
	return adm, nil
}

// register draws codes until one is free.
func (e *Engine) register(s *Session) error {
	for range maxCodeAttempts {
		s.Code = e.newCode()
		err := e.registry.AddSession(s)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrCodeTaken) {
			return err
		}
	}
	return fmt.Errorf("no free invitation code after %d attempts: %w", maxCodeAttempts, apperrors.ErrInternal)
}

// JoinSession creates a player and admits it to the lobby holding code.
func (e *Engine) JoinSession(ctx context.Context, connID string, code int, playerName string) (Admission, error) {
	name, err := e.rules.ValidateNickname(playerName)
	if err != nil {
		return Admission{}, err
	}
	s, ok := e.registry.SessionByCode(code)
	if !ok {
		return Admission{}, apperrors.ErrSessionNotFound
	}

	p := newPlayer(name, connID, e.now())
	if err := e.joinExisting(s, p); err != nil {
		return Admission{}, err
	}
	log.Printf("👤 Player %s joined session %d", p.Name, s.Code)
	return Admission{PlayerID: p.ID, SessionID: s.ID, InvitationCode: s.Code}, nil
}

func (e *Engine) joinExisting(s *Session, p *Player) error {
	var out outbox
	err := func() error {
		s.mu.Lock()
		defer s.release()

		if s.deleted {
			return apperrors.ErrSessionNotFound
		}
		if err := e.admissibleLocked(s, p.ID); err != nil {
			return err
		}
		s.addPlayer(p)
		p.touch(e.now())
		p.setSession(s.ID)
		e.registry.PutPlayer(p)

		out.join(s, p.ConnID)
		out.toConn(p.ConnID, protocol.MsgPlayerID, protocol.PlayerIDPayload{PlayerID: p.ID.String()})
		out.snapshot(s)
		return nil
	}()
	e.flushSession(s, &out)
	return err
}

func (e *Engine) admissibleLocked(s *Session, playerID uuid.UUID) error {
	if _, ok := s.member(playerID); ok {
		return nil
	}
	if s.round.Counter != 0 {
		if s.gameOver {
			return apperrors.ErrGameAlreadyOver
		}
		return apperrors.ErrGameAlreadyStarted
	}
	if s.playersReady {
		return apperrors.ErrGameAlreadyStarted
	}
	if len(s.players) >= e.rules.LobbyCapacity {
		return apperrors.ErrLobbyFull
	}
	return nil
}

// LeaveSession removes a player from the lobby. Absent players are a no-op.
// A player that leaves before readying up is forgotten entirely.
func (e *Engine) LeaveSession(ctx context.Context, code int, rawPlayerID string) error {
	playerID, ok := parseID(rawPlayerID)
	if !ok {
		return apperrors.ErrInvalidID
	}
	s, ok := e.registry.SessionByCode(code)
	if !ok {
		return apperrors.ErrSessionNotFound
	}

	var (
		out  outbox
		drop bool
	)
	func() {
		s.mu.Lock()
		defer s.release()
		if s.deleted {
			return
		}
		p, ok := s.member(playerID)
		if !ok {
			return
		}
		drop = !p.isReady()
		e.removeMemberLocked(s, p, &out)
		log.Printf("👋 Player %s left session %d", p.Name, s.Code)
	}()
	e.flushSession(s, &out)

	if drop {
		e.registry.RemovePlayer(playerID)
	}
	return nil
}

// Disconnect detaches a player whose connection went away.
func (e *Engine) Disconnect(ctx context.Context, playerID uuid.UUID) {
	p, ok := e.registry.Player(playerID)
	if !ok {
		return
	}
	if s, ok := e.registry.Session(p.SessionID()); ok {
		_ = e.LeaveSession(ctx, s.Code, playerID.String())
		return
	}
	if !p.isReady() {
		e.registry.RemovePlayer(playerID)
	}
}

// detach takes p out of whatever session it currently belongs to.
func (e *Engine) detach(p *Player) {
	sid := p.SessionID()
	if sid == uuid.Nil {
		return
	}
	s, ok := e.registry.Session(sid)
	if !ok {
		p.clearSession(sid)
		return
	}

	var out outbox
	s.mu.Lock()
	if !s.deleted {
		e.removeMemberLocked(s, p, &out)
	}
	s.release()
	e.flushSession(s, &out)
}

func (e *Engine) removeMemberLocked(s *Session, p *Player, out *outbox) {
	if _, ok := s.removePlayer(p.ID); !ok {
		return
	}
	p.clearSession(s.ID)
	out.leave(s, p.ConnID)
	e.evaluateReadinessLocked(s, out)
}

// SetReady toggles a member's ready flag until the session latches.
func (e *Engine) SetReady(ctx context.Context, rawPlayerID string, code int, ready bool) error {
	playerID, ok := parseID(rawPlayerID)
	if !ok {
		return apperrors.ErrInvalidID
	}
	s, ok := e.registry.SessionByCode(code)
	if !ok {
		return apperrors.ErrSessionNotFound
	}

	var out outbox
	err := func() error {
		s.mu.Lock()
		defer s.release()

		if s.deleted {
			return apperrors.ErrSessionNotFound
		}
		p, ok := s.member(playerID)
		if !ok {
			return apperrors.ErrPlayerNotFound
		}
		if s.playersReady {
			return apperrors.ErrTooLateToChange
		}
		p.setReady(ready)
		p.touch(e.now())
		e.evaluateReadinessLocked(s, &out)
		return nil
	}()
	e.flushSession(s, &out)
	return err
}

// evaluateReadinessLocked latches playersReady once every member is ready and
// arms the break timer. A snapshot is always queued.
func (e *Engine) evaluateReadinessLocked(s *Session, out *outbox) {
	if !s.playersReady && len(s.players) > 0 {
		all := true
		for _, p := range s.players {
			if !p.isReady() {
				all = false
				break
			}
		}
		if all {
			s.playersReady = true
			s.round.BreakTimer = e.rules.BreakTicks
			log.Printf("✅ Session %d: all %d players ready", s.Code, len(s.players))
		}
	}
	out.snapshot(s)
}

// RestartWithSameLobby resets the player's progress and puts it in a new game:
// a finished session is replaced under the same code, a running one is left
// for a fresh lobby, and a still-forming one is simply rejoined.
func (e *Engine) RestartWithSameLobby(ctx context.Context, rawPlayerID string, code int) (Admission, error) {
	playerID, ok := parseID(rawPlayerID)
	if !ok {
		return Admission{}, apperrors.ErrInvalidID
	}
	p, ok := e.registry.Player(playerID)
	if !ok {
		return Admission{}, apperrors.ErrPlayerNotFound
	}
	p.touch(e.now())
	p.resetProgress()

	for range restartAttempts {
		s, ok := e.registry.SessionByCode(code)
		if !ok {
			return Admission{}, apperrors.ErrSessionNotFound
		}

		s.mu.Lock()
		over, ready, deleted := s.gameOver, s.playersReady, s.deleted
		s.mu.Unlock()
		if deleted {
			continue
		}

		var (
			adm Admission
			err error
		)
		switch {
		case over:
			adm, err = e.createSessionFor(ctx, p, s)
			if errors.Is(err, ErrCodeTaken) {
				continue
			}
		case ready:
			adm, err = e.createSessionFor(ctx, p, nil)
		default:
			if p.SessionID() != s.ID {
				e.detach(p)
			}
			err = e.joinExisting(s, p)
			adm = Admission{PlayerID: p.ID, SessionID: s.ID, InvitationCode: s.Code}
		}
		if err != nil {
			return Admission{}, err
		}

		e.notifier.SendToConn(p.ConnID, codec.MustNewMessage(protocol.MsgLobbyReset,
			protocol.LobbyResetPayload{InvitationCode: adm.InvitationCode}))
		log.Printf("🔄 Player %s restarted into session %d", p.Name, adm.InvitationCode)
		return adm, nil
	}
	return Admission{}, apperrors.ErrSessionNotFound
}
