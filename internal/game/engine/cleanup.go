package engine

import (
	"context"
	"log"
)

const statusClosedInactive = "Session closed due to inactivity"

// cleanupLocked deletes a session that sat in the lobby or after its game over
// for longer than the configured grace period. A ready session whose next
// round keeps failing to start gets the lobby's grace period, counted from the
// first failure. Reports whether s was deleted.
func (e *Engine) cleanupLocked(s *Session, out *outbox) bool {
	now := e.now()

	var reason string
	switch {
	case !s.playersReady && s.round.Counter == 0 && now.Sub(s.CreatedAt) > e.rules.FormingTimeout:
		reason = "forming_timeout"
	case s.gameOver && now.Sub(s.gameOverAt) > e.rules.GameOverTimeout:
		reason = "game_over_timeout"
	case !s.gameOver && !s.startFailedAt.IsZero() && now.Sub(s.startFailedAt) > e.rules.FormingTimeout:
		reason = "start_failed"
	default:
		return false
	}

	out.status(s, statusClosedInactive)
	e.deleteLocked(s, out)

	e.metrics.SessionClosed(context.Background(), reason)
	log.Printf("🧹 Session %d removed (%s)", s.Code, reason)
	return true
}

// deleteLocked unregisters s. Nothing targets it after the queued group drop.
func (e *Engine) deleteLocked(s *Session, out *outbox) {
	s.deleted = true
	e.registry.RemoveSession(s)
	for _, p := range s.players {
		p.clearSession(s.ID)
	}
	out.removed(s)
}

// SweepIdlePlayers drops players idle for longer than the configured
// threshold, whether or not they still sit in a session.
func (e *Engine) SweepIdlePlayers() int {
	cutoff := e.now().Add(-e.rules.PlayerIdle)
	removed := 0
	for _, p := range e.registry.Players() {
		if p.LastActivity().Before(cutoff) {
			e.registry.RemovePlayer(p.ID)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("🧹 Removed %d idle players", removed)
	}
	return removed
}
