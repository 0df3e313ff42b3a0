//go:build !production

package testutil

import (
	"sync"

	"github.com/google/uuid"

	"github.com/palemoky/trivia-rush/internal/protocol"
)

// RecordingObserver records session mirror events
type RecordingObserver struct {
	mu       sync.Mutex
	Changed  []protocol.SessionInfo
	Removed  []uuid.UUID
	Finished []protocol.SessionInfo
}

func (o *RecordingObserver) SessionChanged(info protocol.SessionInfo) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Changed = append(o.Changed, info)
}

func (o *RecordingObserver) SessionRemoved(id uuid.UUID, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Removed = append(o.Removed, id)
}

func (o *RecordingObserver) GameFinished(info protocol.SessionInfo) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Finished = append(o.Finished, info)
}

// FinishedGames copy of finished snapshots
func (o *RecordingObserver) FinishedGames() []protocol.SessionInfo {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]protocol.SessionInfo(nil), o.Finished...)
}

// RemovedSessions copy of removed session ids
func (o *RecordingObserver) RemovedSessions() []uuid.UUID {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]uuid.UUID(nil), o.Removed...)
}
